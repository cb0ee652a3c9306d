package httpapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

type RequestCustomerCreate struct {
	Body struct {
		ID   string `json:"id,omitempty" doc:"Generated when omitted"`
		Name string `json:"name"`
	}
}

type RequestCustomerGet struct {
	CustomerID string `path:"customerID"`
}

type RequestCustomerAddress struct {
	CustomerID string `path:"customerID"`
	Body       struct {
		AddressBody
		Activate bool `json:"activate,omitempty" doc:"Activate the customer after the change"`
	}
}

type ResponseCustomer struct {
	Body CustomerBody
}

type ResponseCustomerList struct {
	Body CustomerListBody
}

// CustomerResource обслуживает /api/v1/customers.
type CustomerResource struct {
	svc    *checkout.Service
	api    huma.API
	logger *log.Entry
}

func NewCustomerResource(svc *checkout.Service, api huma.API, logger *log.Entry) *CustomerResource {
	return &CustomerResource{svc: svc, api: api, logger: logger}
}

func (rs *CustomerResource) Register() {
	huma.Register(rs.api, huma.Operation{
		OperationID:   "customer-create",
		Summary:       "Register a customer",
		Method:        http.MethodPost,
		Path:          basePath + "/customers",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"Customers"},
	}, rs.Create)

	huma.Register(rs.api, huma.Operation{
		OperationID: "customer-list",
		Summary:     "List customers",
		Method:      http.MethodGet,
		Path:        basePath + "/customers",
		Tags:        []string{"Customers"},
	}, rs.List)

	huma.Register(rs.api, huma.Operation{
		OperationID: "customer-get",
		Summary:     "Get customer",
		Method:      http.MethodGet,
		Path:        basePath + "/customers/{customerID}",
		Tags:        []string{"Customers"},
	}, rs.Get)

	huma.Register(rs.api, huma.Operation{
		OperationID: "customer-address",
		Summary:     "Change customer address",
		Method:      http.MethodPut,
		Path:        basePath + "/customers/{customerID}/address",
		Tags:        []string{"Customers"},
	}, rs.ChangeAddress)
}

func (rs *CustomerResource) Create(ctx context.Context, req *RequestCustomerCreate) (*ResponseCustomer, error) {
	customer, err := rs.svc.RegisterCustomer(ctx, req.Body.ID, req.Body.Name)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseCustomer{Body: toCustomerBody(customer)}, nil
}

func (rs *CustomerResource) List(ctx context.Context, _ *struct{}) (*ResponseCustomerList, error) {
	customers, err := rs.svc.ListCustomers(ctx)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	body := CustomerListBody{Customers: make([]CustomerBody, 0, len(customers))}
	for _, customer := range customers {
		body.Customers = append(body.Customers, toCustomerBody(customer))
	}
	return &ResponseCustomerList{Body: body}, nil
}

func (rs *CustomerResource) Get(ctx context.Context, req *RequestCustomerGet) (*ResponseCustomer, error) {
	customer, err := rs.svc.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseCustomer{Body: toCustomerBody(customer)}, nil
}

func (rs *CustomerResource) ChangeAddress(ctx context.Context, req *RequestCustomerAddress) (*ResponseCustomer, error) {
	addr := domain.Address{
		Street: req.Body.Street,
		Number: req.Body.Number,
		Zip:    req.Body.Zip,
		City:   req.Body.City,
	}
	customer, err := rs.svc.ChangeCustomerAddress(ctx, req.CustomerID, addr, req.Body.Activate)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseCustomer{Body: toCustomerBody(customer)}, nil
}

type RequestProductCreate struct {
	Body struct {
		ID    string `json:"id,omitempty" doc:"Generated when omitted"`
		Name  string `json:"name"`
		Price string `json:"price" minLength:"1" example:"19.99"`
	}
}

type RequestProductGet struct {
	ProductID string `path:"productID"`
}

type RequestProductPrice struct {
	ProductID string `path:"productID"`
	Body      struct {
		Price string `json:"price" minLength:"1" example:"17.49"`
	}
}

type ResponseProduct struct {
	Body ProductBody
}

type ResponseProductList struct {
	Body ProductListBody
}

// ProductResource обслуживает /api/v1/products.
type ProductResource struct {
	svc    *checkout.Service
	api    huma.API
	logger *log.Entry
}

func NewProductResource(svc *checkout.Service, api huma.API, logger *log.Entry) *ProductResource {
	return &ProductResource{svc: svc, api: api, logger: logger}
}

func (rs *ProductResource) Register() {
	huma.Register(rs.api, huma.Operation{
		OperationID:   "product-create",
		Summary:       "Add a product",
		Method:        http.MethodPost,
		Path:          basePath + "/products",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"Products"},
	}, rs.Create)

	huma.Register(rs.api, huma.Operation{
		OperationID: "product-list",
		Summary:     "List products",
		Method:      http.MethodGet,
		Path:        basePath + "/products",
		Tags:        []string{"Products"},
	}, rs.List)

	huma.Register(rs.api, huma.Operation{
		OperationID: "product-get",
		Summary:     "Get product",
		Method:      http.MethodGet,
		Path:        basePath + "/products/{productID}",
		Tags:        []string{"Products"},
	}, rs.Get)

	huma.Register(rs.api, huma.Operation{
		OperationID: "product-price",
		Summary:     "Change product price",
		Method:      http.MethodPut,
		Path:        basePath + "/products/{productID}/price",
		Tags:        []string{"Products"},
	}, rs.ChangePrice)
}

func (rs *ProductResource) Create(ctx context.Context, req *RequestProductCreate) (*ResponseProduct, error) {
	price, err := parsePrice("price", req.Body.Price)
	if err != nil {
		return nil, err
	}
	product, err := rs.svc.AddProduct(ctx, req.Body.ID, req.Body.Name, price.Decimal)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseProduct{Body: toProductBody(product)}, nil
}

func (rs *ProductResource) List(ctx context.Context, _ *struct{}) (*ResponseProductList, error) {
	products, err := rs.svc.ListProducts(ctx)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	body := ProductListBody{Products: make([]ProductBody, 0, len(products))}
	for _, product := range products {
		body.Products = append(body.Products, toProductBody(product))
	}
	return &ResponseProductList{Body: body}, nil
}

func (rs *ProductResource) Get(ctx context.Context, req *RequestProductGet) (*ResponseProduct, error) {
	product, err := rs.svc.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseProduct{Body: toProductBody(product)}, nil
}

func (rs *ProductResource) ChangePrice(ctx context.Context, req *RequestProductPrice) (*ResponseProduct, error) {
	price, err := parsePrice("price", req.Body.Price)
	if err != nil {
		return nil, err
	}
	product, err := rs.svc.ChangeProductPrice(ctx, req.ProductID, price.Decimal)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseProduct{Body: toProductBody(product)}, nil
}
