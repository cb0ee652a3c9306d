package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

type ItemInput struct {
	ID        string `json:"id,omitempty" doc:"Generated when omitted"`
	ProductID string `json:"product_id,omitempty"`
	Name      string `json:"name,omitempty" doc:"Taken from the catalog when omitted"`
	Price     string `json:"price,omitempty" doc:"Taken from the catalog when omitted" example:"19.99"`
	Quantity  int    `json:"quantity"`
}

type RequestOrderCreate struct {
	Body struct {
		ID         string      `json:"id,omitempty" doc:"Generated when omitted"`
		CustomerID string      `json:"customer_id"`
		Items      []ItemInput `json:"items"`
	}
}

type RequestOrderGet struct {
	OrderID string `path:"orderID" doc:"Order identifier"`
}

type RequestOrderList struct {
	CustomerID string `query:"customer_id" doc:"Filter by customer"`
	Limit      int    `query:"limit" minimum:"0" doc:"Maximum number of orders, 0 means no limit"`
}

type RequestItemQuantity struct {
	OrderID string `path:"orderID"`
	ItemID  string `path:"itemID"`
	Body    struct {
		Quantity int `json:"quantity" doc:"Non-positive values leave the order unchanged"`
	}
}

type ResponseOrder struct {
	Body OrderBody
}

type ResponseOrderList struct {
	Body OrderListBody
}

// OrderResource обслуживает /api/v1/orders.
type OrderResource struct {
	svc    *checkout.Service
	api    huma.API
	logger *log.Entry
}

func NewOrderResource(svc *checkout.Service, api huma.API, logger *log.Entry) *OrderResource {
	return &OrderResource{svc: svc, api: api, logger: logger}
}

func (rs *OrderResource) Register() {
	huma.Register(rs.api, huma.Operation{
		OperationID:   "order-create",
		Summary:       "Place an order",
		Method:        http.MethodPost,
		Path:          basePath + "/orders",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"Orders"},
	}, rs.Create)

	huma.Register(rs.api, huma.Operation{
		OperationID: "order-list",
		Summary:     "List orders",
		Method:      http.MethodGet,
		Path:        basePath + "/orders",
		Tags:        []string{"Orders"},
	}, rs.List)

	huma.Register(rs.api, huma.Operation{
		OperationID: "order-get",
		Summary:     "Get order",
		Method:      http.MethodGet,
		Path:        basePath + "/orders/{orderID}",
		Tags:        []string{"Orders"},
	}, rs.Get)

	huma.Register(rs.api, huma.Operation{
		OperationID: "order-item-quantity",
		Summary:     "Change item quantity",
		Method:      http.MethodPatch,
		Path:        basePath + "/orders/{orderID}/items/{itemID}",
		Tags:        []string{"Orders"},
	}, rs.ChangeItemQuantity)
}

func (rs *OrderResource) Create(ctx context.Context, req *RequestOrderCreate) (*ResponseOrder, error) {
	in := checkout.PlaceOrderInput{
		OrderID:    req.Body.ID,
		CustomerID: req.Body.CustomerID,
		Items:      make([]checkout.ItemInput, 0, len(req.Body.Items)),
	}
	for i, item := range req.Body.Items {
		price, err := parsePrice(fmt.Sprintf("items[%d].price", i), item.Price)
		if err != nil {
			return nil, err
		}
		in.Items = append(in.Items, checkout.ItemInput{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
		})
	}

	order, err := rs.svc.PlaceOrder(ctx, in)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseOrder{Body: toOrderBody(order)}, nil
}

func (rs *OrderResource) List(ctx context.Context, req *RequestOrderList) (*ResponseOrderList, error) {
	orders, err := rs.svc.ListOrders(ctx, req.CustomerID, req.Limit)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}

	body := OrderListBody{Orders: make([]OrderBody, 0, len(orders))}
	for _, order := range orders {
		body.Orders = append(body.Orders, toOrderBody(order))
	}
	return &ResponseOrderList{Body: body}, nil
}

func (rs *OrderResource) Get(ctx context.Context, req *RequestOrderGet) (*ResponseOrder, error) {
	order, err := rs.svc.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseOrder{Body: toOrderBody(order)}, nil
}

func (rs *OrderResource) ChangeItemQuantity(ctx context.Context, req *RequestItemQuantity) (*ResponseOrder, error) {
	order, err := rs.svc.ChangeItemQuantity(ctx, req.OrderID, req.ItemID, req.Body.Quantity)
	if err != nil {
		return nil, toHTTPError(rs.logger, err)
	}
	return &ResponseOrder{Body: toOrderBody(order)}, nil
}
