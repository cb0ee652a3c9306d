package httpapi

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Денежные значения в API передаются десятичными строками.

type ItemBody struct {
	ID         string `json:"id" doc:"Item identifier"`
	ProductID  string `json:"product_id" doc:"Product identifier"`
	Name       string `json:"name"`
	Price      string `json:"price" example:"19.99"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
}

type OrderBody struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Total      string     `json:"total" example:"45.23"`
	Items      []ItemBody `json:"items"`
}

type OrderListBody struct {
	Orders []OrderBody `json:"orders"`
}

type AddressBody struct {
	Street string `json:"street"`
	Number int    `json:"number"`
	Zip    string `json:"zip"`
	City   string `json:"city"`
}

type CustomerBody struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Active       bool         `json:"active"`
	RewardPoints int          `json:"reward_points"`
	Address      *AddressBody `json:"address,omitempty"`
}

type CustomerListBody struct {
	Customers []CustomerBody `json:"customers"`
}

type ProductBody struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price" example:"19.99"`
}

type ProductListBody struct {
	Products []ProductBody `json:"products"`
}

func toOrderBody(order *domain.Order) OrderBody {
	items := order.Items()
	body := OrderBody{
		ID:         order.ID(),
		CustomerID: order.CustomerID(),
		Total:      order.Total().String(),
		Items:      make([]ItemBody, 0, len(items)),
	}
	for _, item := range items {
		body.Items = append(body.Items, ItemBody{
			ID:         item.ID(),
			ProductID:  item.ProductID(),
			Name:       item.Name(),
			Price:      item.Price().String(),
			Quantity:   item.Quantity(),
			TotalPrice: item.TotalPrice().String(),
		})
	}
	return body
}

func toCustomerBody(customer *domain.Customer) CustomerBody {
	body := CustomerBody{
		ID:           customer.ID(),
		Name:         customer.Name(),
		Active:       customer.IsActive(),
		RewardPoints: customer.RewardPoints(),
	}
	if addr, ok := customer.Address(); ok {
		body.Address = &AddressBody{Street: addr.Street, Number: addr.Number, Zip: addr.Zip, City: addr.City}
	}
	return body
}

func toProductBody(product *domain.Product) ProductBody {
	return ProductBody{ID: product.ID(), Name: product.Name(), Price: product.Price().String()}
}

// parsePrice разбирает цену; пустая строка означает «не задана».
func parsePrice(field, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, huma.Error400BadRequest(fmt.Sprintf("%s: invalid decimal %q", field, raw))
	}
	return decimal.NewNullDecimal(price), nil
}
