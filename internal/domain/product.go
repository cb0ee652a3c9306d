package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product — товар каталога. Позиции заказа копируют его имя и цену на момент оформления.
type Product struct {
	id    string
	name  string
	price decimal.Decimal
}

// NewProduct создаёт товар и проверяет его атрибуты.
func NewProduct(id, name string, price decimal.Decimal) (*Product, error) {
	if err := validateProduct(id, name, price); err != nil {
		return nil, err
	}
	return &Product{id: id, name: name, price: price}, nil
}

func (p *Product) ID() string             { return p.id }
func (p *Product) Name() string           { return p.name }
func (p *Product) Price() decimal.Decimal { return p.price }

// ChangeName меняет название товара.
func (p *Product) ChangeName(name string) error {
	if err := validateProduct(p.id, name, p.price); err != nil {
		return err
	}
	p.name = name
	return nil
}

// ChangePrice меняет цену товара.
func (p *Product) ChangePrice(price decimal.Decimal) error {
	if err := validateProduct(p.id, p.name, price); err != nil {
		return err
	}
	p.price = price
	return nil
}

func validateProduct(id, name string, price decimal.Decimal) error {
	if id == "" {
		return ErrProductIDRequired
	}
	if strings.TrimSpace(name) == "" {
		return ErrProductNameRequired
	}
	if price.IsNegative() {
		return ErrProductPriceInvalid
	}
	return nil
}
