package domain

import "strings"

// Address — адрес клиента, value object.
type Address struct {
	Street string
	Number int
	Zip    string
	City   string
}

// NewAddress создаёт адрес и проверяет, что все поля заполнены.
func NewAddress(street string, number int, zip, city string) (Address, error) {
	addr := Address{Street: street, Number: number, Zip: zip, City: city}
	if err := addr.Validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Validate проверяет заполненность адреса.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" ||
		a.Number <= 0 ||
		strings.TrimSpace(a.Zip) == "" ||
		strings.TrimSpace(a.City) == "" {
		return ErrAddressInvalid
	}
	return nil
}

// Customer — покупатель. Заказы ссылаются на него только по идентификатору.
type Customer struct {
	id           string
	name         string
	address      *Address
	active       bool
	rewardPoints int
}

// NewCustomer создаёт неактивного клиента без адреса.
func NewCustomer(id, name string) (*Customer, error) {
	c := &Customer{id: id, name: name}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// RestoreCustomer восстанавливает клиента из хранилища с полным набором полей.
func RestoreCustomer(id, name string, address *Address, active bool, rewardPoints int) (*Customer, error) {
	c := &Customer{id: id, name: name, active: active, rewardPoints: rewardPoints}
	if address != nil {
		addr := *address
		c.address = &addr
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.active && c.address == nil {
		return nil, ErrAddressRequired
	}
	if c.rewardPoints < 0 {
		return nil, ErrRewardPointsNegative
	}
	return c, nil
}

func (c *Customer) ID() string        { return c.id }
func (c *Customer) Name() string      { return c.name }
func (c *Customer) IsActive() bool    { return c.active }
func (c *Customer) RewardPoints() int { return c.rewardPoints }

// Address возвращает копию адреса и признак его наличия.
func (c *Customer) Address() (Address, bool) {
	if c.address == nil {
		return Address{}, false
	}
	return *c.address, true
}

// Validate проверяет идентификатор и имя клиента.
func (c *Customer) Validate() error {
	if c.id == "" {
		return ErrCustomerIDRequired
	}
	if strings.TrimSpace(c.name) == "" {
		return ErrCustomerNameRequired
	}
	return nil
}

// ChangeName меняет имя, если новое значение проходит валидацию.
func (c *Customer) ChangeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrCustomerNameRequired
	}
	c.name = name
	return nil
}

// ChangeAddress заменяет адрес клиента.
func (c *Customer) ChangeAddress(address Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	c.address = &address
	return nil
}

// Activate делает клиента активным; без адреса активация запрещена.
func (c *Customer) Activate() error {
	if c.address == nil {
		return ErrAddressRequired
	}
	c.active = true
	return nil
}

// Deactivate снимает признак активности.
func (c *Customer) Deactivate() {
	c.active = false
}

// AddRewardPoints начисляет бонусные баллы.
func (c *Customer) AddRewardPoints(points int) error {
	if points < 0 {
		return ErrRewardPointsNegative
	}
	c.rewardPoints += points
	return nil
}
