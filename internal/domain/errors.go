package domain

import (
	"errors"
	"fmt"
)

// Виды доменных ошибок валидации. Конкретные ошибки ниже оборачивают один из видов,
// поэтому вызывающий код может проверять как точную причину, так и её категорию.
var (
	// ErrMissingIdentifier — пустой идентификатор заказа или клиента.
	ErrMissingIdentifier = errors.New("missing identifier")
	// ErrEmptyItemList — заказ без позиций.
	ErrEmptyItemList = errors.New("empty item list")
	// ErrInvalidQuantity — в агрегате есть позиция с количеством <= 0.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrItemNotFound — позиция для изменения количества отсутствует в заказе.
	ErrItemNotFound = errors.New("order item not found")
	// ErrInvalidAttribute — некорректное значение атрибута клиента или товара.
	ErrInvalidAttribute = errors.New("invalid attribute")
)

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = fmt.Errorf("%w: id is required", ErrMissingIdentifier)
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerIDRequired = fmt.Errorf("%w: customer_id is required", ErrMissingIdentifier)
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = fmt.Errorf("%w: product id is required", ErrMissingIdentifier)
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = fmt.Errorf("%w: items are required", ErrEmptyItemList)
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQuantityInvalid = fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidQuantity)

	// Ошибка отсутствующего имени клиента.
	ErrCustomerNameRequired = fmt.Errorf("%w: customer name is required", ErrInvalidAttribute)
	// Ошибка активации клиента без адреса.
	ErrAddressRequired = fmt.Errorf("%w: address is mandatory to activate a customer", ErrInvalidAttribute)
	// Ошибка некорректного адреса.
	ErrAddressInvalid = fmt.Errorf("%w: address is invalid", ErrInvalidAttribute)
	// Ошибка отрицательного количества бонусных баллов.
	ErrRewardPointsNegative = fmt.Errorf("%w: reward points must be non-negative", ErrInvalidAttribute)
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = fmt.Errorf("%w: product name is required", ErrInvalidAttribute)
	// Ошибка, если цена товара отрицательная.
	ErrProductPriceInvalid = fmt.Errorf("%w: product price must be non-negative", ErrInvalidAttribute)
)

var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists — заказ с таким ID уже сохранён.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrCustomerNotFound возвращается, если клиент не найден в репозитории.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrCustomerAlreadyExists — клиент с таким ID уже сохранён.
	ErrCustomerAlreadyExists = errors.New("customer already exists")
	// ErrProductNotFound возвращается, если товар не найден в репозитории.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductAlreadyExists — товар с таким ID уже сохранён.
	ErrProductAlreadyExists = errors.New("product already exists")
	// ErrTotalMismatch — сохранённая сумма заказа не совпадает с суммой позиций.
	ErrTotalMismatch = errors.New("stored order total does not match items sum")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsValidationError проверяет, относится ли ошибка к доменной валидации.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingIdentifier) ||
		errors.Is(err, ErrEmptyItemList) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidAttribute)
}

// IsNotFound проверяет, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrItemNotFound)
}

// IsAlreadyExists проверяет, что ошибка означает дубликат идентификатора.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrOrderAlreadyExists) ||
		errors.Is(err, ErrCustomerAlreadyExists) ||
		errors.Is(err, ErrProductAlreadyExists)
}
