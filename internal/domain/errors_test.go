package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "order id", err: ErrOrderIDRequired, want: true},
		{name: "customer id", err: ErrCustomerIDRequired, want: true},
		{name: "items", err: ErrItemsRequired, want: true},
		{name: "quantity", err: ErrItemQuantityInvalid, want: true},
		{name: "customer name", err: ErrCustomerNameRequired, want: true},
		{name: "wrapped", err: fmt.Errorf("place order: %w", ErrItemsRequired), want: true},
		{name: "not found", err: ErrOrderNotFound, want: false},
		{name: "item not found", err: ErrItemNotFound, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{err: ErrOrderIDRequired, kind: ErrMissingIdentifier},
		{err: ErrCustomerIDRequired, kind: ErrMissingIdentifier},
		{err: ErrProductIDRequired, kind: ErrMissingIdentifier},
		{err: ErrItemsRequired, kind: ErrEmptyItemList},
		{err: ErrItemQuantityInvalid, kind: ErrInvalidQuantity},
		{err: ErrAddressRequired, kind: ErrInvalidAttribute},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("expected %q to be of kind %q", tt.err, tt.kind)
			}
		})
	}

	if errors.Is(ErrOrderIDRequired, ErrEmptyItemList) {
		t.Error("kinds must not overlap")
	}
}

func TestIsNotFoundAndAlreadyExists(t *testing.T) {
	for _, err := range []error{ErrOrderNotFound, ErrCustomerNotFound, ErrProductNotFound, ErrItemNotFound} {
		if !IsNotFound(errors.Join(err, errors.New("context"))) {
			t.Errorf("expected %v to be not found", err)
		}
	}
	for _, err := range []error{ErrOrderAlreadyExists, ErrCustomerAlreadyExists, ErrProductAlreadyExists} {
		if !IsAlreadyExists(err) {
			t.Errorf("expected %v to be already exists", err)
		}
	}
	if IsNotFound(ErrOrderAlreadyExists) || IsAlreadyExists(ErrOrderNotFound) {
		t.Error("not found and already exists must be distinct")
	}
}
