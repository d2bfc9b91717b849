package domain

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок. Конкретные ошибки ниже оборачивают один из них,
// чтобы внешний слой мог сопоставить их с кодами 404/409/422.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("product %w", ErrNotFound)
	ErrPersonNotFound        = fmt.Errorf("person %w", ErrNotFound)
	ErrSupplierNotFound      = fmt.Errorf("supplier %w", ErrNotFound)
	ErrPaymentMethodNotFound = fmt.Errorf("payment method %w", ErrNotFound)

	ErrOrderAlreadyActive   = fmt.Errorf("order is already active: %w", ErrConflict)
	ErrOrderAlreadyInactive = fmt.Errorf("order is already inactive: %w", ErrConflict)
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = fmt.Errorf("order version %w", ErrConflict)

	// ErrItemNotInOrder возвращается, если позиция с таким ID не принадлежит обновляемому заказу.
	ErrItemNotInOrder        = fmt.Errorf("line item does not belong to order: %w", ErrValidation)
	ErrItemDuplicateID       = fmt.Errorf("line item id is duplicated: %w", ErrValidation)
	ErrItemQtyInvalid        = fmt.Errorf("item quantity must be greater than zero: %w", ErrValidation)
	ErrItemPriceInvalid      = fmt.Errorf("item unit price must be non-negative: %w", ErrValidation)
	ErrItemProductRequired   = fmt.Errorf("item product_id is required: %w", ErrValidation)
	ErrCounterpartyRequired  = fmt.Errorf("counterparty_id is required: %w", ErrValidation)
	ErrSellerRequired        = fmt.Errorf("seller_id is required: %w", ErrValidation)
	ErrPaymentMethodRequired = fmt.Errorf("payment_method_id is required: %w", ErrValidation)
	ErrPartyRoleMismatch     = fmt.Errorf("party role does not match order side: %w", ErrValidation)
	ErrOrderStatusInvalid    = fmt.Errorf("order status must be active or inactive: %w", ErrValidation)
	ErrOrderKindInvalid      = fmt.Errorf("order kind is not supported: %w", ErrValidation)
	ErrPageInvalid           = fmt.Errorf("page must be >= 0 and size must be > 0: %w", ErrValidation)
	ErrSubtotalMismatch      = fmt.Errorf("item subtotal does not match quantity * unit price: %w", ErrValidation)
	ErrTotalMismatch         = fmt.Errorf("order total does not match items sum: %w", ErrValidation)

	// ErrOutboxPublish не оборачивает базовые виды: до вызывающего сервиса он не доходит.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к виду NotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict проверяет, относится ли ошибка к виду Conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation проверяет, относится ли ошибка к виду Validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
