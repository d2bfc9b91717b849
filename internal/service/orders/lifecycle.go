package orders

import (
	"fmt"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// Transition описывает переход жизненного цикла заказа.
type Transition string

const (
	// TransitionActivate переводит inactive → active.
	TransitionActivate Transition = "activate"
	// TransitionDeactivate переводит active → inactive.
	TransitionDeactivate Transition = "deactivate"
)

// Target возвращает статус, в который ведёт переход.
func (t Transition) Target() domain.OrderStatus {
	if t == TransitionActivate {
		return domain.OrderStatusActive
	}
	return domain.OrderStatusInactive
}

// ApplyTransition меняет статус заказа. Переход в текущий статус считается конфликтом,
// заказ при этом не изменяется. Суммы и позиции не пересчитываются.
func ApplyTransition(order *domain.Order, t Transition) error {
	switch t {
	case TransitionActivate:
		if order.Status == domain.OrderStatusActive {
			return domain.ErrOrderAlreadyActive
		}
	case TransitionDeactivate:
		if order.Status == domain.OrderStatusInactive {
			return domain.ErrOrderAlreadyInactive
		}
	default:
		return fmt.Errorf("unknown transition %q: %w", t, domain.ErrValidation)
	}

	order.Status = t.Target()
	return nil
}

func (t Transition) eventType() domain.OrderEventType {
	if t == TransitionActivate {
		return domain.OrderEventActivated
	}
	return domain.OrderEventDeactivated
}
