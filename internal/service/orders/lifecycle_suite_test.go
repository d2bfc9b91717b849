package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/service/orders"
)

// OrderLifecycleTestSuite прогоняет полный жизненный цикл заказа для каждого вида.
type OrderLifecycleTestSuite struct {
	suite.Suite
	kind orders.Kind
	f    fixture
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	s.f = newFixture(s.T(), s.kind)
}

func (s *OrderLifecycleTestSuite) request(items ...domain.LineItem) domain.Order {
	return domain.Order{CounterpartyID: 1, SellerID: 2, PaymentMethodID: 1, Items: items}
}

func (s *OrderLifecycleTestSuite) TestFullLifecycle() {
	ctx := context.Background()

	// 1. Создаём заказ с двумя позициями
	created, err := s.f.service.Create(ctx, s.request(
		domain.LineItem{ProductID: 10, Quantity: dec("2"), UnitPrice: dec("20")},
		domain.LineItem{ProductID: 12, Quantity: dec("4"), UnitPrice: dec("1.25")},
	))
	s.Require().NoError(err)
	s.Require().Equal(s.kind.Kind, created.Kind)
	s.Require().True(created.Total.Equal(dec("45")), "total=%s", created.Total)

	// 2. Меняем количество первой позиции и убираем вторую
	updated, err := s.f.service.Update(ctx, created.ID, s.request(
		domain.LineItem{ID: created.Items[0].ID, ProductID: 10, Quantity: dec("3"), UnitPrice: dec("20")},
	))
	s.Require().NoError(err)
	s.Require().Len(updated.Items, 1)
	s.Require().True(updated.Total.Equal(dec("60")))
	s.Require().Greater(updated.Version, created.Version)

	// 3. Деактивация и повторная активация
	deactivated, err := s.f.service.Deactivate(ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusInactive, deactivated.Status)

	inactive, err := s.f.service.ListPageByStatus(ctx, domain.OrderStatusInactive, 0, 10)
	s.Require().NoError(err)
	s.Require().Equal(1, inactive.Total)

	activated, err := s.f.service.Activate(ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.OrderStatusActive, activated.Status)
	s.Require().True(activated.Total.Equal(dec("60")))

	// 4. Удаление
	s.Require().NoError(s.f.service.Delete(ctx, created.ID))
	_, err = s.f.service.Get(ctx, created.ID)
	s.Require().True(domain.IsNotFound(err))
}

func TestOrderLifecycle_Sale(t *testing.T) {
	suite.Run(t, &OrderLifecycleTestSuite{kind: orders.SaleKind})
}

func TestOrderLifecycle_Purchase(t *testing.T) {
	suite.Run(t, &OrderLifecycleTestSuite{kind: orders.PurchaseKind})
}

func TestOrderLifecycle_Reservation(t *testing.T) {
	suite.Run(t, &OrderLifecycleTestSuite{kind: orders.ReservationKind})
}
