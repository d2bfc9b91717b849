package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/metrics"
)

const (
	opCreate     = "create"
	opGet        = "get"
	opList       = "list"
	opListPage   = "list_page"
	opUpdate     = "update"
	opActivate   = "activate"
	opDeactivate = "deactivate"
	opDelete     = "delete"
)

// Service реализует операции над агрегатом заказа одного вида.
// Состояния между вызовами не хранит: каждый вызов читает заказ из репозитория заново.
type Service struct {
	kind    Kind
	repo    domain.OrderRepository
	catalog domain.CatalogStore
	outbox  domain.OutboxRepository
	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает запись доменных событий в outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics задаёт Prometheus-метрики.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService конструирует сервис для вида kind.
func NewService(kind Kind, repo domain.OrderRepository, catalog domain.CatalogStore, options ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("order repository is required")
	}
	if catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if kind.Pricing == nil {
		return nil, fmt.Errorf("pricing policy is required for %s", kind.Kind)
	}
	if repo.Kind() != kind.Kind {
		return nil, fmt.Errorf("repository serves %s orders, service expects %s", repo.Kind(), kind.Kind)
	}

	s := &Service{
		kind:    kind,
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "orders")
	}
	s.logger = s.logger.WithField("kind", string(kind.Kind))

	return s, nil
}

// Kind возвращает описание вида заказов сервиса.
func (s *Service) Kind() Kind {
	return s.kind
}

// Create сохраняет новый заказ в статусе active с пересчитанными суммами.
// Идентификаторы позиций из запроса игнорируются: все позиции нового заказа новые.
func (s *Service) Create(ctx context.Context, order domain.Order) (result domain.Order, err error) {
	defer s.observe(opCreate, time.Now(), &err)

	parties, err := s.resolveParties(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.LineItem, len(order.Items))
	for idx, item := range order.Items {
		item.ID = 0
		items[idx] = item
	}
	priced, total, err := s.priceItems(ctx, items)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.now().UTC()
	order.ID = 0
	order.Kind = s.kind.Kind
	order.Status = domain.OrderStatusActive
	order.Items = priced
	order.Total = total
	order.Version = 0
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Timestamp.IsZero() {
		order.Timestamp = now
	}

	stored, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create %s: %w", s.kind.Kind, err)
	}
	parties.apply(&stored)

	s.enqueueEvent(domain.OrderEventCreated, stored)
	s.logger.WithFields(log.Fields{
		"operation": opCreate,
		"order_id":  stored.ID,
		"items":     len(stored.Items),
		"total":     stored.Total.String(),
	}).Info("order created")

	return stored, nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(ctx context.Context, id int64) (result domain.Order, err error) {
	defer s.observe(opGet, time.Now(), &err)

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("get %s %d: %w", s.kind.Kind, id, err)
	}
	s.decorate(ctx, &order)
	return order, nil
}

// ListAll возвращает все заказы вида, начиная с самых новых.
func (s *Service) ListAll(ctx context.Context) (result []domain.Order, err error) {
	defer s.observe(opList, time.Now(), &err)

	orders, err := s.loadSorted(ctx, "")
	if err != nil {
		return nil, err
	}
	s.decorateAll(ctx, orders)
	return orders, nil
}

// ListByStatus возвращает заказы с указанным статусом, отсортированные по ID по убыванию.
func (s *Service) ListByStatus(ctx context.Context, status domain.OrderStatus) (result []domain.Order, err error) {
	defer s.observe(opList, time.Now(), &err)

	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, domain.ErrOrderStatusInvalid)
	}
	orders, err := s.loadSorted(ctx, status)
	if err != nil {
		return nil, err
	}
	s.decorateAll(ctx, orders)
	return orders, nil
}

// ListPageByStatus возвращает страницу заказов со статусом status.
// Страницы нумеруются с нуля: пропускается page*size записей полной отфильтрованной выборки.
func (s *Service) ListPageByStatus(ctx context.Context, status domain.OrderStatus, page, size int) (result domain.Page[domain.Order], err error) {
	defer s.observe(opListPage, time.Now(), &err)

	if !status.Valid() {
		return domain.Page[domain.Order]{}, fmt.Errorf("status %q: %w", status, domain.ErrOrderStatusInvalid)
	}
	if page < 0 || size <= 0 {
		return domain.Page[domain.Order]{}, fmt.Errorf("page=%d size=%d: %w", page, size, domain.ErrPageInvalid)
	}

	orders, err := s.loadSorted(ctx, status)
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}

	start := len(orders)
	if page <= len(orders)/size {
		start = page * size
	}
	end := min(start+size, len(orders))

	items := make([]domain.Order, end-start)
	copy(items, orders[start:end])
	s.decorateAll(ctx, items)

	return domain.Page[domain.Order]{
		Items: items,
		Page:  page,
		Size:  size,
		Total: len(orders),
	}, nil
}

// Update перезаписывает ссылки шапки, сливает позиции с сохранёнными и пересчитывает суммы.
// Если отметка времени не передана, ставится текущее время. Ничего не сохраняется,
// пока все позиции не прошли проверку и не получили цену.
func (s *Service) Update(ctx context.Context, id int64, submitted domain.Order) (result domain.Order, err error) {
	defer s.observe(opUpdate, time.Now(), &err)

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update %s %d: %w", s.kind.Kind, id, err)
	}

	parties, err := s.resolveParties(ctx, submitted)
	if err != nil {
		return domain.Order{}, err
	}

	merged, stats, err := Reconcile(current.Items, submitted.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update %s %d: %w", s.kind.Kind, id, err)
	}
	priced, total, err := s.priceItems(ctx, merged)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.now().UTC()
	working := current.Clone()
	working.CounterpartyID = submitted.CounterpartyID
	working.SellerID = submitted.SellerID
	working.PaymentMethodID = submitted.PaymentMethodID
	working.Timestamp = submitted.Timestamp
	if working.Timestamp.IsZero() {
		working.Timestamp = now
	}
	working.Items = priced
	working.Total = total
	working.UpdatedAt = now

	saved, err := s.repo.Save(ctx, working)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update %s %d: %w", s.kind.Kind, id, err)
	}
	parties.apply(&saved)

	s.metrics.RecordItemChanges(string(s.kind.Kind), stats.Added, stats.Updated, stats.Removed)
	s.enqueueEvent(domain.OrderEventUpdated, saved)
	s.logger.WithFields(log.Fields{
		"operation": opUpdate,
		"order_id":  saved.ID,
		"added":     stats.Added,
		"updated":   stats.Updated,
		"removed":   stats.Removed,
		"total":     saved.Total.String(),
	}).Info("order updated")

	return saved, nil
}

// Activate переводит заказ в active; для уже активного заказа возвращает конфликт.
func (s *Service) Activate(ctx context.Context, id int64) (result domain.Order, err error) {
	defer s.observe(opActivate, time.Now(), &err)
	return s.transition(ctx, id, TransitionActivate)
}

// Deactivate переводит заказ в inactive; для уже неактивного заказа возвращает конфликт.
func (s *Service) Deactivate(ctx context.Context, id int64) (result domain.Order, err error) {
	defer s.observe(opDeactivate, time.Now(), &err)
	return s.transition(ctx, id, TransitionDeactivate)
}

// Delete безусловно удаляет заказ вместе с позициями, минуя жизненный цикл.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer s.observe(opDelete, time.Now(), &err)

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", s.kind.Kind, id, err)
	}
	if !exists {
		return fmt.Errorf("delete %s %d: %w", s.kind.Kind, id, domain.ErrOrderNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", s.kind.Kind, id, err)
	}

	s.enqueueEvent(domain.OrderEventDeleted, domain.Order{ID: id, Kind: s.kind.Kind})
	s.logger.WithFields(log.Fields{
		"operation": opDelete,
		"order_id":  id,
	}).Info("order deleted")

	return nil
}

func (s *Service) transition(ctx context.Context, id int64, t Transition) (domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s %s %d: %w", t, s.kind.Kind, id, err)
	}
	if err := ApplyTransition(&order, t); err != nil {
		return domain.Order{}, fmt.Errorf("%s %s %d: %w", t, s.kind.Kind, id, err)
	}
	order.UpdatedAt = s.now().UTC()

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s %s %d: %w", t, s.kind.Kind, id, err)
	}
	s.decorate(ctx, &saved)

	s.enqueueEvent(t.eventType(), saved)
	s.logger.WithFields(log.Fields{
		"operation": string(t),
		"order_id":  saved.ID,
		"status":    saved.Status,
	}).Info("order status changed")

	return saved, nil
}

// priceItems назначает цену каждой позиции по политике вида и считает суммы.
// Товар каждой позиции обязан существовать в каталоге.
func (s *Service) priceItems(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, decimal.Decimal, error) {
	resolved := make([]domain.LineItem, len(items))
	for idx, item := range items {
		if item.ProductID <= 0 {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", idx, domain.ErrItemProductRequired)
		}
		product, err := s.catalog.FindProduct(ctx, item.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item[%d] product %d: %w", idx, item.ProductID, err)
		}
		item.UnitPrice = s.kind.Pricing.UnitPrice(item, product)
		resolved[idx] = item
	}

	return CalculateTotals(resolved)
}

type parties struct {
	counterpartyName string
	sellerName       string
}

func (p parties) apply(order *domain.Order) {
	order.CounterpartyName = p.counterpartyName
	order.SellerName = p.sellerName
}

// resolveParties проверяет ссылки шапки через каталог и возвращает отображаемые имена.
func (s *Service) resolveParties(ctx context.Context, order domain.Order) (parties, error) {
	var errs []error
	if order.CounterpartyID <= 0 {
		errs = append(errs, domain.ErrCounterpartyRequired)
	}
	if order.SellerID <= 0 {
		errs = append(errs, domain.ErrSellerRequired)
	}
	if order.PaymentMethodID <= 0 {
		errs = append(errs, domain.ErrPaymentMethodRequired)
	}
	if len(errs) > 0 {
		return parties{}, errors.Join(errs...)
	}

	counterpartyName, err := s.counterpartyName(ctx, order.CounterpartyID)
	if err != nil {
		return parties{}, fmt.Errorf("%s %d: %w", s.kind.CounterpartyRole, order.CounterpartyID, err)
	}
	seller, err := s.personInRole(ctx, order.SellerID, domain.PartyRoleSeller)
	if err != nil {
		return parties{}, fmt.Errorf("seller %d: %w", order.SellerID, err)
	}
	if _, err := s.catalog.FindPaymentMethod(ctx, order.PaymentMethodID); err != nil {
		return parties{}, fmt.Errorf("payment method %d: %w", order.PaymentMethodID, err)
	}

	return parties{counterpartyName: counterpartyName, sellerName: seller.FullName()}, nil
}

func (s *Service) counterpartyName(ctx context.Context, id int64) (string, error) {
	if s.kind.CounterpartyRole == domain.PartyRoleSupplier {
		supplier, err := s.catalog.FindSupplier(ctx, id)
		if err != nil {
			return "", err
		}
		return supplier.FullName(), nil
	}

	person, err := s.personInRole(ctx, id, s.kind.CounterpartyRole)
	if err != nil {
		return "", err
	}
	return person.FullName(), nil
}

// personInRole не даёт записать продавца клиентом и наоборот.
func (s *Service) personInRole(ctx context.Context, id int64, role domain.PartyRole) (domain.Person, error) {
	person, err := s.catalog.FindPerson(ctx, id)
	if err != nil {
		return domain.Person{}, err
	}
	if person.Role != role {
		return domain.Person{}, fmt.Errorf("person %d is %s, want %s: %w", id, person.Role, role, domain.ErrPartyRoleMismatch)
	}
	return person, nil
}

// decorate заполняет отображаемые имена; недоступный справочник не ломает чтение.
func (s *Service) decorate(ctx context.Context, order *domain.Order) {
	if name, err := s.counterpartyName(ctx, order.CounterpartyID); err == nil {
		order.CounterpartyName = name
	} else {
		s.logger.WithError(err).WithField("order_id", order.ID).Debug("failed to resolve counterparty name")
	}

	if seller, err := s.personInRole(ctx, order.SellerID, domain.PartyRoleSeller); err == nil {
		order.SellerName = seller.FullName()
	} else {
		s.logger.WithError(err).WithField("order_id", order.ID).Debug("failed to resolve seller name")
	}
}

func (s *Service) decorateAll(ctx context.Context, orders []domain.Order) {
	for i := range orders {
		s.decorate(ctx, &orders[i])
	}
}

func (s *Service) loadSorted(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Kind, err)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (s *Service) observe(operation string, started time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	result := resultLabel(err)
	s.metrics.RecordOperation(string(s.kind.Kind), operation, result, time.Since(started))

	if err == nil {
		return
	}
	entry := s.logger.WithError(err).WithField("operation", operation)
	if result == metrics.ResultError {
		entry.Error("order operation failed")
		return
	}
	entry.Warn("order operation rejected")
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsConflict(err):
		return metrics.ResultConflict
	case domain.IsValidation(err):
		return metrics.ResultValidation
	default:
		return metrics.ResultError
	}
}
