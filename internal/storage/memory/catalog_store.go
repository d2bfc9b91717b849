package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// CatalogStore держит справочники каталога в памяти; используется memory-драйвером и тестами.
// Upsert-методы используются для наполнения в тестах и при локальном запуске.
type CatalogStore struct {
	mu             sync.RWMutex
	products       map[int64]domain.Product
	persons        map[int64]domain.Person
	suppliers      map[int64]domain.Supplier
	paymentMethods map[int64]domain.PaymentMethod
}

// NewCatalogStore создаёт пустой справочник.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		products:       make(map[int64]domain.Product),
		persons:        make(map[int64]domain.Person),
		suppliers:      make(map[int64]domain.Supplier),
		paymentMethods: make(map[int64]domain.PaymentMethod),
	}
}

func (s *CatalogStore) UpsertProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *CatalogStore) UpsertPerson(p domain.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
}

func (s *CatalogStore) UpsertSupplier(sup domain.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sup.ID] = sup
}

func (s *CatalogStore) UpsertPaymentMethod(pm domain.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethods[pm.ID] = pm
}

// RemoveProduct удаляет товар из справочника.
func (s *CatalogStore) RemoveProduct(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *CatalogStore) FindProduct(_ context.Context, id int64) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *CatalogStore) FindPerson(_ context.Context, id int64) (domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[id]
	if !ok {
		return domain.Person{}, domain.ErrPersonNotFound
	}
	return p, nil
}

func (s *CatalogStore) FindSupplier(_ context.Context, id int64) (domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return domain.Supplier{}, domain.ErrSupplierNotFound
	}
	return sup, nil
}

func (s *CatalogStore) FindPaymentMethod(_ context.Context, id int64) (domain.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pm, ok := s.paymentMethods[id]
	if !ok {
		return domain.PaymentMethod{}, domain.ErrPaymentMethodNotFound
	}
	return pm, nil
}

var _ domain.CatalogStore = (*CatalogStore)(nil)
