package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

type catalogStore struct {
	db *sql.DB
}

// NewCatalogStore создаёт справочник, читающий товары и участников из PostgreSQL.
// Справочники ведутся вне движка заказов, поэтому хранилище только читает.
func NewCatalogStore(store *Store) domain.CatalogStore {
	return &catalogStore{db: store.DB()}
}

func (c *catalogStore) FindProduct(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		p          domain.Product
		categoryID sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, code, name, description, category_id, unit_price, sale_unit, stock, active
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Name, &p.Description, &categoryID, &p.UnitPrice, &p.SaleUnit, &p.Stock, &p.Active)
	if err != nil {
		return domain.Product{}, notFoundOr(err, domain.ErrProductNotFound, "select product")
	}
	p.CategoryID = categoryID.Int64
	return p, nil
}

func (c *catalogStore) FindPerson(ctx context.Context, id int64) (domain.Person, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		p    domain.Person
		role string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, role, document_type, document_number, names, last_name, email, phone, active
		FROM persons
		WHERE id = $1
	`, id).Scan(&p.ID, &role, &p.DocumentType, &p.DocumentNumber, &p.Names, &p.LastName, &p.Email, &p.Phone, &p.Active)
	if err != nil {
		return domain.Person{}, notFoundOr(err, domain.ErrPersonNotFound, "select person")
	}
	p.Role = domain.PartyRole(role)
	return p, nil
}

func (c *catalogStore) FindSupplier(ctx context.Context, id int64) (domain.Supplier, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var s domain.Supplier
	err := c.db.QueryRowContext(ctx, `
		SELECT id, ruc, company_name, names, last_name, email, phone, active
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&s.ID, &s.RUC, &s.CompanyName, &s.Names, &s.LastName, &s.Email, &s.Phone, &s.Active)
	if err != nil {
		return domain.Supplier{}, notFoundOr(err, domain.ErrSupplierNotFound, "select supplier")
	}
	return s, nil
}

func (c *catalogStore) FindPaymentMethod(ctx context.Context, id int64) (domain.PaymentMethod, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var pm domain.PaymentMethod
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, active FROM payment_methods WHERE id = $1
	`, id).Scan(&pm.ID, &pm.Name, &pm.Active)
	if err != nil {
		return domain.PaymentMethod{}, notFoundOr(err, domain.ErrPaymentMethodNotFound, "select payment method")
	}
	return pm, nil
}

func notFoundOr(err, notFound error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ domain.CatalogStore = (*catalogStore)(nil)
