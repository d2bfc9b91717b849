package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/bms/internal/domain"
)

// orderTables описывает раскладку таблиц одного вида заказов.
// Имена берутся только из kindTables, пользовательский ввод в SQL не попадает.
type orderTables struct {
	header       string
	items        string
	foreignKey   string
	counterparty string
}

var kindTables = map[domain.OrderKind]orderTables{
	domain.OrderKindSale:        {header: "sales", items: "sale_items", foreignKey: "sale_id", counterparty: "client_id"},
	domain.OrderKindPurchase:    {header: "purchases", items: "purchase_items", foreignKey: "purchase_id", counterparty: "supplier_id"},
	domain.OrderKindReservation: {header: "reservations", items: "reservation_items", foreignKey: "reservation_id", counterparty: "client_id"},
}

type orderRepository struct {
	store  *Store
	kind   domain.OrderKind
	tables orderTables
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository для вида kind.
func NewOrderRepository(store *Store, kind domain.OrderKind) (domain.OrderRepository, error) {
	tables, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, domain.ErrOrderKindInvalid)
	}
	return &orderRepository{store: store, kind: kind, tables: tables}, nil
}

func (r *orderRepository) Kind() domain.OrderKind {
	return r.kind
}

func (r *orderRepository) headerColumns() string {
	return fmt.Sprintf(`id, %s, seller_id, payment_method_id, ordered_at, status, total, version, created_at, updated_at`,
		r.tables.counterparty)
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stored := order.Clone()
	stored.Kind = r.kind

	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			INSERT INTO %s (%s, seller_id, payment_method_id, ordered_at, status, total, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
			RETURNING id, version
		`, r.tables.header, r.tables.counterparty),
			stored.CounterpartyID, stored.SellerID, stored.PaymentMethodID, stored.Timestamp,
			string(stored.Status), stored.Total, stored.CreatedAt, stored.UpdatedAt,
		).Scan(&stored.ID, &stored.Version)
		if err != nil {
			return r.mapWriteError("insert order", err)
		}

		for i := range stored.Items {
			id, err := r.insertItem(ctx, tx, stored.ID, i, stored.Items[i])
			if err != nil {
				return err
			}
			stored.Items[i].ID = id
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return stored, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := r.scanHeader(r.store.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, r.headerColumns(), r.tables.header), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, r.store.db, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	if err := r.store.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.tables.header), id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return exists, nil
}

// ListByStatus загружает шапки и все их позиции двумя запросами.
func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE $1::text = '' OR status = $1
		ORDER BY id
	`, r.headerColumns(), r.tables.header), string(status))
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		order, err := r.scanHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Items = []domain.LineItem{}
		index[order.ID] = len(orders)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT i.%[3]s, i.id, i.product_id, i.quantity, i.unit_price, i.subtotal
		FROM %[2]s i
		JOIN %[1]s h ON h.id = i.%[3]s
		WHERE $1::text = '' OR h.status = $1
		ORDER BY i.%[3]s, i.position, i.id
	`, r.tables.header, r.tables.items, r.tables.foreignKey), string(status))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID int64
			item    domain.LineItem
		)
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if idx, ok := index[orderID]; ok {
			orders[idx].Items = append(orders[idx].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return orders, nil
}

// Save обновляет шапку с проверкой версии и применяет разницу позиций в одной транзакции.
func (r *orderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stored := order.Clone()
	stored.Kind = r.kind

	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`
			UPDATE %s
			SET %s = $1,
			    seller_id = $2,
			    payment_method_id = $3,
			    ordered_at = $4,
			    status = $5,
			    total = $6,
			    updated_at = $7,
			    version = version + 1
			WHERE id = $8 AND version = $9
			RETURNING version, created_at
		`, r.tables.header, r.tables.counterparty),
			stored.CounterpartyID, stored.SellerID, stored.PaymentMethodID, stored.Timestamp,
			string(stored.Status), stored.Total, stored.UpdatedAt, stored.ID, order.Version,
		).Scan(&stored.Version, &stored.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			exists, existsErr := r.existsTx(ctx, tx, stored.ID)
			if existsErr != nil {
				return existsErr
			}
			if !exists {
				return domain.ErrOrderNotFound
			}
			return domain.ErrOrderVersionConflict
		}
		if err != nil {
			return r.mapWriteError("update order", err)
		}

		return r.syncItems(ctx, tx, &stored)
	})
	if err != nil {
		return domain.Order{}, err
	}

	return stored, nil
}

// syncItems удаляет позиции, которых нет в заказе, обновляет оставшиеся и вставляет новые.
func (r *orderRepository) syncItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	current, err := r.loadItems(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	persisted := make(map[int64]struct{}, len(current))
	for _, item := range current {
		persisted[item.ID] = struct{}{}
	}

	keep := make(map[int64]struct{}, len(order.Items))
	for _, item := range order.Items {
		if item.IsNew() {
			continue
		}
		if _, ok := persisted[item.ID]; !ok {
			return fmt.Errorf("item id=%d: %w", item.ID, domain.ErrItemNotInOrder)
		}
		keep[item.ID] = struct{}{}
	}

	for _, item := range current {
		if _, ok := keep[item.ID]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.items), item.ID); err != nil {
			return fmt.Errorf("delete order item %d: %w", item.ID, err)
		}
	}

	for i := range order.Items {
		item := order.Items[i]
		if item.IsNew() {
			id, err := r.insertItem(ctx, tx, order.ID, i, item)
			if err != nil {
				return err
			}
			order.Items[i].ID = id
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s
			SET product_id = $1, quantity = $2, unit_price = $3, subtotal = $4, position = $5
			WHERE id = $6
		`, r.tables.items), item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal, i, item.ID); err != nil {
			return r.mapWriteError("update order item", err)
		}
	}

	return nil
}

// Delete удаляет позиции явно, не полагаясь только на ON DELETE CASCADE.
func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, r.tables.items, r.tables.foreignKey), id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.header), id)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return domain.ErrOrderNotFound
		}
		return nil
	})
}

func (r *orderRepository) insertItem(ctx context.Context, tx *sql.Tx, orderID int64, position int, item domain.LineItem) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s, product_id, quantity, unit_price, subtotal, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, r.tables.items, r.tables.foreignKey),
		orderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal, position,
	).Scan(&id)
	if err != nil {
		return 0, r.mapWriteError("insert order item", err)
	}
	return id, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *orderRepository) loadItems(ctx context.Context, q queryer, orderID int64) ([]domain.LineItem, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, product_id, quantity, unit_price, subtotal
		FROM %s
		WHERE %s = $1
		ORDER BY position, id
	`, r.tables.items, r.tables.foreignKey), orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItem, 0)
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanHeader(row rowScanner) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	if err := row.Scan(
		&order.ID, &order.CounterpartyID, &order.SellerID, &order.PaymentMethodID, &order.Timestamp,
		&status, &order.Total, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Kind = r.kind
	order.Status = domain.OrderStatus(status)
	order.Timestamp = order.Timestamp.UTC()
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

func (r *orderRepository) existsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.tables.header), id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return exists, nil
}

// mapWriteError переводит нарушения ограничений в доменные ошибки.
func (r *orderRepository) mapWriteError(op string, err error) error {
	switch {
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrValidation, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrOrderVersionConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
