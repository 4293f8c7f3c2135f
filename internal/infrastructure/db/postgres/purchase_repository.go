package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo persists purchase headers and their line items.
type PurchaseRepo struct {
	q Querier
}

func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

// CreateHeader inserts the draft header with a zero total.
func (r *PurchaseRepo) CreateHeader(ctx context.Context, p *domain.Purchase) error {
	const query = `
		INSERT INTO purchases (id, client_id, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, p.ID, p.ClientID, string(p.Status), p.Total, p.CreatedAt); err != nil {
		return domain.Persistence("insert purchase", err)
	}
	return nil
}

func (r *PurchaseRepo) AddLineItem(ctx context.Context, item *domain.LineItem) error {
	const query = `
		INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, item.ID, item.PurchaseID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ProductNotFound(item.ProductID)
		}
		return domain.Persistence("insert purchase item", err)
	}
	return nil
}

// Finalize records the total and marks the header persisted.
func (r *PurchaseRepo) Finalize(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	const query = `UPDATE purchases SET total = $2, status = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, total, string(domain.StatePersisted))
	if err != nil {
		return domain.Persistence("finalize purchase", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Persistence("finalize purchase", fmt.Errorf("purchase %s matched no row", id))
	}
	return nil
}

func (r *PurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const query = `SELECT id, client_id, status, total, created_at FROM purchases WHERE id = $1`
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, domain.Persistence("get purchase", err)
	}
	return p, nil
}

// ListProducts returns the purchased products in the order they were added.
func (r *PurchaseRepo) ListProducts(ctx context.Context, purchaseID uuid.UUID) ([]domain.PurchasedProduct, error) {
	const query = `
		SELECT p.id, p.lot_number, p.name, p.price, p.available_quantity, p.entry_date, p.created_at, p.updated_at,
		       pi.quantity, pi.unit_price, pi.subtotal
		FROM purchase_items pi
		JOIN products p ON p.id = pi.product_id
		WHERE pi.purchase_id = $1
		ORDER BY pi.position`
	rows, err := r.q.Query(ctx, query, purchaseID)
	if err != nil {
		return nil, domain.Persistence("list purchase products", err)
	}
	defer rows.Close()

	out := make([]domain.PurchasedProduct, 0)
	for rows.Next() {
		var pp domain.PurchasedProduct
		p := &pp.Product
		if err := rows.Scan(
			&p.ID, &p.LotNumber, &p.Name, &p.Price, &p.AvailableQuantity, &p.EntryDate, &p.CreatedAt, &p.UpdatedAt,
			&pp.Quantity, &pp.UnitPrice, &pp.Subtotal,
		); err != nil {
			return nil, domain.Persistence("scan purchase product", err)
		}
		out = append(out, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list purchase products", err)
	}
	return out, nil
}

// List returns headers newest first.
func (r *PurchaseRepo) List(ctx context.Context, filter ports.PurchaseFilter) ([]domain.Purchase, error) {
	query := `SELECT id, client_id, status, total, created_at FROM purchases`
	var args []any
	if filter.ClientID != nil {
		query += ` WHERE client_id = $1`
		args = append(args, *filter.ClientID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Persistence("list purchases", err)
	}
	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, domain.Persistence("scan purchase", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list purchases", err)
	}
	return out, nil
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var (
		p      domain.Purchase
		status string
	)
	if err := row.Scan(&p.ID, &p.ClientID, &status, &p.Total, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.PurchaseState(status)
	return &p, nil
}
