package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, lot_number, name, price, available_quantity, entry_date, created_at, updated_at`

// ProductRepo persists the catalog. Works on a pool or a tx.
type ProductRepo struct {
	q Querier
}

func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	const query = `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.LotNumber, p.Name, p.Price, p.AvailableQuantity, p.EntryDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return domain.Persistence("insert product", err)
	}
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ProductNotFound(id)
		}
		return nil, domain.Persistence("get product", err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Persistence("scan product", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list products", err)
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	const query = `
		UPDATE products
		SET lot_number = $2, name = $3, price = $4, available_quantity = $5, entry_date = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, p.ID, p.LotNumber, p.Name, p.Price, p.AvailableQuantity, p.EntryDate, p.UpdatedAt)
	if err != nil {
		return domain.Persistence("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ProductNotFound(p.ID)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductInUse
		}
		return domain.Persistence("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ProductNotFound(id)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.LotNumber, &p.Name, &p.Price, &p.AvailableQuantity, &p.EntryDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
