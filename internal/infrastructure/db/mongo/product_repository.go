package mongo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.ProductRepository = (*ProductRepository)(nil)

type ProductRepository struct {
	col       *mongo.Collection
	purchases *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		col:       db.Collection(collectionProducts),
		purchases: db.Collection(collectionPurchases),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	doc, err := toProductDoc(p)
	if err != nil {
		return domain.Persistence("encode product", err)
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.Persistence("insert product", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var doc productDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ProductNotFound(id)
		}
		return nil, domain.Persistence("get product", err)
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence("decode product", err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("list products", err)
	}

	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, domain.Persistence("decode product", err)
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	doc, err := toProductDoc(p)
	if err != nil {
		return domain.Persistence("encode product", err)
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return domain.Persistence("update product", err)
	}
	if res.MatchedCount == 0 {
		return domain.ProductNotFound(p.ID)
	}
	return nil
}

// Delete refuses to remove a product referenced by any purchase.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.purchases.CountDocuments(ctx, bson.M{"items.product_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return domain.Persistence("check product usage", err)
	}
	if n > 0 {
		return domain.ErrProductInUse
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return domain.Persistence("delete product", err)
	}
	if res.DeletedCount == 0 {
		return domain.ProductNotFound(id)
	}
	return nil
}
