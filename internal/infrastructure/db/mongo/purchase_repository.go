package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.PurchaseRepository = (*PurchaseRepository)(nil)

type PurchaseRepository struct {
	col      *mongo.Collection
	products *mongo.Collection
}

func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{
		col:      db.Collection(collectionPurchases),
		products: db.Collection(collectionProducts),
	}
}

func (r *PurchaseRepository) CreateHeader(ctx context.Context, p *domain.Purchase) error {
	doc, err := toPurchaseDoc(p)
	if err != nil {
		return domain.Persistence("encode purchase", err)
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return domain.Persistence("insert purchase", err)
	}
	return nil
}

func (r *PurchaseRepository) AddLineItem(ctx context.Context, item *domain.LineItem) error {
	doc, err := toLineItemDoc(item)
	if err != nil {
		return domain.Persistence("encode purchase item", err)
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": item.PurchaseID.String()},
		bson.M{"$push": bson.M{"items": doc}},
	)
	if err != nil {
		return domain.Persistence("insert purchase item", err)
	}
	if res.MatchedCount == 0 {
		return domain.Persistence("insert purchase item", fmt.Errorf("purchase %s matched no document", item.PurchaseID))
	}
	return nil
}

func (r *PurchaseRepository) Finalize(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	t, err := toDecimal128(total)
	if err != nil {
		return domain.Persistence("encode purchase total", err)
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"total": t, "status": string(domain.StatePersisted)}},
	)
	if err != nil {
		return domain.Persistence("finalize purchase", err)
	}
	if res.MatchedCount == 0 {
		return domain.Persistence("finalize purchase", fmt.Errorf("purchase %s matched no document", id))
	}
	return nil
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	doc, err := r.findDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, domain.Persistence("decode purchase", err)
	}
	return p, nil
}

// ListProducts joins the embedded items with the products collection,
// keeping the order the items were added in.
func (r *PurchaseRepository) ListProducts(ctx context.Context, purchaseID uuid.UUID) ([]domain.PurchasedProduct, error) {
	doc, err := r.findDoc(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if len(doc.Items) == 0 {
		return []domain.PurchasedProduct{}, nil
	}

	ids := make([]string, 0, len(doc.Items))
	for _, it := range doc.Items {
		ids = append(ids, it.ProductID)
	}
	cur, err := r.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, domain.Persistence("list purchase products", err)
	}
	var productDocs []productDoc
	if err := cur.All(ctx, &productDocs); err != nil {
		return nil, domain.Persistence("list purchase products", err)
	}
	byID := make(map[string]productDoc, len(productDocs))
	for _, pd := range productDocs {
		byID[pd.ID] = pd
	}

	out := make([]domain.PurchasedProduct, 0, len(doc.Items))
	for _, it := range doc.Items {
		pd, ok := byID[it.ProductID]
		if !ok {
			return nil, domain.Persistence("list purchase products", fmt.Errorf("product %s missing", it.ProductID))
		}
		product, err := pd.toDomain()
		if err != nil {
			return nil, domain.Persistence("decode product", err)
		}
		unit, err := fromDecimal128(it.UnitPrice)
		if err != nil {
			return nil, domain.Persistence("decode purchase item", err)
		}
		subtotal, err := fromDecimal128(it.Subtotal)
		if err != nil {
			return nil, domain.Persistence("decode purchase item", err)
		}
		out = append(out, domain.PurchasedProduct{
			Product:   *product,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			Subtotal:  subtotal,
		})
	}
	return out, nil
}

func (r *PurchaseRepository) List(ctx context.Context, filter ports.PurchaseFilter) ([]domain.Purchase, error) {
	q := bson.M{}
	if filter.ClientID != nil {
		q["client_id"] = filter.ClientID.String()
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"items": 0})

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, domain.Persistence("list purchases", err)
	}
	var docs []purchaseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Persistence("list purchases", err)
	}

	out := make([]domain.Purchase, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, domain.Persistence("decode purchase", err)
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *PurchaseRepository) findDoc(ctx context.Context, id uuid.UUID) (*purchaseDoc, error) {
	var doc purchaseDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, domain.Persistence("get purchase", err)
	}
	return &doc, nil
}
