package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if _, err := r.col.InsertOne(ctx, toUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return domain.Persistence("insert user", err)
	}
	return nil
}

func (r *UserRepository) Find(ctx context.Context, lookup domain.UserLookup) (*domain.User, error) {
	var filter bson.M
	if id, ok := lookup.ID(); ok {
		filter = bson.M{"_id": id.String()}
	} else if email, ok := lookup.Email(); ok {
		filter = bson.M{"email": email}
	} else {
		return nil, domain.ErrUserNotFound
	}

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Persistence("find user "+lookup.String(), err)
	}
	return doc.toDomain()
}
