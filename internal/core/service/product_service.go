package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

type ProductService struct {
	repo   ports.ProductRepository
	logger zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, logger: logger}
}

func (s *ProductService) Create(ctx context.Context, in ports.ProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	p := &domain.Product{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	applyProductInput(p, in, now)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("product_id", p.ID.String()).Int("lot_number", p.LotNumber).Msg("product created")
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrEmptyResult
	}
	return products, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in ports.ProductInput) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	applyProductInput(p, in, p.EntryDate)
	p.UpdatedAt = now
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// applyProductInput copies in onto p. A zero EntryDate keeps fallback.
func applyProductInput(p *domain.Product, in ports.ProductInput, fallback time.Time) {
	p.LotNumber = in.LotNumber
	p.Name = in.Name
	p.Price = in.Price
	p.AvailableQuantity = in.AvailableQuantity
	p.EntryDate = fallback.UTC()
	if !in.EntryDate.IsZero() {
		p.EntryDate = in.EntryDate.UTC()
	}
}
