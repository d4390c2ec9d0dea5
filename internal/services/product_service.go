package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"inventori/internal/models"
	"inventori/internal/repositories"
)

// ErrInvalidProduct is returned when a product violates the service-level
// invariants: non-empty name, non-negative price and quantity.
var ErrInvalidProduct = errors.New("invalid product")

// AvailabilityPublisher emits availability answers to the outbound channel.
type AvailabilityPublisher interface {
	PublishAvailableQuantity(event models.AvailableQuantityEvent) error
}

// ProductService handles business logic related to products. Every
// storage call runs under a bounded timeout so requests fail fast
// instead of hanging on a slow database.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher AvailabilityPublisher
	logger    *zap.Logger
	tracer    trace.Tracer
	timeout   time.Duration
}

// NewProductService creates a new ProductService. The publisher may be
// nil when the messaging collaborator is disabled.
func NewProductService(
	repo repositories.ProductRepository,
	publisher AvailabilityPublisher,
	logger *zap.Logger,
	tracer trace.Tracer,
	timeout time.Duration,
) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
		timeout:   timeout,
	}
}

// SaveProduct persists one product. Storage errors, including the
// duplicate-sku conflict, propagate unchanged to the caller.
func (s *ProductService) SaveProduct(ctx context.Context, product *models.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.SaveProduct")
	defer span.End()

	if err := validateProduct(product); err != nil {
		span.RecordError(err)
		return err
	}

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int64("product.id", int64(product.ID)))
	s.logger.Info("product persisted",
		zap.String("name", product.Name),
		zap.Uint("product_id", product.ID),
	)
	return nil
}

// SaveProductList persists every product or none of them.
func (s *ProductService) SaveProductList(ctx context.Context, products []*models.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.SaveProductList")
	defer span.End()

	for _, product := range products {
		if err := validateProduct(product); err != nil {
			span.RecordError(err)
			return err
		}
	}

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	if err := s.repo.CreateAll(ctx, products); err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.Info("product list persisted", zap.Int("count", len(products)))
	return nil
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetAllProducts")
	defer span.End()

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return products, nil
}

// CountProducts returns the total number of products.
func (s *ProductService) CountProducts(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CountProducts")
	defer span.End()

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	count, err := s.repo.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

// FindProductByID retrieves a single product by its ID. Absence surfaces
// as repositories.ErrProductNotFound.
func (s *ProductService) FindProductByID(ctx context.Context, id uint) (*models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.FindProductByID")
	defer span.End()

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrProductNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}
	return product, nil
}

// SearchProducts returns products whose name or description contains the
// keyword case-insensitively. An empty keyword returns all products.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.SearchProducts")
	defer span.End()
	span.SetAttributes(attribute.String("search.keyword", keyword))

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	products, err := s.repo.Search(ctx, keyword)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return products, nil
}

// DeleteProduct looks up the product and deletes it if present. It
// reports (false, nil) when the product does not exist: absence is an
// expected outcome, not a fault.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	ctx, cancel := s.boundedCtx(ctx)
	defer cancel()

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return false, nil
		}
		span.RecordError(err)
		return false, err
	}

	if err := s.repo.Delete(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			// Deleted concurrently between the lookup and the delete.
			return false, nil
		}
		span.RecordError(err)
		return false, err
	}

	s.logger.Info("product deleted", zap.Uint("product_id", id))
	return true, nil
}

// HandleCheckQuantity answers a check-quantity event by reading the
// current stock and publishing an availability event. A missing product
// is answered with inStock=0, isAvailable=false rather than dropped, so
// the requester always gets a reply.
func (s *ProductService) HandleCheckQuantity(ctx context.Context, event models.CheckQuantityEvent) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.HandleCheckQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", int64(event.ProductID)),
		attribute.Int("quantity.requested", event.RequestedQuantity),
	)

	if s.publisher == nil {
		return fmt.Errorf("availability publisher is not configured")
	}

	lookupCtx, cancel := s.boundedCtx(ctx)
	defer cancel()

	inStock := 0
	product, err := s.repo.GetByID(lookupCtx, event.ProductID)
	switch {
	case err == nil:
		inStock = product.QuantityInStock
	case errors.Is(err, repositories.ErrProductNotFound):
		s.logger.Warn("check-quantity event for unknown product",
			zap.Uint("product_id", event.ProductID),
		)
	default:
		span.RecordError(err)
		return err
	}

	answer := models.AvailableQuantityEvent{
		ProductID:   event.ProductID,
		InStock:     inStock,
		IsAvailable: inStock >= event.RequestedQuantity,
	}
	span.SetAttributes(
		attribute.Int("quantity.in_stock", answer.InStock),
		attribute.Bool("quantity.available", answer.IsAvailable),
	)

	if err := s.publisher.PublishAvailableQuantity(answer); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish availability for product %d: %w", event.ProductID, err)
	}

	s.logger.Info("availability answered",
		zap.Uint("product_id", answer.ProductID),
		zap.Int("in_stock", answer.InStock),
		zap.Bool("available", answer.IsAvailable),
	)
	return nil
}

func (s *ProductService) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func validateProduct(product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if product.QuantityInStock < 0 {
		return fmt.Errorf("%w: quantityInStock must not be negative", ErrInvalidProduct)
	}
	return nil
}
