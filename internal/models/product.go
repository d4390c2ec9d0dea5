package models

import "github.com/shopspring/decimal"

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product row in the product table.
// The image is stored inline and never serialized into API responses.
type Product struct {
	ID              uint            `json:"productId" gorm:"column:productID;primaryKey;autoIncrement"`
	Name            string          `json:"name" gorm:"not null" validate:"required"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	SKU             *string         `json:"sku" gorm:"column:sku;uniqueIndex"`
	QuantityInStock int             `json:"quantityInStock" gorm:"default:0" validate:"gte=0"`
	Image           []byte          `json:"-"`
}

// TableName keeps the legacy table name.
func (Product) TableName() string {
	return "product"
}

// ProductCreationRequest is the inbound payload for creating a product.
// Image is a reference (local path, URL or base64: inline data), resolved
// to bytes by an images.Resolver before the product is persisted.
type ProductCreationRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     *string         `json:"description" validate:"omitempty,max=500"`
	Price           decimal.Decimal `json:"price"`
	SKU             *string         `json:"sku"`
	QuantityInStock int             `json:"quantityInStock" validate:"gte=0"`
	Image           string          `json:"image"`
}

// ToProduct copies the request fields onto a new Product. The image is
// passed in separately because reference resolution is the caller's job.
func (r *ProductCreationRequest) ToProduct(image []byte) *Product {
	return &Product{
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		SKU:             r.SKU,
		QuantityInStock: r.QuantityInStock,
		Image:           image,
	}
}

// ProductResponse is the projection of a Product exposed by the API.
// The image is intentionally omitted.
type ProductResponse struct {
	ProductID       uint            `json:"productId"`
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	Price           decimal.Decimal `json:"price"`
	SKU             *string         `json:"sku"`
	QuantityInStock int             `json:"quantityInStock"`
}

// NewProductResponse builds the response projection for one product.
func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ProductID:       p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		SKU:             p.SKU,
		QuantityInStock: p.QuantityInStock,
	}
}

// NewProductResponseList maps a slice of products to their projections.
func NewProductResponseList(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, NewProductResponse(&products[i]))
	}
	return responses
}
