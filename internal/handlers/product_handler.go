package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"inventori/internal/images"
	"inventori/internal/models"
	"inventori/internal/repositories"
	"inventori/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	resolver images.Resolver
	validate *validator.Validate
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, resolver images.Resolver, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		resolver: resolver,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// The static paths must come before the ":id" routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/add", h.HandleCreateProduct)
	productRoutes.Post("/addMultiple", h.HandleCreateProducts)
	productRoutes.Get("/search", h.HandleSearchProducts)
	productRoutes.Get("/count", h.HandleCountProducts)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Delete("/:id", h.HandleDeleteProductByID)
}

// HandleCreateProduct creates a single product from a creation request.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var request models.ProductCreationRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if !h.validateRequest(c, &request) {
		return nil
	}

	product, err := h.buildProduct(c, &request)
	if err != nil {
		return h.errorResponse(c, err, "Could not create product")
	}

	if err := h.service.SaveProduct(c.UserContext(), product); err != nil {
		h.logger.Error("failed to create product", zap.Error(err), zap.String("name", request.Name))
		return h.errorResponse(c, err, "Could not create product")
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewProductResponse(product))
}

// HandleCreateProducts creates a batch of products atomically: either
// every request in the batch is persisted or none are.
func (h *ProductHandler) HandleCreateProducts(c *fiber.Ctx) error {
	var requests []models.ProductCreationRequest
	if err := c.BodyParser(&requests); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	products := make([]*models.Product, 0, len(requests))
	for i := range requests {
		if !h.validateRequest(c, &requests[i]) {
			return nil
		}
		product, err := h.buildProduct(c, &requests[i])
		if err != nil {
			return h.errorResponse(c, err, "Could not add products")
		}
		products = append(products, product)
	}

	if err := h.service.SaveProductList(c.UserContext(), products); err != nil {
		h.logger.Error("failed to add products", zap.Error(err), zap.Int("count", len(products)))
		return h.errorResponse(c, err, "Could not add products")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Products added successfully.",
		"count":   len(products),
	})
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		h.logger.Error("failed to get all products", zap.Error(err))
		return h.errorResponse(c, err, "Could not retrieve products")
	}
	return c.JSON(models.NewProductResponseList(products))
}

// HandleSearchProducts searches products by keyword over name and
// description. An empty keyword returns every product.
func (h *ProductHandler) HandleSearchProducts(c *fiber.Ctx) error {
	keyword := c.Query("keyword")
	products, err := h.service.SearchProducts(c.UserContext(), keyword)
	if err != nil {
		h.logger.Error("failed to search products", zap.Error(err), zap.String("keyword", keyword))
		return h.errorResponse(c, err, "Could not search products")
	}
	return c.JSON(models.NewProductResponseList(products))
}

// HandleCountProducts returns the total product count.
func (h *ProductHandler) HandleCountProducts(c *fiber.Ctx) error {
	count, err := h.service.CountProducts(c.UserContext())
	if err != nil {
		h.logger.Error("failed to count products", zap.Error(err))
		return h.errorResponse(c, err, "Could not count products")
	}
	return c.JSON(count)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
			"error":   err.Error(),
		})
	}

	product, err := h.service.FindProductByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %d not found", id),
			})
		}
		h.logger.Error("failed to get product", zap.Error(err), zap.Uint("product_id", id))
		return h.errorResponse(c, err, "Could not retrieve product")
	}
	return c.JSON(models.NewProductResponse(product))
}

// HandleDeleteProductByID deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProductByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product ID",
			"error":   err.Error(),
		})
	}

	deleted, err := h.service.DeleteProduct(c.UserContext(), id)
	if err != nil {
		h.logger.Error("failed to delete product", zap.Error(err), zap.Uint("product_id", id))
		return h.errorResponse(c, err, "Could not delete product")
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %d not found", id),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// buildProduct maps a creation request to a product, resolving the image
// reference to bytes.
func (h *ProductHandler) buildProduct(c *fiber.Ctx, request *models.ProductCreationRequest) (*models.Product, error) {
	image, err := h.resolver.Resolve(c.UserContext(), request.Image)
	if err != nil {
		return nil, err
	}
	return request.ToProduct(image), nil
}

// validateRequest checks the creation request. When validation fails it
// writes the 400 response and reports false.
func (h *ProductHandler) validateRequest(c *fiber.Ctx, request *models.ProductCreationRequest) bool {
	if err := h.validate.Struct(request); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorMessages := make(map[string]string)
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
			_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  errorMessages,
			})
			return false
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
		return false
	}
	if request.Price.IsNegative() {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  map[string]string{"Price": "price must not be negative"},
		})
		return false
	}
	return true
}

// errorResponse maps an error to a transport result, preserving the
// error kind: bad input and conflicts are client faults, everything
// else is a server fault.
func (h *ProductHandler) errorResponse(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrDuplicateSKU):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidProduct),
		errors.Is(err, images.ErrImageNotFound),
		errors.Is(err, images.ErrImageFetch),
		errors.Is(err, images.ErrBadReference):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("product ID must be a positive integer")
	}
	return uint(id), nil
}
