package models

// CheckQuantityEvent asks whether enough stock exists for a product.
type CheckQuantityEvent struct {
	ProductID         uint `json:"productId"`
	RequestedQuantity int  `json:"requestedQuantity"`
}

// AvailableQuantityEvent is the answer to a CheckQuantityEvent.
type AvailableQuantityEvent struct {
	ProductID   uint `json:"productId"`
	InStock     int  `json:"inStock"`
	IsAvailable bool `json:"isAvailable"`
}
