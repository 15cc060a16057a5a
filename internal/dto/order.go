package dto

// KitchenOrder is a terminal order outcome surfaced to the end client.
type KitchenOrder struct {
	OrderID  int64  `json:"order_id"`
	Status   string `json:"status"` // Ready | Canceled
	Comments string `json:"comments"`
}
