package response

type Error struct {
	Error string `json:"error"`
}

type PlaceOrder struct {
	OrderID int64 `json:"order_id"`
}
