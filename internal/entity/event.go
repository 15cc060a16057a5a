package entity

// Event type tags as persisted in the event_type stream field.
const (
	TypeOrderPlaced   = "OrderPlaced"
	TypeOrderCanceled = "OrderCanceled"
	TypeOrderReady    = "OrderReady"
	TypeDeadEvent     = "DeadEvent"
)

// Event is the closed set of domain events flowing through the order streams.
// An event is created once at its triggering action and never mutated; the
// underlying log is append-only.
type Event interface {
	EventType() string
	Order() (orderID int64, tableNo int)
	Comment() string
}

type baseEvent struct {
	OrderID  int64  `json:"order_id"`
	TableNo  int    `json:"table_no"`
	Comments string `json:"comments"`
}

func (e baseEvent) Order() (int64, int) {
	return e.OrderID, e.TableNo
}

func (e baseEvent) Comment() string {
	return e.Comments
}

// OrderPlaced is appended by the waitress service when a table places an
// order. Items is an ordered sequence of recipe-name -> quantity mappings.
type OrderPlaced struct {
	baseEvent
	Items []map[string]int `json:"items"`
}

func NewOrderPlaced(orderID int64, tableNo int, items []map[string]int, comments string) *OrderPlaced {
	return &OrderPlaced{
		baseEvent: baseEvent{OrderID: orderID, TableNo: tableNo, Comments: comments},
		Items:     items,
	}
}

func (e *OrderPlaced) EventType() string { return TypeOrderPlaced }

type OrderCanceled struct {
	baseEvent
}

func NewOrderCanceled(orderID int64, tableNo int, comments string) *OrderCanceled {
	return &OrderCanceled{baseEvent{OrderID: orderID, TableNo: tableNo, Comments: comments}}
}

func (e *OrderCanceled) EventType() string { return TypeOrderCanceled }

type OrderReady struct {
	baseEvent
}

func NewOrderReady(orderID int64, tableNo int, comments string) *OrderReady {
	return &OrderReady{baseEvent{OrderID: orderID, TableNo: tableNo, Comments: comments}}
}

func (e *OrderReady) EventType() string { return TypeOrderReady }

// DeadEvent carries a message that exceeded its retry budget to the
// dead-letter stream, preserving the original undecoded payload.
type DeadEvent struct {
	baseEvent
	MessageID       string `json:"message_id"`
	OriginalMessage string `json:"original_message"`
	Error           string `json:"error"`
}

func NewDeadEvent(orderID int64, tableNo int, comments, messageID, originalMessage, errText string) *DeadEvent {
	return &DeadEvent{
		baseEvent:       baseEvent{OrderID: orderID, TableNo: tableNo, Comments: comments},
		MessageID:       messageID,
		OriginalMessage: originalMessage,
		Error:           errText,
	}
}

func (e *DeadEvent) EventType() string { return TypeDeadEvent }
