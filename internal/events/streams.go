package events

// Stream topology and persisted key names shared by all services.
const (
	WaitressOrderStream = "waitress_order_events"
	KitchenOrderStream  = "kitchen_order_events"
	KitchenDeadStream   = "kitchen_dead_events"

	OrderIDCounterKey = "event_id_counter"

	KitchenCheckpointKey  = "kitchen_last_message_id"
	WaitressCheckpointKey = "waitress_last_message_id"

	MenuCacheKey = "menu_items"
)
