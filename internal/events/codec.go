// Package events maps domain events to and from the flat string-keyed record
// format of the event log. List- and mapping-valued fields are embedded as
// JSON text inside one string field; absent values encode as empty strings.
package events

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/kitchen-stream/internal/entity"
	"github.com/andreyxaxa/kitchen-stream/pkg/types/errs"
)

// Field names of the stream record format.
const (
	FieldEventType       = "event_type"
	FieldOrderID         = "order_id"
	FieldTableNo         = "table_no"
	FieldComments        = "comments"
	FieldItems           = "items"
	FieldMessageID       = "message_id"
	FieldOriginalMessage = "original_message"
	FieldError           = "error"
)

// Encode serializes an event into stream record fields.
func Encode(e entity.Event) (map[string]string, error) {
	orderID, tableNo := e.Order()

	fields := map[string]string{
		FieldEventType: e.EventType(),
		FieldOrderID:   strconv.FormatInt(orderID, 10),
		FieldTableNo:   strconv.Itoa(tableNo),
	}

	switch ev := e.(type) {
	case *entity.OrderPlaced:
		items, err := json.Marshal(ev.Items)
		if err != nil {
			return nil, fmt.Errorf("events - Encode - json.Marshal: %w", err)
		}
		fields[FieldItems] = string(items)
		fields[FieldComments] = ev.Comments
	case *entity.OrderCanceled:
		fields[FieldComments] = ev.Comments
	case *entity.OrderReady:
		fields[FieldComments] = ev.Comments
	case *entity.DeadEvent:
		fields[FieldComments] = ev.Comments
		fields[FieldMessageID] = ev.MessageID
		fields[FieldOriginalMessage] = ev.OriginalMessage
		fields[FieldError] = ev.Error
	default:
		return nil, fmt.Errorf("events - Encode - %q: %w", e.EventType(), errs.ErrUnknownEvent)
	}

	return fields, nil
}

// Decode reconstructs an event from stream record fields. A missing required
// field or unparseable embedded JSON fails with ErrMalformedRecord; an
// unrecognized event_type tag fails with ErrUnknownEvent.
func Decode(fields map[string]string) (entity.Event, error) {
	tag, ok := fields[FieldEventType]
	if !ok {
		return nil, fmt.Errorf("events - Decode - missing %q: %w", FieldEventType, errs.ErrMalformedRecord)
	}

	orderID, err := requiredInt64(fields, FieldOrderID)
	if err != nil {
		return nil, err
	}

	tableNo, err := requiredInt(fields, FieldTableNo)
	if err != nil {
		return nil, err
	}

	comments := fields[FieldComments]

	switch tag {
	case entity.TypeOrderPlaced:
		raw, ok := fields[FieldItems]
		if !ok {
			return nil, fmt.Errorf("events - Decode - missing %q: %w", FieldItems, errs.ErrMalformedRecord)
		}

		var items []map[string]int
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("events - Decode - json.Unmarshal %q: %w", FieldItems, errs.ErrMalformedRecord)
		}

		return entity.NewOrderPlaced(orderID, tableNo, items, comments), nil
	case entity.TypeOrderCanceled:
		return entity.NewOrderCanceled(orderID, tableNo, comments), nil
	case entity.TypeOrderReady:
		return entity.NewOrderReady(orderID, tableNo, comments), nil
	case entity.TypeDeadEvent:
		return entity.NewDeadEvent(
			orderID,
			tableNo,
			comments,
			fields[FieldMessageID],
			fields[FieldOriginalMessage],
			fields[FieldError],
		), nil
	default:
		return nil, fmt.Errorf("events - Decode - %q: %w", tag, errs.ErrUnknownEvent)
	}
}

func requiredInt64(fields map[string]string, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("events - Decode - missing %q: %w", name, errs.ErrMalformedRecord)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("events - Decode - invalid %q: %w", name, errs.ErrMalformedRecord)
	}

	return v, nil
}

func requiredInt(fields map[string]string, name string) (int, error) {
	v, err := requiredInt64(fields, name)
	if err != nil {
		return 0, err
	}

	return int(v), nil
}
