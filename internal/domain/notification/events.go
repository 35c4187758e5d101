package notification

import "time"

// Kind identifies which of the three fulfillment notifications was raised.
type Kind string

const (
	KindDelay      Kind = "delay"
	KindOutOfStock Kind = "out_of_stock"
	KindExpiration Kind = "expiration"
)

// Event is implemented by every notification carried on the outbox.
type Event interface {
	EventName() string
	Message() Message
}

// Message is the delivery contract shared by every sender.
type Message struct {
	EventID      string     `json:"event_id"`
	Kind         Kind       `json:"kind"`
	ProductName  string     `json:"product_name"`
	LeadTimeDays int        `json:"lead_time_days,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

// DelayNotificationEvent announces that restock is expected after LeadTimeDays.
type DelayNotificationEvent struct {
	EventID      string
	ProductName  string
	LeadTimeDays int
	OccurredAt   time.Time
}

func (DelayNotificationEvent) EventName() string { return "notification.delay" }

func (e DelayNotificationEvent) Message() Message {
	return Message{
		EventID:      e.EventID,
		Kind:         KindDelay,
		ProductName:  e.ProductName,
		LeadTimeDays: e.LeadTimeDays,
		OccurredAt:   e.OccurredAt,
	}
}

func NewDelayNotificationEvent(eventID string, leadTimeDays int, productName string) DelayNotificationEvent {
	return DelayNotificationEvent{
		EventID:      eventID,
		ProductName:  productName,
		LeadTimeDays: leadTimeDays,
		OccurredAt:   time.Now().UTC(),
	}
}

// OutOfStockNotificationEvent announces a seasonal item that cannot be sold now.
type OutOfStockNotificationEvent struct {
	EventID     string
	ProductName string
	OccurredAt  time.Time
}

func (OutOfStockNotificationEvent) EventName() string { return "notification.out_of_stock" }

func (e OutOfStockNotificationEvent) Message() Message {
	return Message{
		EventID:     e.EventID,
		Kind:        KindOutOfStock,
		ProductName: e.ProductName,
		OccurredAt:  e.OccurredAt,
	}
}

func NewOutOfStockNotificationEvent(eventID, productName string) OutOfStockNotificationEvent {
	return OutOfStockNotificationEvent{
		EventID:     eventID,
		ProductName: productName,
		OccurredAt:  time.Now().UTC(),
	}
}

// ExpirationNotificationEvent announces a perishable item that expired or ran out.
type ExpirationNotificationEvent struct {
	EventID     string
	ProductName string
	ExpiryDate  time.Time
	OccurredAt  time.Time
}

func (ExpirationNotificationEvent) EventName() string { return "notification.expiration" }

func (e ExpirationNotificationEvent) Message() Message {
	expiry := e.ExpiryDate
	return Message{
		EventID:     e.EventID,
		Kind:        KindExpiration,
		ProductName: e.ProductName,
		ExpiryDate:  &expiry,
		OccurredAt:  e.OccurredAt,
	}
}

func NewExpirationNotificationEvent(eventID, productName string, expiryDate time.Time) ExpirationNotificationEvent {
	return ExpirationNotificationEvent{
		EventID:     eventID,
		ProductName: productName,
		ExpiryDate:  expiryDate,
		OccurredAt:  time.Now().UTC(),
	}
}

// EventNames lists the outbox event names of every notification kind.
func EventNames() []string {
	return []string{
		DelayNotificationEvent{}.EventName(),
		OutOfStockNotificationEvent{}.EventName(),
		ExpirationNotificationEvent{}.EventName(),
	}
}
