package events

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher wraps the producer with the envelope discipline: one event id
// per publish, versioned type headers, order id as correlation.
type Publisher struct {
	Producer *Producer
	Service  string
}

func (p *Publisher) OrderPlaced(trace string, pl OrderPlacedPayload) {
	p.publish(TopicOrderPlaced, EventOrderPlaced, trace, pl.OrderID, MustMarshal(pl))
}

func (p *Publisher) OrderStatusChanged(trace string, pl OrderStatusChangedPayload) {
	p.publish(TopicOrderStatusChanged, EventOrderStatusChanged, trace, pl.OrderID, MustMarshal(pl))
}

func (p *Publisher) OrderCancelled(trace string, pl OrderCancelledPayload) {
	p.publish(TopicOrderCancelled, EventOrderCancelled, trace, pl.OrderID, MustMarshal(pl))
}

func (p *Publisher) CheckoutRejected(trace string, pl CheckoutRejectedPayload) {
	// no order exists; key by user so a user's rejections stay ordered
	p.publish(TopicCheckoutRejected, EventCheckoutRejected, trace, pl.UserID, MustMarshal(pl))
}

func (p *Publisher) publish(topic, eventType, trace, correlationID string, payload []byte) {
	if p == nil || p.Producer == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		TraceID:       trace,
		CorrelationID: correlationID,
		Payload:       payload,
	}
	p.Producer.Publish(topic, PartitionKey(correlationID), MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
