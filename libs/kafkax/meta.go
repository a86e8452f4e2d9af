package kafkax

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderOccurredAt    = "occurred_at"
)

// EventMeta describes one domain event. The event type doubles as the topic
// and the aggregate id as the partition key.
type EventMeta struct {
	EventID       string
	EventType     string
	AggregateType string
	AggregateID   string
	OccurredAt    time.Time
}

func (m EventMeta) Headers() []kafka.Header {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(m.EventID)},
		{Key: HeaderEventType, Value: []byte(m.EventType)},
	}
	if m.AggregateType != "" {
		headers = append(headers, kafka.Header{Key: HeaderAggregateType, Value: []byte(m.AggregateType)})
	}
	if !m.OccurredAt.IsZero() {
		headers = append(headers, kafka.Header{Key: HeaderOccurredAt, Value: []byte(m.OccurredAt.UTC().Format(time.RFC3339Nano))})
	}
	return headers
}

// Message builds the record for payload, carrying the span context of ctx.
func (m EventMeta) Message(ctx context.Context, payload []byte) kafka.Message {
	return kafka.Message{
		Topic:   m.EventType,
		Key:     []byte(m.AggregateID),
		Value:   payload,
		Headers: InjectTraceHeaders(ctx, m.Headers()),
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
