package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/storefront/pkg/logger"
)

// OrderPlacedHandler handles one decoded order placed event.
type OrderPlacedHandler func(ctx context.Context, event OrderPlacedEvent) error

// Consumer reads storefront events through a consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	groupID string
	topics  []string

	mu          sync.RWMutex
	orderPlaced OrderPlacedHandler
}

// NewConsumer joins groupID on brokers.
func NewConsumer(brokers []string, groupID string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Msg("Kafka consumer initialized")

	return &Consumer{
		group:   group,
		groupID: groupID,
		topics:  []string{TopicOrderPlaced},
	}, nil
}

// OnOrderPlaced sets the handler for order placed events.
func (c *Consumer) OnOrderPlaced(h OrderPlacedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderPlaced = h
}

// Start consumes in the background until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	handler := &groupHandler{consumer: c}

	go func() {
		for ctx.Err() == nil {
			if err := c.group.Consume(ctx, c.topics, handler); err != nil {
				logger.Logger.Error().Err(err).Msg("Error from consumer")
			}
		}
		logger.Logger.Info().Msg("Consumer context cancelled, stopping")
	}()

	go func() {
		for err := range c.group.Errors() {
			logger.Logger.Error().Err(err).Msg("Consumer error")
		}
	}()

	logger.Logger.Info().
		Strs("topics", c.topics).
		Str("group_id", c.groupID).
		Msg("Kafka consumer started")
}

// Close stops consuming and closes the group
func (c *Consumer) Close() error {
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

// Handle decodes and dispatches one message. It reports whether a handler
// accepted it.
func (c *Consumer) Handle(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	carrier := propagation.MapCarrier{}
	var eventType, eventID string
	for _, h := range msg.Headers {
		switch key := string(h.Key); key {
		case "traceparent", "tracestate":
			carrier[key] = string(h.Value)
		case "event_type":
			eventType = string(h.Value)
		case "event_id":
			eventID = string(h.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	ctx, span := otel.Tracer("kafka-consumer").Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.source", msg.Topic),
			attribute.Int("messaging.kafka.partition", int(msg.Partition)),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	switch eventType {
	case EventTypeOrderPlaced:
		c.mu.RLock()
		h := c.orderPlaced
		c.mu.RUnlock()
		if h == nil {
			span.SetStatus(codes.Error, "No handler registered")
			logger.Warn(ctx).Str("event_type", eventType).Msg("No handler registered for event type")
			return false
		}

		var event OrderPlacedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to unmarshal event")
			logger.Error(ctx).Err(err).Str("event_type", eventType).Msg("Failed to unmarshal event")
			return false
		}
		if err := h(ctx, event); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to handle event")
			logger.Error(ctx).Err(err).Str("event_id", event.EventID).Msg("Failed to handle event")
			return false
		}
		span.SetStatus(codes.Ok, "Event handled")
		logger.Info(ctx).
			Str("event_id", event.EventID).
			Str("order_id", event.Order.ID).
			Msg("Order placed event handled")
		return true

	case "":
		span.SetStatus(codes.Error, "Message without event_type header")
		logger.Warn(ctx).Msg("Message without event_type header")
	default:
		span.SetStatus(codes.Error, "Unknown event type")
		logger.Warn(ctx).Str("event_type", eventType).Msg("Unknown event type")
	}
	return false
}

type groupHandler struct {
	consumer *Consumer
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.consumer.Handle(session.Context(), msg)
		session.MarkMessage(msg, "")
	}
	return nil
}
