// Package events publishes checkout domain events to SNS or Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/services/common/config"
)

// Event types.
const (
	OrderCreated       = "order_created"
	OrderStatusUpdated = "order_status_updated"
	CartCheckedOut     = "cart_checked_out"
	PromotionApplied   = "promotion_applied"
	StockDepleted      = "stock_depleted"
)

// Event is the envelope shared by every published message.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func NewEvent(source, eventType, key string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     source,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, evt Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

// SNSPublisher sends events to one SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	return p.client.Publish(aws_pkg.WithEventType(ctx, evt.Type), p.topicArn, body)
}

func (p *SNSPublisher) Close() error { return nil }

// NewPublisher builds the publisher selected by EVENT_BUS.
func NewPublisher(ctx context.Context, cfg config.Common) (Publisher, error) {
	switch cfg.EventBus {
	case "", "none":
		return NopPublisher{}, nil
	case "sns":
		if cfg.SNSTopicARN == "" {
			return nil, fmt.Errorf("EVENT_BUS=sns requires SNS_TOPIC_ARN")
		}
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.SNSTopicARN), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("EVENT_BUS=kafka requires KAFKA_BROKERS")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unknown EVENT_BUS %q", cfg.EventBus)
	}
}

// Emit publishes evt and logs a failure instead of returning it. Events
// never fail the operation that produced them.
func Emit(ctx context.Context, p Publisher, log *zap.Logger, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		log.Warn("event publish failed",
			zap.String("event_type", evt.Type),
			zap.String("key", evt.Key),
			zap.Error(err),
		)
	}
}
