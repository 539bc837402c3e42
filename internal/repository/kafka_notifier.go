package repository

import (
	"context"
	"time"

	"SignalScan/internal/domain/models"
	"SignalScan/internal/domain/repository"
)

// EventPublisher is the slice of pkg/kafka.Producer the notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// KafkaNotifier forwards published signals to a topic keyed by symbol.
type KafkaNotifier struct {
	producer EventPublisher
	loc      *time.Location
}

// NewKafkaNotifier renders timestamps in loc, the same zone the store uses.
func NewKafkaNotifier(p EventPublisher, loc *time.Location) repository.Notifier {
	return &KafkaNotifier{producer: p, loc: loc}
}

func (n *KafkaNotifier) Notify(ctx context.Context, e models.SignalEvent) error {
	return n.producer.Publish(ctx, e.Symbol, e.Payload(n.loc))
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
