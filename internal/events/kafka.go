package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher hands events to a background writer through a buffered inbox.
// Messages are keyed by order id so one order's events stay in one partition.
type KafkaPublisher struct {
	w        messageWriter
	producer string
	log      *slog.Logger

	inbox chan kafka.Message

	// mu is held for reading by every send to inbox; Close takes it for
	// writing, so once stopped is set no send can land after the flush.
	mu        sync.RWMutex
	stopped   bool
	closeOnce sync.Once
	closing   chan struct{}
	closed    chan struct{}
	done      chan struct{}
}

func NewKafkaPublisher(brokers []string, topic, producer string, buf int, log *slog.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, producer, buf, log)
}

func newKafkaPublisher(w messageWriter, producer string, buf int, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w:        w,
		producer: producer,
		log:      log,
		inbox:    make(chan kafka.Message, buf),
		closing:  make(chan struct{}),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the writer loop until Close is called or ctx is done. Pending
// messages are flushed before the writer is closed.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)

		for {
			select {
			case <-ctx.Done():
				p.Close()
				p.drain()
				return
			case <-p.closed:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) Publish(ctx context.Context, e domain.OrderEvent) error {
	env, err := NewEnvelope(ctx, p.producer, e)
	if err != nil {
		return err
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("json.Marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.OrderID.String()),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(e.Type)},
			{Key: "x-event-version", Value: []byte(fmt.Sprint(EventVersion))},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return fmt.Errorf("kafka publisher is closed")
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-p.closing:
		return fmt.Errorf("kafka publisher is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. Every Publish that returned nil is flushed by
// the writer loop.
func (p *KafkaPublisher) Close() {
	p.closeOnce.Do(func() {
		// release publishers blocked on a full inbox before waiting for them
		close(p.closing)

		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.closed)
	})
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *KafkaPublisher) WaitClosed() {
	<-p.done
}

func (p *KafkaPublisher) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Warn("kafka writer close", slog.Any("error", err))
			}
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	// the loop outlives request contexts
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warn("kafka write failed", slog.String("key", string(m.Key)), slog.Any("error", err))
	}
}
