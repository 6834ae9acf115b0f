// Package publisher emits reward events for recorded submissions.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"xverify/internal/platform/kafka/producer"
	"xverify/internal/submission/models"
)

// Sink delivers a single reward event.
type Sink interface {
	Send(ctx context.Context, event models.RewardGranted) error
}

// Publisher hands reward events to a sink, optionally through a buffered
// background queue so submission requests never wait on the broker.
type Publisher struct {
	sink   Sink
	events chan models.RewardGranted
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer queues events and sends them from a background goroutine.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan models.RewardGranted, size)
			p.async = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.sink.Send(context.Background(), event); err != nil {
			p.logger.Error("failed to publish reward event",
				"error", err,
				"submission_id", event.SubmissionID,
				"user_id", event.UserID,
			)
		}
	}
}

// Publish sends the event. In async mode a full buffer drops the event with
// an error log rather than blocking the caller.
func (p *Publisher) Publish(ctx context.Context, event models.RewardGranted) error {
	if !p.async {
		return p.sink.Send(ctx, event)
	}
	select {
	case p.events <- event:
		return nil
	default:
		p.logger.Error("reward buffer full, event dropped",
			"submission_id", event.SubmissionID,
			"user_id", event.UserID,
		)
		return fmt.Errorf("reward buffer full")
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Producer is the subset of the Kafka producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink writes events as JSON records keyed by user id.
type KafkaSink struct {
	producer Producer
	topic    string
}

func NewKafkaSink(p Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Send(ctx context.Context, event models.RewardGranted) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal reward event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.UserID),
		Value: value,
		Headers: map[string]string{
			"event_type": models.EventRewardGranted,
			"event_id":   event.EventID,
		},
	})
}

// LogSink records events in the log when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, event models.RewardGranted) error {
	s.logger.InfoContext(ctx, "reward granted",
		"event_id", event.EventID,
		"submission_id", event.SubmissionID,
		"task_id", event.TaskID,
		"user_id", event.UserID,
		"action", event.ActionType,
	)
	return nil
}

var (
	_ Sink = (*KafkaSink)(nil)
	_ Sink = (*LogSink)(nil)
)
