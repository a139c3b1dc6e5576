package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// Producer wraps a Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer constructs a producer and ensures the evaluate topic exists.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := ensureTopic(context.Background(), client, TopicEvaluate, 1, 1); err != nil {
		slog.Warn("topic ensure failed", slog.String("topic", TopicEvaluate), slog.Any("error", err))
	}
	return &Producer{client: client, topic: TopicEvaluate}, nil
}

// EnqueueEvaluate publishes one evaluation job. The contest id keys the
// record so jobs for the same contest stay ordered on one partition.
func (p *Producer) EnqueueEvaluate(ctx domain.Context, payload domain.EvaluateJobPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("op=queue.enqueue marshal: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(payload.ContestID, 10)),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "run_id", Value: []byte(payload.RunID)},
			{Key: "method", Value: []byte(payload.Method)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return "", fmt.Errorf("op=queue.enqueue produce: %w", err)
	}
	observability.JobsEnqueuedTotal.WithLabelValues("evaluate").Inc()
	slog.Info("evaluation job enqueued",
		slog.String("run_id", payload.RunID),
		slog.Int64("contest_id", payload.ContestID),
		slog.String("method", payload.Method))
	return payload.RunID, nil
}

// Close closes the underlying client.
func (p *Producer) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// Healthy pings the cluster.
func (p *Producer) Healthy(ctx context.Context) error {
	return p.client.Ping(ctx)
}
