package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/chibbo-dev/ai-algorithm-api/internal/adapter/observability"
	"github.com/chibbo-dev/ai-algorithm-api/internal/domain"
)

// Handler processes one evaluation job. A returned error leaves the record
// uncommitted so another poll can retry it.
type Handler func(ctx context.Context, payload domain.EvaluateJobPayload) error

// Consumer polls the evaluate topic in a consumer group and hands each job
// to the handler. Offsets commit only after the handler returns, so a
// crashed worker replays its in-flight job (at-least-once).
type Consumer struct {
	client  *kgo.Client
	handler Handler
	topic   string
}

func NewConsumer(brokers []string, groupID string, handler Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}

	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(
			kotel.TracerProvider(otel.GetTracerProvider()),
		)),
	)
	// Stable per-host instance id keeps rebalances cheap on worker restarts.
	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = uuid.NewString()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.InstanceID(groupID+"-"+instance),
		kgo.ConsumeTopics(TopicEvaluate),
		kgo.DisableAutoCommit(),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer client: %w", err)
	}
	if err := ensureTopic(context.Background(), client, TopicEvaluate, 1, 1); err != nil {
		slog.Warn("topic ensure failed", slog.String("topic", TopicEvaluate), slog.Any("error", err))
	}
	return &Consumer{client: client, handler: handler, topic: TopicEvaluate}, nil
}

// Run polls until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	slog.Info("evaluation consumer started", slog.String("topic", c.topic))
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})
		fetches.EachRecord(func(record *kgo.Record) {
			c.processRecord(ctx, record)
		})
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	var payload domain.EvaluateJobPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		// Malformed records can never succeed; commit and move on.
		slog.Error("malformed job payload dropped", slog.Any("error", err))
		c.commit(ctx, record)
		return
	}

	observability.JobsProcessing.WithLabelValues("evaluate").Inc()
	defer observability.JobsProcessing.WithLabelValues("evaluate").Dec()

	slog.Info("processing evaluation job",
		slog.String("run_id", payload.RunID),
		slog.Int64("contest_id", payload.ContestID),
		slog.String("method", payload.Method))

	if err := c.handler(ctx, payload); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidArgument) {
			// Permanent: re-delivery cannot fix a missing contest or a bad
			// method string.
			slog.Error("evaluation job failed permanently",
				slog.String("run_id", payload.RunID),
				slog.Any("error", err))
			c.commit(ctx, record)
			return
		}
		slog.Error("evaluation job failed, leaving uncommitted",
			slog.String("run_id", payload.RunID),
			slog.Any("error", err))
		return
	}
	c.commit(ctx, record)
}

func (c *Consumer) commit(ctx context.Context, record *kgo.Record) {
	if err := c.client.CommitRecords(ctx, record); err != nil {
		slog.Error("offset commit failed", slog.Any("error", err))
	}
}

// Close closes the underlying client, which also leaves the group.
func (c *Consumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
