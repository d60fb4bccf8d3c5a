package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/message"
)

// SendJob is the queue payload: the same shape the HTTP API accepts,
// plus the producer-assigned job id used as the Kafka key.
type SendJob struct {
	JobID    string          `json:"job_id"`
	To       []string        `json:"to"`
	Instance string          `json:"instance,omitempty"`
	Message  json.RawMessage `json:"message"`
}

// Failure is what lands on the DLQ for a recipient that could not be
// delivered to.
type Failure struct {
	JobID    string          `json:"job_id"`
	To       string          `json:"to"`
	Error    string          `json:"error"`
	Message  json.RawMessage `json:"message"`
	FailedAt time.Time       `json:"failed_at"`
}

type Worker struct {
	ReaderFactory func() *kafka.Reader
	DLQWriter     *kafka.Writer
	Channel       *channel.Channel
	Logger        zerolog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.ReaderFactory == nil || w.Channel == nil {
		return errors.New("worker requires a reader factory and a channel")
	}
	reader := w.ReaderFactory()
	defer reader.Close()

	tracer := otel.Tracer("send-worker")

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch message: %w", err)
		}

		var job SendJob
		if err := json.Unmarshal(m.Value, &job); err != nil {
			w.Logger.Error().Err(err).Msg("failed to decode send job")
			_ = reader.CommitMessages(ctx, m)
			continue
		}

		spanCtx, span := tracer.Start(ctx, "process_job")
		span.SetAttributes(attribute.String("job.id", job.JobID))

		failures := w.process(spanCtx, job)
		for _, f := range failures {
			if err := w.writeDLQ(ctx, f); err != nil {
				span.RecordError(err)
				span.End()
				return err
			}
		}

		span.End()
		if err := reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

// process delivers the job to each recipient independently and returns
// the failures. A bad message description fails every recipient without
// reaching the gateway.
func (w *Worker) process(ctx context.Context, job SendJob) []Failure {
	msg, err := message.Decode(job.Message)
	if err != nil {
		return w.failAll(job, err)
	}
	if msg.Instance == "" {
		msg.Instance = job.Instance
	}

	var failures []Failure
	for _, to := range job.To {
		res, err := w.Channel.Send(ctx, channel.Recipient{WhatsAppNumber: to}, jobNotification{msg: msg})
		if err != nil {
			w.Logger.Warn().Err(err).Str("job_id", job.JobID).Str("to", to).Msg("send failed")
			failures = append(failures, Failure{
				JobID:    job.JobID,
				To:       to,
				Error:    err.Error(),
				Message:  job.Message,
				FailedAt: time.Now().UTC(),
			})
			continue
		}
		w.Logger.Debug().Str("job_id", job.JobID).Str("to", to).Str("message_id", res.MessageID).Msg("sent")
	}
	return failures
}

func (w *Worker) failAll(job SendJob, err error) []Failure {
	failures := make([]Failure, 0, len(job.To))
	now := time.Now().UTC()
	for _, to := range job.To {
		failures = append(failures, Failure{
			JobID:    job.JobID,
			To:       to,
			Error:    err.Error(),
			Message:  job.Message,
			FailedAt: now,
		})
	}
	return failures
}

func (w *Worker) writeDLQ(ctx context.Context, f Failure) error {
	if w.DLQWriter == nil {
		return nil
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}
	return w.DLQWriter.WriteMessages(ctx, kafka.Message{Key: []byte(f.JobID), Value: payload})
}

type jobNotification struct {
	msg *message.Message
}

func (n jobNotification) Channels(any) []string { return []string{channel.Name} }

func (n jobNotification) ToWhatsApp(any) *message.Message { return n.msg }
