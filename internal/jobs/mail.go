package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"

	"github.com/JustinTDCT/moviestore/internal/notifications"
)

const TaskSendMail = "mail:send"

// Enqueuer puts a task on the queue. [*Queue] implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (string, error)
}

// MailDispatcher queues messages for the worker instead of sending them
// inline. Failed sends are not retried.
type MailDispatcher struct {
	queue Enqueuer
}

func NewMailDispatcher(queue Enqueuer) *MailDispatcher {
	return &MailDispatcher{queue: queue}
}

func (d *MailDispatcher) Dispatch(ctx context.Context, msg notifications.Message) error {
	_, err := d.queue.Enqueue(ctx, TaskSendMail, msg,
		asynq.Queue("critical"),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Second),
	)
	return err
}

// MailHandler delivers queued messages with sender.
func MailHandler(sender notifications.Sender, logger *log.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg notifications.Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("decode mail payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := sender.Send(ctx, msg); err != nil {
			logger.Error("failed to deliver queued mail", "to", msg.To, "template", msg.Template, "err", err)
			return err
		}
		return nil
	}
}
