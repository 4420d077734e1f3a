// Package jobs runs background work on a Redis-backed asynq queue.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func (o RedisOptions) clientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

type Queue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *log.Logger
}

func NewQueue(opts RedisOptions, logger *log.Logger) *Queue {
	redisOpt := opts.clientOpt()
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
			},
			Logger: asynqLogger{logger.With("component", "asynq")},
		},
	)
	return &Queue{
		client: asynq.NewClient(redisOpt),
		server: server,
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

func (q *Queue) Enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return info.ID, nil
}

// Start processes tasks in the background until Stop.
func (q *Queue) Start() error {
	q.logger.Info("job queue worker starting")
	return q.server.Start(q.mux)
}

// Run processes tasks until the process receives SIGTERM or SIGINT.
func (q *Queue) Run() error {
	q.logger.Info("job queue worker running")
	return q.server.Run(q.mux)
}

func (q *Queue) Stop() {
	q.server.Shutdown()
	q.client.Close()
}

// asynqLogger adapts a structured logger to asynq's print-style interface.
type asynqLogger struct{ l *log.Logger }

func (a asynqLogger) Debug(args ...any) { a.l.Debug(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...any)  { a.l.Info(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...any) { a.l.Error(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal(fmt.Sprint(args...)) }
