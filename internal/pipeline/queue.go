package pipeline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// TaskMatchDispatch is the queued task type for one matching pass.
const TaskMatchDispatch = "request:match_dispatch"

// matchingQueue is the dedicated asynq queue name.
const matchingQueue = "matching"

type matchDispatchPayload struct {
	RequestID string `json:"request_id"`
}

// Queue is the Redis-backed pipeline: enqueue returns immediately, a worker
// pool processes passes with bounded concurrency.
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewQueue builds the asynq client and worker for the given Redis address.
func NewQueue(redisAddr string, runner *Runner) *Queue {
	opts := asynq.RedisClientOpt{Addr: redisAddr}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMatchDispatch, func(ctx context.Context, t *asynq.Task) error {
		var p matchDispatchPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return err
		}
		return runner.Run(ctx, p.RequestID)
	})

	server := asynq.NewServer(opts, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			matchingQueue: 10,
		},
	})

	return &Queue{client: asynq.NewClient(opts), server: server, mux: mux}
}

// Start runs the worker in the background.
func (q *Queue) Start() {
	go func() {
		if err := q.server.Run(q.mux); err != nil {
			log.Printf("[pipeline] worker stopped: %v", err)
		}
	}()
}

// Close releases the client and stops the worker.
func (q *Queue) Close() {
	_ = q.client.Close()
	q.server.Shutdown()
}

// EnqueueMatchDispatch schedules one matching pass. MaxRetry is zero: a
// failed pass is logged by the worker, never retried automatically.
func (q *Queue) EnqueueMatchDispatch(ctx context.Context, requestID string) error {
	b, err := json.Marshal(matchDispatchPayload{RequestID: requestID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskMatchDispatch, b, asynq.MaxRetry(0))
	_, err = q.client.EnqueueContext(ctx, task, asynq.Queue(matchingQueue))
	return err
}
