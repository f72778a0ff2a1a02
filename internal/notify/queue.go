package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/reservation"
)

const (
	DefaultQueue    = "notifications"
	defaultMaxRetry = 5
	taskTimeout     = 30 * time.Second
)

var _ reservation.Notifier = (*QueueNotifier)(nil)

// Enqueuer — часть asynq.Client, которая нужна для постановки задач.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RedisOptions — параметры подключения к Redis для очереди.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func (o RedisOptions) asynq() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// PingRedis проверяет доступность Redis до старта клиента или воркера.
func PingRedis(ctx context.Context, o RedisOptions) error {
	rdb := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", o.Addr, err)
	}
	return nil
}

// NewClient создаёт asynq-клиент; закрывает вызывающий.
func NewClient(o RedisOptions) *asynq.Client {
	return asynq.NewClient(o.asynq())
}

// QueueNotifier ставит уведомления в очередь asynq; письма отправляет воркер.
type QueueNotifier struct {
	q        Enqueuer
	queue    string
	maxRetry int
}

func NewQueueNotifier(q Enqueuer, queue string) *QueueNotifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &QueueNotifier{q: q, queue: queue, maxRetry: defaultMaxRetry}
}

func (n *QueueNotifier) enqueue(ctx context.Context, msg Notification) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	task := asynq.NewTask(string(msg.Kind), payload)
	_, err = n.q.EnqueueContext(ctx, task,
		asynq.Queue(n.queue),
		asynq.MaxRetry(n.maxRetry),
		asynq.Timeout(taskTimeout),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.Kind, err)
	}
	return nil
}

func (n *QueueNotifier) OnNewRequest(ctx context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return n.enqueue(ctx, NewRequestNotification(owner, requester, r, res))
}

func (n *QueueNotifier) OnRequestAcknowledged(ctx context.Context, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return n.enqueue(ctx, RequestReceivedNotification(requester, r, res))
}

func (n *QueueNotifier) OnStatusChanged(ctx context.Context, requester *model.User, r *model.Reservation, res *model.Resource, status model.ReservationStatus) error {
	return n.enqueue(ctx, StatusChangedNotification(requester, r, res, status))
}

func (n *QueueNotifier) OnCanceled(ctx context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return n.enqueue(ctx, CanceledNotification(owner, requester, r, res))
}
