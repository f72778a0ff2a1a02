package notify

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/hibiken/asynq"
)

// Handler — обработчик задач уведомлений: рендер письма и отправка.
type Handler struct {
	mailer   Mailer
	renderer *Renderer
	log      logr.Logger
}

func NewHandler(mailer Mailer, renderer *Renderer, log logr.Logger) *Handler {
	return &Handler{mailer: mailer, renderer: renderer, log: log.WithName("notify-worker")}
}

// ProcessTask реализует asynq.Handler.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := Unmarshal(t.Payload())
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if string(n.Kind) != t.Type() {
		return fmt.Errorf("%w: task type %q does not match payload kind %q", asynq.SkipRetry, t.Type(), n.Kind)
	}
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	msg, err := h.renderer.Render(n)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		var se *StatusError
		switch {
		case errors.Is(err, ErrMailerDisabled):
			h.log.Info("mailer disabled, dropping notification", "kind", n.Kind, "reservationID", n.ReservationID)
			return nil
		case errors.As(err, &se) && se.Permanent():
			h.log.Error(err, "notification rejected by provider", "kind", n.Kind, "reservationID", n.ReservationID)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	h.log.Info("notification sent", "kind", n.Kind, "reservationID", n.ReservationID, "to", n.RecipientEmail)
	return nil
}

// NewServeMux регистрирует обработчик на все виды уведомлений.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, kind := range []Kind{KindNewRequest, KindRequestReceived, KindStatusChanged, KindCanceled} {
		mux.Handle(string(kind), h)
	}
	return mux
}

// NewServer создаёт asynq-сервер, читающий очередь уведомлений.
func NewServer(o RedisOptions, queue string, concurrency int, log logr.Logger) *asynq.Server {
	if queue == "" {
		queue = DefaultQueue
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return asynq.NewServer(o.asynq(), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		Logger:      asynqLogger{log: log.WithName("asynq")},
	})
}

// asynqLogger адаптирует logr.Logger к интерфейсу asynq.Logger.
type asynqLogger struct {
	log logr.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.V(1).Info(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Info(fmt.Sprint(args...), "level", "warn") }
func (l asynqLogger) Error(args ...any) { l.log.Error(nil, fmt.Sprint(args...)) }

func (l asynqLogger) Fatal(args ...any) {
	l.log.Error(nil, fmt.Sprint(args...), "fatal", true)
	os.Exit(1)
}
