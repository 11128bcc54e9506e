package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"library/internal/domain"
	"library/internal/metrics"
	"library/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures a NotificationWorker. Zero values fall back to defaults.
type Options struct {
	ChatID       int64
	QueueSize    int
	Retry        RetryPolicy
	RatePerSec   float64
	Burst        int
	PollInterval time.Duration
	BatchSize    int
	Metrics      *metrics.Metrics
}

// NotificationWorker persists notifications to the outbox and delivers them to the library chat.
type NotificationWorker struct {
	outbox        domain.OutboxRepository
	sender        domain.MessageSender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	limiter       *rate.Limiter
	queue         chan models.Notification
	redisQueueKey string
	deadLetterKey string
	chatID        int64
	pollInterval  time.Duration
	batchSize     int
	metrics       *metrics.Metrics
	logger        *zerolog.Logger
}

// NewNotificationWorker builds a worker with sane defaults. redisClient may be nil.
func NewNotificationWorker(
	outbox domain.OutboxRepository,
	sender domain.MessageSender,
	redisClient *redis.Client,
	opts Options,
	logger *zerolog.Logger,
) *NotificationWorker {
	retry := opts.Retry
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = models.WorkerQueueSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotificationWorker{
		outbox:        outbox,
		sender:        sender,
		redis:         redisClient,
		retryPolicy:   retry,
		limiter:       rate.NewLimiter(limit, opts.Burst),
		queue:         make(chan models.Notification, opts.QueueSize),
		redisQueueKey: "notifications:queue",
		deadLetterKey: "notifications:deadletter",
		chatID:        opts.ChatID,
		pollInterval:  opts.PollInterval,
		batchSize:     opts.BatchSize,
		metrics:       opts.Metrics,
		logger:        logger,
	}
}

// Notify persists the message and schedules its delivery via redis or the in-memory queue.
func (w *NotificationWorker) Notify(ctx context.Context, kind, message string) error {
	if message == "" {
		return errors.New("message is required")
	}
	if w.chatID == 0 {
		return errors.New("notification chat id is not configured")
	}

	n := models.Notification{
		Kind:    kind,
		ChatID:  w.chatID,
		Message: message,
		Status:  models.NotificationPending,
	}
	if err := w.outbox.CreateNotification(ctx, &n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, n); err != nil {
			w.logger.Warn().Err(err).Int64("notification_id", n.ID).Msg("Redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- n:
	default:
		w.logger.Warn().Int64("notification_id", n.ID).Msg("In-memory queue full, notification left for polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	// Строки, зависшие в processing после падения, снова в очередь
	if n, err := w.outbox.ResetStaleNotifications(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Failed to reset stale notifications")
	} else if n > 0 {
		w.logger.Info().Int64("count", n).Msg("Stale notifications reset")
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if n, ok := w.tryLocalQueue(); ok {
			w.processNotification(ctx, &n)
			continue
		}

		if n, ok := w.tryRedis(ctx); ok {
			w.processNotification(ctx, &n)
			continue
		}

		pending, err := w.outbox.GetPendingNotifications(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending notifications")
			w.sleep(ctx)
			continue
		}
		if len(pending) == 0 {
			w.sleep(ctx)
			continue
		}

		for i := range pending {
			w.processNotification(ctx, &pending[i])
		}
	}
}

func (w *NotificationWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *NotificationWorker) tryLocalQueue() (models.Notification, bool) {
	select {
	case n := <-w.queue:
		return n, true
	default:
		return models.Notification{}, false
	}
}

func (w *NotificationWorker) tryRedis(ctx context.Context) (models.Notification, bool) {
	if w.redis == nil {
		return models.Notification{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.Notification{}, false
		}
		w.logger.Error().Err(err).Msg("Redis BRPOP failed")
		return models.Notification{}, false
	}
	if len(res) != 2 {
		return models.Notification{}, false
	}
	var n models.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode redis notification")
		return models.Notification{}, false
	}
	return n, true
}

// processNotification reports whether the row was claimed, i.e. whether its state moved on.
func (w *NotificationWorker) processNotification(ctx context.Context, n *models.Notification) bool {
	claimed, err := w.outbox.ClaimNotification(ctx, n.ID)
	if err != nil {
		w.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to claim notification")
		return false
	}
	if !claimed {
		return false
	}

	if err := w.limiter.Wait(ctx); err != nil {
		w.retryOrFail(ctx, n, err)
		return true
	}

	if err := w.sender.SendToChat(ctx, n.ChatID, n.Message); err != nil {
		w.retryOrFail(ctx, n, err)
		return true
	}

	if err := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotificationCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Failed to mark notification completed")
	}
	w.metrics.NotificationOutcome(models.NotificationCompleted)
	return true
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, n *models.Notification, cause error) {
	attempt := n.RetryCount + 1
	log := w.logger.With().Int64("notification_id", n.ID).Int("attempt", attempt).Logger()

	if w.retryPolicy.Exhausted(attempt) {
		if err := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotificationFailed, cause.Error(), nil); err != nil {
			log.Error().Err(err).Msg("Failed to mark notification failed")
		}
		w.pushDeadLetter(ctx, n)
		w.metrics.NotificationOutcome(models.NotificationFailed)
		log.Error().Err(cause).Msg("Notification delivery failed permanently")
		return
	}

	nextTime := w.retryPolicy.NextAttemptAt(time.Now(), attempt)
	if err := w.outbox.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, cause.Error(), &nextTime); err != nil {
		log.Error().Err(err).Msg("Failed to schedule notification retry")
	}
	w.metrics.NotificationOutcome(models.NotificationRetry)
	log.Warn().Err(cause).Time("next_retry_at", nextTime).Msg("Notification delivery failed, will retry")
}

func (w *NotificationWorker) pushRedis(ctx context.Context, key string, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *NotificationWorker) pushDeadLetter(ctx context.Context, n *models.Notification) {
	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, w.deadLetterKey, *n); err != nil {
		w.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Dead-letter push failed")
	}
}

// Drain delivers everything that is due right now and returns. Used by one-shot commands.
// A pass over pending rows that claims nothing ends the drain, so a failing store cannot spin it.
func (w *NotificationWorker) Drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if n, ok := w.tryLocalQueue(); ok {
			w.processNotification(ctx, &n)
			continue
		}

		pending, err := w.outbox.GetPendingNotifications(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending notifications")
			return
		}
		if len(pending) == 0 {
			return
		}
		progressed := false
		for i := range pending {
			if w.processNotification(ctx, &pending[i]) {
				progressed = true
			}
		}
		if !progressed {
			w.logger.Warn().Int("pending", len(pending)).Msg("Drain made no progress, stopping")
			return
		}
	}
}
