package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/dating-api/internal/events"
)

// CacheInvalidator drops cached read models.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// StartCacheInvalidationWorker clears the cached user list whenever a user registers.
func StartCacheInvalidationWorker(dispatcher events.Dispatcher, cache CacheInvalidator, logger *zap.Logger) {
	if dispatcher == nil || cache == nil {
		return
	}
	dispatcher.Subscribe(events.EventUserRegistered, func(ctx context.Context, event events.Event) error {
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("users cache invalidation failed", zap.String("subject", event.Subject), zap.Error(err))
			return err
		}
		logger.Debug("users cache invalidated", zap.String("subject", event.Subject))
		return nil
	})
}

// StartActivityLogWorker writes registration and token events to the log.
func StartActivityLogWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	logEvent := func(_ context.Context, event events.Event) error {
		logger.Info(string(event.Type),
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject),
			zap.Any("payload", event.Payload))
		return nil
	}
	dispatcher.Subscribe(events.EventUserRegistered, logEvent)
	dispatcher.Subscribe(events.EventTokenIssued, logEvent)
}
