package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/makersnearby/makersnearby-backend/pkg/db/models"
	"github.com/makersnearby/makersnearby-backend/pkg/enums"
	"github.com/makersnearby/makersnearby-backend/pkg/logger"
)

const notifyTimeout = 5 * time.Second

// Notifier emits in-app notices. Writes are advisory; a failed write is
// logged and never fails the calling flow.
type Notifier struct {
	repo Repository
	logg *logger.Logger
}

// NewNotifier wires the notifier dependencies.
func NewNotifier(repo Repository, logg *logger.Logger) (*Notifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Notifier{repo: repo, logg: logg}, nil
}

// Notify writes one notification row synchronously.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, level enums.NotificationLevel, title, message string) {
	notification := &models.Notification{
		UserID:  userID,
		Level:   level,
		Title:   title,
		Message: message,
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		n.logg.Warn(n.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"title":   title,
			"error":   err.Error(),
		}), "notification write failed")
	}
}

// NotifyAsync writes the notification on a detached context so the notice
// survives the caller's request ending.
func (n *Notifier) NotifyAsync(userID uuid.UUID, level enums.NotificationLevel, title, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		n.Notify(ctx, userID, level, title, message)
	}()
}
