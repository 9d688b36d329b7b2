package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"agora/internal/models"
	"agora/internal/observability"
)

// Frame types written to notification sockets.
const (
	TypeNotification     = "notification"
	TypeVoteNotification = "vote_notification"
)

// Envelope is the JSON frame written to clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals a frame of the given type.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", msgType, err)
	}
	return data, nil
}

// Dispatcher fans vote notifications out to their target. With Redis the
// frame goes through pub/sub and reaches the hub via StartWiring; without it
// the local hub is written directly.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
	log      *slog.Logger
}

func NewDispatcher(hub *Hub, notifier *Notifier, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = observability.Discard()
	}
	return &Dispatcher{hub: hub, notifier: notifier, log: log}
}

// PublishVote implements service.NotificationPublisher.
func (d *Dispatcher) PublishVote(ctx context.Context, n *models.Notification) error {
	frame, err := Encode(TypeVoteNotification, n)
	if err != nil {
		return err
	}

	if d.notifier.Enabled() {
		err := d.notifier.PublishUser(ctx, n.TargetID, frame)
		if err == nil {
			observability.NotificationsPushed.WithLabelValues(TypeVoteNotification).Inc()
			return nil
		}
		d.log.WarnContext(ctx, "redis publish failed, delivering locally",
			slog.Uint64("target_id", uint64(n.TargetID)), slog.String("error", err.Error()))
	}

	if d.hub != nil && d.hub.Broadcast(n.TargetID, frame) > 0 {
		observability.NotificationsPushed.WithLabelValues(TypeVoteNotification).Inc()
	}
	return nil
}
