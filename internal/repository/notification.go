package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository reads and acknowledges vote notifications.
type NotificationRepository interface {
	// ListForTarget returns every notification addressed to userID with the
	// interactor attached, newest first.
	ListForTarget(ctx context.Context, userID uint) ([]*models.Notification, error)
	// Hydrate attaches target and interactor projections to n.
	Hydrate(ctx context.Context, n *models.Notification) error
	// MarkAllRead flags every unread notification for userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a NotificationRepository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListForTarget(ctx context.Context, userID uint) ([]*models.Notification, error) {
	var notes []*models.Notification
	if err := r.db.WithContext(ctx).
		Where("target_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(notes) == 0 {
		return notes, nil
	}

	ids := []uint{userID}
	for _, n := range notes {
		ids = append(ids, n.InteractorID)
	}
	users, err := r.publicUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		n.Target = users[n.TargetID]
		n.Interactor = users[n.InteractorID]
	}
	return notes, nil
}

func (r *notificationRepository) Hydrate(ctx context.Context, n *models.Notification) error {
	users, err := r.publicUsers(ctx, []uint{n.TargetID, n.InteractorID})
	if err != nil {
		return err
	}
	n.Target = users[n.TargetID]
	n.Interactor = users[n.InteractorID]
	return nil
}

func (r *notificationRepository) publicUsers(ctx context.Context, ids []uint) (map[uint]*models.PublicUser, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "fullname", "date_of_birth", "created_at").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make(map[uint]*models.PublicUser, len(users))
	for i := range users {
		pub := users[i].Public()
		out[pub.ID] = &pub
	}
	return out, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where(map[string]interface{}{"target_id": userID, "read": false}).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
