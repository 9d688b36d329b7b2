package repository

import (
	"context"
	"errors"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByMail(ctx context.Context, mail string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserRepository returns a new UserRepository implementation. store may be nil.
func NewUserRepository(db *gorm.DB, store *cache.Store) UserRepository {
	if store == nil {
		store = cache.NewStore(nil, nil)
	}
	return &userRepository{db: db, cache: store}
}

// GetByID serves from cache. The cached copy has no password digest, so
// callers that need it use GetByUsername.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	err := r.cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByMail(ctx context.Context, mail string) (*models.User, error) {
	return r.findOne(ctx, "mail = ?", mail)
}

// findOne returns (nil, nil) when nothing matches.
func (r *userRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return r.conflict(ctx, 0, user.Username, user.Mail)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// conflict works out which unique column clashed. Drivers that translate
// errors drop the constraint name, so ask the table instead.
func (r *userRepository) conflict(ctx context.Context, selfID uint, username, mail string) error {
	if username != "" {
		if u, err := r.GetByUsername(ctx, username); err == nil && u != nil && u.ID != selfID {
			return models.NewConflictError(models.CodeUsernameExisted, "Username already taken")
		}
	}
	if mail != "" {
		if u, err := r.GetByMail(ctx, mail); err == nil && u != nil && u.ID != selfID {
			return models.NewConflictError(models.CodeUserMailExisted, "Mail already registered")
		}
	}
	return models.NewConflictError(models.CodeUsernameExisted, "User already exists")
}

// Update writes only the given columns.
func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			mail, _ := fields["mail"].(string)
			return r.conflict(ctx, id, "", mail)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}

	r.cache.InvalidateUser(ctx, id)

	// Cached posts embed the author's public projection.
	_, fullname := fields["fullname"]
	_, dob := fields["date_of_birth"]
	if fullname || dob {
		r.invalidateAuthoredPosts(ctx, id)
	}
	return nil
}

func (r *userRepository) invalidateAuthoredPosts(ctx context.Context, userID uint) {
	if !r.cache.Enabled() {
		return
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return
	}
	r.cache.InvalidatePosts(ctx, ids...)
}

// Delete removes the user and everything they own. Counters of posts the
// user voted on are decremented in the same transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var touched []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return err
		}

		var ownPostIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &ownPostIDs).Error; err != nil {
			return err
		}

		upvoted, err := votedPostIDs(tx, &models.Upvote{}, id, ownPostIDs)
		if err != nil {
			return err
		}
		downvoted, err := votedPostIDs(tx, &models.Downvote{}, id, ownPostIDs)
		if err != nil {
			return err
		}
		if err := adjustCounter(tx, upvoted, "upvote", -1); err != nil {
			return err
		}
		if err := adjustCounter(tx, downvoted, "downvote", -1); err != nil {
			return err
		}

		if len(ownPostIDs) > 0 {
			if err := deletePostChildren(tx, ownPostIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ownPostIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		for _, m := range []interface{}{&models.Upvote{}, &models.Downvote{}, &models.Comment{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_id = ? OR interactor_id = ?", id, id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.User{}, id).Error; err != nil {
			return err
		}

		touched = append(append(append(touched, ownPostIDs...), upvoted...), downvoted...)
		return nil
	})
	if err != nil {
		return wrapTxError(err)
	}

	r.cache.InvalidateUser(ctx, id)
	r.cache.InvalidatePosts(ctx, touched...)
	return nil
}

// votedPostIDs lists posts userID voted on through model, skipping the user's own posts.
func votedPostIDs(tx *gorm.DB, model interface{}, userID uint, exclude []uint) ([]uint, error) {
	var ids []uint
	q := tx.Model(model).Where("user_id = ?", userID)
	if len(exclude) > 0 {
		q = q.Where("post_id NOT IN ?", exclude)
	}
	err := q.Pluck("post_id", &ids).Error
	return ids, err
}
