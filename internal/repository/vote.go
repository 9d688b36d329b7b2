package repository

import (
	"context"
	"errors"
	"fmt"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// VoteRepository mutates vote rows together with the post counters they back.
type VoteRepository interface {
	// Apply records userID's vote on postID. It returns the updated post and the
	// notification it recorded, which is nil for votes on one's own post.
	Apply(ctx context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, *models.Notification, error)
	// Undo removes userID's vote on postID and returns the updated post.
	Undo(ctx context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, error)
	// ListVotedPosts returns the posts userID voted on with kind, newest vote first.
	ListVotedPosts(ctx context.Context, kind models.VoteKind, userID uint) ([]*models.Post, error)
}

type voteRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewVoteRepository returns a VoteRepository. store may be nil.
func NewVoteRepository(db *gorm.DB, store *cache.Store) VoteRepository {
	if store == nil {
		store = cache.NewStore(nil, nil)
	}
	return &voteRepository{db: db, cache: store}
}

func voteRow(kind models.VoteKind, userID, postID uint) interface{} {
	if kind == models.VoteUp {
		return &models.Upvote{UserID: userID, PostID: postID}
	}
	return &models.Downvote{UserID: userID, PostID: postID}
}

func voteTable(kind models.VoteKind) string {
	if kind == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

func alreadyVoted(kind models.VoteKind) *models.AppError {
	if kind == models.VoteUp {
		return models.NewAppError(models.CodeAlreadyUpvoted, "You already upvoted this post")
	}
	return models.NewAppError(models.CodeAlreadyDownvoted, "You already downvoted this post")
}

func notVotedYet(kind models.VoteKind) *models.AppError {
	if kind == models.VoteUp {
		return models.NewAppError(models.CodeNotUpvoteYet, "You have not upvoted this post")
	}
	return models.NewAppError(models.CodeNotDownvoteYet, "You have not downvoted this post")
}

func hasVote(tx *gorm.DB, kind models.VoteKind, userID, postID uint) (bool, error) {
	var n int64
	err := tx.Table(voteTable(kind)).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error
	return n > 0, err
}

func findPost(tx *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	if err := tx.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}
	return &post, nil
}

func (r *voteRepository) Apply(ctx context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, *models.Notification, error) {
	if !kind.Valid() {
		return nil, nil, models.NewValidationError(fmt.Sprintf("unknown vote kind %q", kind))
	}

	var (
		updated *models.Post
		note    *models.Notification
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := findPost(tx, postID)
		if err != nil {
			return err
		}

		// A user holds at most one vote per post across both polarities.
		opposite, err := hasVote(tx, kind.Opposite(), userID, postID)
		if err != nil {
			return err
		}
		if opposite {
			return alreadyVoted(kind.Opposite())
		}

		same, err := hasVote(tx, kind, userID, postID)
		if err != nil {
			return err
		}
		if same {
			return alreadyVoted(kind)
		}

		if err := tx.Create(voteRow(kind, userID, postID)).Error; err != nil {
			if isUniqueConstraintError(err) {
				return alreadyVoted(kind)
			}
			return err
		}
		if err := adjustCounter(tx, []uint{postID}, string(kind), 1); err != nil {
			return err
		}

		if post.UserID != userID {
			note = &models.Notification{
				TargetID:     post.UserID,
				InteractorID: userID,
				PostID:       postID,
				Kind:         kind,
			}
			if err := tx.Create(note).Error; err != nil {
				return err
			}
		}

		updated, err = reloadPost(tx, postID)
		return err
	})
	if err != nil {
		return nil, nil, wrapTxError(err)
	}

	r.cache.InvalidatePosts(ctx, postID)
	return updated, note, nil
}

func (r *voteRepository) Undo(ctx context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown vote kind %q", kind))
	}

	var updated *models.Post

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(voteRow(kind, 0, 0))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notVotedYet(kind)
		}
		if err := adjustCounter(tx, []uint{postID}, string(kind), -1); err != nil {
			return err
		}

		var err error
		updated, err = reloadPost(tx, postID)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	r.cache.InvalidatePosts(ctx, postID)
	return updated, nil
}

func (r *voteRepository) ListVotedPosts(ctx context.Context, kind models.VoteKind, userID uint) ([]*models.Post, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown vote kind %q", kind))
	}

	table := voteTable(kind)
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins(fmt.Sprintf("JOIN %s ON %s.post_id = posts.id", table, table)).
		Where(table+".user_id = ?", userID).
		Order(table + ".created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range posts {
		p.FillAuthor()
	}
	return posts, nil
}

// adjustCounter adds delta to column on every post in ids as an in-SQL
// increment. Callers run it inside the transaction that changed the rows.
func adjustCounter(tx *gorm.DB, ids []uint, column string, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	if column != "upvote" && column != "downvote" {
		return fmt.Errorf("unknown counter column %q", column)
	}
	return tx.Model(&models.Post{}).
		Where("id IN ?", ids).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

func reloadPost(tx *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	if err := tx.Preload("User").First(&post, postID).Error; err != nil {
		return nil, err
	}
	post.FillAuthor()
	return &post, nil
}

func wrapTxError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
