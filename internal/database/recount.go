package database

import (
	"context"
	"fmt"

	"agora/internal/models"

	"gorm.io/gorm"
)

// RecountVotes rewrites every post's upvote and downvote counters from the
// vote tables and returns how many posts were touched.
func RecountVotes(ctx context.Context, db *gorm.DB) (int64, error) {
	var touched int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upvotes := tx.Model(&models.Upvote{}).
			Select("COUNT(*)").
			Where("upvotes.post_id = posts.id")
		downvotes := tx.Model(&models.Downvote{}).
			Select("COUNT(*)").
			Where("downvotes.post_id = posts.id")

		res := tx.Model(&models.Post{}).
			Where("1 = 1").
			UpdateColumns(map[string]interface{}{
				"upvote":   upvotes,
				"downvote": downvotes,
			})
		if res.Error != nil {
			return res.Error
		}
		touched = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("recount votes: %w", err)
	}
	return touched, nil
}
