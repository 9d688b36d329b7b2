package models

import "time"

// VoteKind distinguishes the two vote polarities.
type VoteKind string

const (
	VoteUp   VoteKind = "upvote"
	VoteDown VoteKind = "downvote"
)

// Opposite returns the other polarity.
func (k VoteKind) Opposite() VoteKind {
	if k == VoteUp {
		return VoteDown
	}
	return VoteUp
}

// Valid reports whether k is a known polarity.
func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// Upvote records that a user upvoted a post.
// The combination of UserID and PostID must be unique.
type Upvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_upvote_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_upvote_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Downvote records that a user downvoted a post.
// The combination of UserID and PostID must be unique.
type Downvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_downvote_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_downvote_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}
