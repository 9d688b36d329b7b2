package models

import "time"

// Notification tells TargetID that InteractorID voted on one of their posts.
type Notification struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	TargetID     uint        `gorm:"not null;index" json:"targetId"`
	Target       *PublicUser `gorm:"-" json:"target,omitempty"`
	InteractorID uint        `gorm:"not null" json:"interactorId"`
	Interactor   *PublicUser `gorm:"-" json:"interactor,omitempty"`
	PostID       uint        `gorm:"not null;index" json:"postId"`
	Kind         VoteKind    `gorm:"type:varchar(16);not null" json:"kind"`
	Read         bool        `gorm:"not null;default:false" json:"read"`
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
}
