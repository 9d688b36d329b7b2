package models

import "time"

// Comment is a reply to a post.
type Comment struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Content   string      `gorm:"not null" json:"content"`
	UserID    uint        `gorm:"not null;index" json:"userId"`
	User      *User       `gorm:"foreignKey:UserID" json:"-"`
	Author    *PublicUser `gorm:"-" json:"author,omitempty"`
	PostID    uint        `gorm:"not null;index" json:"postId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FillAuthor copies the preloaded User into the public Author projection.
func (c *Comment) FillAuthor() {
	if c.User != nil {
		pub := c.User.Public()
		c.Author = &pub
	}
}
