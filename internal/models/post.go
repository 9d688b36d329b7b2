package models

import "time"

// Post is a forum thread starter. Upvote and Downvote are denormalized counts
// of the rows in the upvotes and downvotes tables for this post; only the vote
// repository writes them.
type Post struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Title     string      `gorm:"not null" json:"title"`
	Content   string      `gorm:"not null" json:"content"`
	UserID    uint        `gorm:"not null;index" json:"userId"`
	User      *User       `gorm:"foreignKey:UserID" json:"-"`
	Author    *PublicUser `gorm:"-" json:"author,omitempty"`
	Upvote    int64       `gorm:"not null;default:0" json:"upvote"`
	Downvote  int64       `gorm:"not null;default:0" json:"downvote"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FillAuthor copies the preloaded User into the public Author projection.
func (p *Post) FillAuthor() {
	if p.User != nil {
		pub := p.User.Public()
		p.Author = &pub
	}
}
