// Package seed provides helpers to create demo data for development
// databases. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the plain password every seeded user logs in with.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them through the repositories.
// Votes go through VoteRepository.Apply and record notifications.
type Factory struct {
	faker    *gofakeit.Faker
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	votes    repository.VoteRepository

	digest  string
	maxDays int
	seq     int
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	password := opts.Password
	if password == "" {
		password = DefaultPassword
	}
	// One digest serves every seeded user.
	digest, err := auth.NewHasher(opts.BcryptCost).Hash(password)
	if err != nil {
		return nil, err
	}

	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}

	return &Factory{
		faker:    gofakeit.New(opts.RandSeed),
		users:    repository.NewUserRepository(db, nil),
		posts:    repository.NewPostRepository(db, nil),
		comments: repository.NewCommentRepository(db),
		votes:    repository.NewVoteRepository(db, nil),
		digest:   digest,
		maxDays:  maxDays,
	}, nil
}

// username turns a faker handle into one the register rules accept and
// suffixes a sequence number so it never collides.
func (f *Factory) username() string {
	f.seq++
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, f.faker.Username())
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	return fmt.Sprintf("%s%d", base, f.seq)
}

func (f *Factory) createdAt() time.Time {
	return time.Now().Add(-time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute)
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	username := f.username()
	user := &models.User{
		Username:    username,
		Mail:        strings.ToLower(username + "@" + f.faker.DomainName()),
		Fullname:    f.faker.Name(),
		DateOfBirth: f.faker.DateRange(time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2005, 12, 31, 0, 0, 0, 0, time.UTC)),
		Password:    f.digest,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample post for the given user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 9)), "."),
		Content:   f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
		UserID:    user.ID,
		CreatedAt: f.createdAt(),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment constructs and persists a sample comment on post authored by user.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(f.faker.Number(4, 20)),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if !post.CreatedAt.IsZero() {
		comment.CreatedAt = post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
		if comment.CreatedAt.After(time.Now()) {
			comment.CreatedAt = time.Now()
		}
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Vote records user's vote of kind on post.
func (f *Factory) Vote(ctx context.Context, kind models.VoteKind, user *models.User, post *models.Post) error {
	_, _, err := f.votes.Apply(ctx, kind, user.ID, post.ID)
	return err
}

// PickKind returns an upvote with probability upRatio, otherwise a downvote.
func (f *Factory) PickKind(upRatio float64) models.VoteKind {
	if f.faker.Float64() < upRatio {
		return models.VoteUp
	}
	return models.VoteDown
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64() < p
}
