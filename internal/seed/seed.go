package seed

import (
	"context"
	"fmt"
	"log/slog"

	"agora/internal/database"
	"agora/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	// VoteRatio is the chance that a user votes on another user's post.
	VoteRatio float64
	// UpvoteRatio is the share of votes that are upvotes.
	UpvoteRatio float64
	Password    string
	BcryptCost  int
	MaxDays     int
	RandSeed    int64
}

// DefaultOptions returns the options cmd/seed uses when no flags are given.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    3,
		CommentsPerPost: 4,
		VoteRatio:       0.3,
		UpvoteRatio:     0.75,
		Password:        DefaultPassword,
		BcryptCost:      10,
		MaxDays:         90,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Posts     int
	Comments  int
	Upvotes   int
	Downvotes int
}

// Seeder populates a database with fake forum activity.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	log     *slog.Logger
	factory *Factory
}

// NewSeeder returns a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options, log *slog.Logger) (*Seeder, error) {
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Seeder{db: db, opts: opts, log: log, factory: factory}, nil
}

// ClearAll deletes every row from the forum tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	s.log.Info("Clearing existing data")
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.Notification{},
			&models.Upvote{},
			&models.Downvote{},
			&models.Comment{},
			&models.Post{},
			&models.User{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Run creates users, then their posts, then comments and votes on those posts.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	s.log.Info("Starting database seeding",
		slog.Int("users", s.opts.Users),
		slog.Int("posts_per_user", s.opts.PostsPerUser),
	)

	sum := &Summary{}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.factory.CreateUser(ctx)
		if err != nil {
			return sum, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	s.log.Info("Users created", slog.Int("count", sum.Users))

	var posts []*models.Post
	for _, u := range users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			p, err := s.factory.CreatePost(ctx, u)
			if err != nil {
				return sum, fmt.Errorf("failed to create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	sum.Posts = len(posts)
	s.log.Info("Posts created", slog.Int("count", sum.Posts))

	if len(users) == 0 {
		return sum, nil
	}

	for i, p := range posts {
		for j := 0; j < s.opts.CommentsPerPost; j++ {
			author := users[(i+j+1)%len(users)]
			if _, err := s.factory.CreateComment(ctx, author, p); err != nil {
				return sum, fmt.Errorf("failed to create comment: %w", err)
			}
			sum.Comments++
		}

		for _, voter := range users {
			if voter.ID == p.UserID || !s.factory.Chance(s.opts.VoteRatio) {
				continue
			}
			kind := s.factory.PickKind(s.opts.UpvoteRatio)
			if err := s.factory.Vote(ctx, kind, voter, p); err != nil {
				return sum, fmt.Errorf("failed to vote: %w", err)
			}
			if kind == models.VoteUp {
				sum.Upvotes++
			} else {
				sum.Downvotes++
			}
		}
	}
	s.log.Info("Engagement created",
		slog.Int("comments", sum.Comments),
		slog.Int("upvotes", sum.Upvotes),
		slog.Int("downvotes", sum.Downvotes),
	)

	return sum, nil
}

// Migrate applies the schema before seeding a fresh database.
func (s *Seeder) Migrate() error {
	return database.Migrate(s.db)
}
