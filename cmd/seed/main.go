// Command main runs the database seeder for Agora.
package main

import (
	"context"
	"flag"
	"log"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/observability"
	"agora/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	// Parse command line flags
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	voteRatio := flag.Float64("vote-ratio", defaults.VoteRatio, "Chance that a user votes on another user's post")
	upvoteRatio := flag.Float64("upvote-ratio", defaults.UpvoteRatio, "Share of votes that are upvotes")
	randSeed := flag.Int64("rand-seed", 0, "Faker seed (0 picks a random one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	logger := observability.NewLogger(cfg.Env)

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := defaults
	opts.Users = *numUsers
	opts.PostsPerUser = *postsPerUser
	opts.CommentsPerPost = *commentsPerPost
	opts.VoteRatio = *voteRatio
	opts.UpvoteRatio = *upvoteRatio
	opts.RandSeed = *randSeed
	opts.BcryptCost = cfg.BcryptCost

	s, err := seed.NewSeeder(db, opts, logger)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments, %d upvotes, %d downvotes",
		sum.Users, sum.Posts, sum.Comments, sum.Upvotes, sum.Downvotes)
	log.Printf("All seeded users have the password: %s", opts.Password)
}
