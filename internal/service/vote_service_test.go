package service

import (
	"context"
	"errors"
	"testing"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteService_RejectsUnknownKind(t *testing.T) {
	t.Parallel()
	svc := NewVoteService(noopVoteRepo(), noopUserRepo(), noopNotificationRepo(), nil, observability.Discard())

	_, err := svc.Vote(context.Background(), VoteInput{UserID: 1, PostID: 1, Kind: "sidevote"})
	assertValidationError(t, err)
}

func TestVoteService_UnknownUser(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	voteRepo := noopVoteRepo()
	voteRepo.applyFn = func(context.Context, models.VoteKind, uint, uint) (*models.Post, *models.Notification, error) {
		t.Fatal("apply should not run for unknown users")
		return nil, nil, nil
	}
	svc := NewVoteService(voteRepo, userRepo, noopNotificationRepo(), nil, observability.Discard())

	_, err := svc.Vote(context.Background(), VoteInput{UserID: 5, PostID: 1, Kind: models.VoteUp})
	assertCode(t, err, models.CodeUserNotExisted)
}

func TestVoteService_PublishesAfterApply(t *testing.T) {
	t.Parallel()

	voteRepo := noopVoteRepo()
	voteRepo.applyFn = func(_ context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, *models.Notification, error) {
		return &models.Post{ID: postID, Upvote: 1},
			&models.Notification{ID: 1, TargetID: 2, InteractorID: userID, PostID: postID, Kind: kind}, nil
	}
	var hydrated bool
	notifRepo := noopNotificationRepo()
	notifRepo.hydrateFn = func(_ context.Context, n *models.Notification) error {
		hydrated = true
		n.Interactor = &models.PublicUser{ID: n.InteractorID, Username: "bob"}
		return nil
	}
	pub := &publisherStub{}
	svc := NewVoteService(voteRepo, noopUserRepo(), notifRepo, pub, observability.Discard())

	post, err := svc.Vote(context.Background(), VoteInput{UserID: 3, PostID: 9, Kind: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.Upvote)
	assert.True(t, hydrated)
	require.Equal(t, 1, pub.count())
	assert.Equal(t, "bob", pub.sent[0].Interactor.Username)
}

func TestVoteService_PublishFailureDoesNotFailVote(t *testing.T) {
	t.Parallel()

	voteRepo := noopVoteRepo()
	voteRepo.applyFn = func(_ context.Context, kind models.VoteKind, userID, postID uint) (*models.Post, *models.Notification, error) {
		return &models.Post{ID: postID}, &models.Notification{TargetID: 2, InteractorID: userID, Kind: kind}, nil
	}
	pub := &publisherStub{err: errors.New("redis gone")}
	svc := NewVoteService(voteRepo, noopUserRepo(), noopNotificationRepo(), pub, observability.Discard())

	_, err := svc.Vote(context.Background(), VoteInput{UserID: 3, PostID: 9, Kind: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.count())
}

func TestVoteService_SelfVoteIsNotPublished(t *testing.T) {
	t.Parallel()

	pub := &publisherStub{}
	svc := NewVoteService(noopVoteRepo(), noopUserRepo(), noopNotificationRepo(), pub, observability.Discard())

	_, err := svc.Vote(context.Background(), VoteInput{UserID: 3, PostID: 9, Kind: models.VoteUp})
	require.NoError(t, err)
	assert.Zero(t, pub.count())
}

func TestVoteService_EndToEnd(t *testing.T) {
	db := setupSQLite(t)
	store, _ := setupStore(t)
	userRepo := repository.NewUserRepository(db, store)
	pub := &publisherStub{}
	svc := NewVoteService(
		repository.NewVoteRepository(db, store),
		userRepo,
		repository.NewNotificationRepository(db),
		pub,
		observability.Discard(),
	)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Mail: "alice@example.com", Fullname: "Alice", Password: "x"}
	bob := &models.User{Username: "bob", Mail: "bob@example.com", Fullname: "Bob", Password: "x"}
	require.NoError(t, userRepo.Create(ctx, alice))
	require.NoError(t, userRepo.Create(ctx, bob))
	post := &models.Post{Title: "hello", Content: "world", UserID: alice.ID}
	require.NoError(t, db.Create(post).Error)

	_, err := svc.Unvote(ctx, VoteInput{UserID: bob.ID, PostID: post.ID, Kind: models.VoteUp})
	assertCode(t, err, models.CodeNotUpvoteYet)

	got, err := svc.Vote(ctx, VoteInput{UserID: bob.ID, PostID: post.ID, Kind: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Upvote)

	_, err = svc.Vote(ctx, VoteInput{UserID: bob.ID, PostID: post.ID, Kind: models.VoteUp})
	assertCode(t, err, models.CodeAlreadyUpvoted)

	_, err = svc.Vote(ctx, VoteInput{UserID: bob.ID, PostID: post.ID, Kind: models.VoteDown})
	assertCode(t, err, models.CodeAlreadyUpvoted)

	require.Equal(t, 1, pub.count())
	note := pub.sent[0]
	assert.Equal(t, alice.ID, note.TargetID)
	require.NotNil(t, note.Interactor)
	assert.Equal(t, "bob", note.Interactor.Username)

	got, err = svc.Unvote(ctx, VoteInput{UserID: bob.ID, PostID: post.ID, Kind: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Upvote)
}
