package service

import (
	"context"
	"log/slog"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

// NotificationPublisher delivers a committed vote notification to its target.
type NotificationPublisher interface {
	PublishVote(ctx context.Context, n *models.Notification) error
}

type VoteService struct {
	voteRepo  repository.VoteRepository
	userRepo  repository.UserRepository
	notifRepo repository.NotificationRepository
	publisher NotificationPublisher
	log       *slog.Logger
}

type VoteInput struct {
	UserID uint
	PostID uint
	Kind   models.VoteKind
}

// NewVoteService builds the service. publisher may be nil, in which case
// notifications are only stored.
func NewVoteService(
	voteRepo repository.VoteRepository,
	userRepo repository.UserRepository,
	notifRepo repository.NotificationRepository,
	publisher NotificationPublisher,
	log *slog.Logger,
) *VoteService {
	return &VoteService{
		voteRepo:  voteRepo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		publisher: publisher,
		log:       log,
	}
}

// Vote records in.Kind on the post and returns the post with fresh counters.
func (s *VoteService) Vote(ctx context.Context, in VoteInput) (*models.Post, error) {
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("Unknown vote kind")
	}
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	ctx, end := observability.StartSpan(ctx, "vote.apply")
	post, note, err := s.voteRepo.Apply(ctx, in.Kind, in.UserID, in.PostID)
	end(err)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}
	observability.VotesTotal.WithLabelValues(string(in.Kind), "apply").Inc()

	if note != nil {
		s.publish(ctx, note)
	}
	return post, nil
}

// Unvote removes the caller's in.Kind vote. The notification it produced stays.
func (s *VoteService) Unvote(ctx context.Context, in VoteInput) (*models.Post, error) {
	if !in.Kind.Valid() {
		return nil, models.NewValidationError("Unknown vote kind")
	}
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	ctx, end := observability.StartSpan(ctx, "vote.undo")
	post, err := s.voteRepo.Undo(ctx, in.Kind, in.UserID, in.PostID)
	end(err)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}
	observability.VotesTotal.WithLabelValues(string(in.Kind), "undo").Inc()
	return post, nil
}

func (s *VoteService) countRejection(err error) {
	switch code := models.AsAppError(err).Code; code {
	case models.CodeAlreadyUpvoted, models.CodeAlreadyDownvoted,
		models.CodeNotUpvoteYet, models.CodeNotDownvoteYet:
		observability.VoteRejections.WithLabelValues(code).Inc()
	}
}

// publish runs after commit; delivery failures never fail the vote.
func (s *VoteService) publish(ctx context.Context, note *models.Notification) {
	if s.publisher == nil {
		return
	}
	if s.notifRepo != nil {
		if err := s.notifRepo.Hydrate(ctx, note); err != nil {
			s.log.WarnContext(ctx, "failed to hydrate vote notification",
				slog.Uint64("notification_id", uint64(note.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := s.publisher.PublishVote(ctx, note); err != nil {
		s.log.WarnContext(ctx, "failed to publish vote notification",
			slog.Uint64("notification_id", uint64(note.ID)),
			slog.Uint64("target_id", uint64(note.TargetID)),
			slog.String("error", err.Error()),
		)
	}
}
