package service

import (
	"context"
	"time"

	"agora/internal/auth"
	"agora/internal/models"
	"agora/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
	voteRepo repository.VoteRepository
	hasher   *auth.Hasher
}

// UpdateMeInput carries the optional profile fields; nil means unchanged.
type UpdateMeInput struct {
	UserID      uint
	Fullname    *string
	Mail        *string
	DateOfBirth *time.Time
	Password    *string
}

func NewUserService(userRepo repository.UserRepository, voteRepo repository.VoteRepository, hasher *auth.Hasher) *UserService {
	return &UserService{userRepo: userRepo, voteRepo: voteRepo, hasher: hasher}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetPublicUser returns the projection visible to other users.
func (s *UserService) GetPublicUser(ctx context.Context, id uint) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}

func (s *UserService) UpdateMe(ctx context.Context, in UpdateMeInput) (*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if in.Fullname != nil {
		fields["fullname"] = *in.Fullname
	}
	if in.Mail != nil {
		existing, err := s.userRepo.GetByMail(ctx, *in.Mail)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != in.UserID {
			return nil, models.NewConflictError(models.CodeUserMailExisted, "Mail already registered")
		}
		fields["mail"] = *in.Mail
	}
	if in.DateOfBirth != nil {
		fields["date_of_birth"] = *in.DateOfBirth
	}
	if in.Password != nil {
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		fields["password"] = digest
	}

	if err := s.userRepo.Update(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

func (s *UserService) DeleteMe(ctx context.Context, userID uint) error {
	return s.userRepo.Delete(ctx, userID)
}

// VotedPosts lists the posts userID voted on with kind.
func (s *UserService) VotedPosts(ctx context.Context, userID uint, kind models.VoteKind) ([]*models.Post, error) {
	return s.voteRepo.ListVotedPosts(ctx, kind, userID)
}
