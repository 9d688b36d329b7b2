// Package service holds the forum's business rules between handlers and repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agora/internal/auth"
	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/repository"
)

// SessionStore revokes and checks session ids.
type SessionStore interface {
	RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	tokens   *auth.TokenIssuer
	sessions SessionStore
	log      *slog.Logger
}

type RegisterInput struct {
	Username    string
	Mail        string
	Fullname    string
	DateOfBirth time.Time
	Password    string
}

type LoginInput struct {
	Username string
	Password string
}

// LoginResult is a freshly signed session.
type LoginResult struct {
	Token     string
	Principal auth.Principal
	User      *models.User
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher *auth.Hasher,
	tokens *auth.TokenIssuer,
	sessions SessionStore,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		log:      log,
	}
}

// Register creates an account. Duplicate usernames and mails are conflicts.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(models.CodeUsernameExisted, "Username already taken")
	}

	existing, err = s.userRepo.GetByMail(ctx, in.Mail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(models.CodeUserMailExisted, "Mail already registered")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:    in.Username,
		Mail:        in.Mail,
		Fullname:    in.Fullname,
		DateOfBirth: in.DateOfBirth,
		Password:    digest,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Login checks credentials and signs a token. Unknown users and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(in.Password, user.Password) {
		return nil, models.NewAppError(models.CodeInvalidCredentials, "Could not find user or wrong password")
	}

	token, principal, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{Token: token, Principal: principal, User: user}, nil
}

// Authenticate decodes token and rejects revoked sessions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	p, err := s.tokens.Decode(token)
	if err != nil {
		return auth.Principal{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	if s.sessions != nil {
		revoked, err := s.sessions.IsRevoked(ctx, p.SessionID)
		if err != nil {
			// Redis trouble should not lock everyone out.
			s.log.WarnContext(ctx, "session revocation check failed", slog.String("error", err.Error()))
		} else if revoked {
			return auth.Principal{}, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return p, nil
}

// Logout revokes the principal's session until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, p auth.Principal) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, p.SessionID, p.ExpiresAt); err != nil {
		if errors.Is(err, cache.ErrNoRedis) {
			s.log.WarnContext(ctx, "logout without redis: token stays valid until expiry")
			return nil
		}
		return models.NewInternalError(err)
	}
	return nil
}
