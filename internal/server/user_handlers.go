package server

import (
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// UpdateMeRequest is the body of PATCH /api/user/current/me. Omitted fields are kept.
type UpdateMeRequest struct {
	Fullname    *string `json:"fullname" validate:"omitempty,min=1,max=100"`
	Mail        *string `json:"mail" validate:"omitempty,email"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,dob"`
	Password    *string `json:"password" validate:"omitempty,password"`
}

// GetUser handles GET /api/user/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.PublicUser
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetPublicUser(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// GetMe handles GET /api/user/current/me
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /user/current/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateMe handles PATCH /api/user/current/me
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateMeRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /user/current/me [patch]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req UpdateMeRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return nil
	}

	in := service.UpdateMeInput{
		UserID:   currentUserID(c),
		Fullname: req.Fullname,
		Mail:     req.Mail,
		Password: req.Password,
	}
	if req.DateOfBirth != nil {
		dob, err := validation.ParseDate(*req.DateOfBirth)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(map[string]string{"dateOfBirth": err.Error()}))
		}
		in.DateOfBirth = &dob
	}

	user, err := s.userService.UpdateMe(c.UserContext(), in)
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user)
}

// DeleteMe handles DELETE /api/user/current/me
// @Summary Delete current user
// @Description Removes the account with its posts, comments, votes and notifications
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /user/current/me [delete]
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := s.userService.DeleteMe(ctx, currentUserID(c)); err != nil {
		return s.respondServiceError(c, err)
	}

	if p, ok := middleware.PrincipalFrom(c); ok {
		if err := s.authService.Logout(ctx, p); err != nil {
			s.log.WarnContext(ctx, "failed to revoke session of deleted user", slog.String("error", err.Error()))
		}
	}
	s.clearSessionCookie(c)

	return c.JSON(fiber.Map{"message": "User deleted"})
}

// votedPostsHandler serves GET /api/user/current/userUpvotes and userDownvotes.
// @Summary Posts the current user voted on
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /user/current/userUpvotes [get]
// @Router /user/current/userDownvotes [get]
func (s *Server) votedPostsHandler(kind models.VoteKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := s.userService.VotedPosts(c.UserContext(), currentUserID(c), kind)
		if err != nil {
			return s.respondServiceError(c, err)
		}
		return c.JSON(posts)
	}
}
