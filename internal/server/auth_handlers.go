package server

import (
	"time"

	"agora/internal/auth"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"
	"agora/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,username"`
	Mail        string `json:"mail" validate:"required,email"`
	Fullname    string `json:"fullname" validate:"required,min=1,max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,dob"`
	Password    string `json:"password" validate:"required,password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	KeepLogin bool   `json:"keepLogin"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a forum account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return nil
	}

	dob, err := validation.ParseDate(req.DateOfBirth)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{"dateOfBirth": err.Error()}))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:    req.Username,
		Mail:        req.Mail,
		Fullname:    req.Fullname,
		DateOfBirth: dob,
		Password:    req.Password,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(user.Public())
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Check credentials, return a token and set the jwt cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} object{token=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := s.bindAndValidate(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}

	cookie := &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.config.IsProduction(),
	}
	if req.KeepLogin {
		cookie.Expires = res.Principal.ExpiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)

	return c.JSON(fiber.Map{"token": res.Token})
}

// Logout handles POST /api/auth/logout and POST /api/user/logout
// @Summary Logout
// @Description Revoke the current session and clear the jwt cookie
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
// @Router /user/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	if err := s.authService.Logout(c.UserContext(), p); err != nil {
		return s.respondServiceError(c, err)
	}

	s.clearSessionCookie(c)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.config.IsProduction(),
	})
}
