package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Description Vote notifications targeting the current user, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	notes, err := s.notificationService.ListForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(notes)
}

// MarkNotificationsRead handles POST /api/notifications/read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{updated=int}
// @Router /notifications/read [post]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	n, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"updated": n})
}
