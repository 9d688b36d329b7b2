package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	// ServerSecretHeader authenticates internal peers joining a user's room.
	ServerSecretHeader = "X-Server-Secret"

	localNotifyRoom = "notifyRoom"

	initialListTimeout = 5 * time.Second
)

// handshakeField reads a handshake value from the query string, then headers, then cookies.
func handshakeField(c *fiber.Ctx, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	if v := c.Get(name); v != "" {
		return v
	}
	return c.Cookies(name)
}

// NotificationUpgrade authenticates a websocket handshake on /api/ws/notifications
// and picks the room (user id) whose notifications the socket receives.
// Users authenticate with their session token; internal peers send
// isServer=true, serverRoom and the shared X-Server-Secret.
func (s *Server) NotificationUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	room, err := s.resolveRoom(c)
	if err != nil {
		appErr := models.AsAppError(err)
		return models.RespondWithError(c, appErr.Status(), appErr)
	}

	c.Locals(localNotifyRoom, room)
	return c.Next()
}

func (s *Server) resolveRoom(c *fiber.Ctx) (uint, error) {
	if isServer, _ := strconv.ParseBool(handshakeField(c, "isServer")); isServer {
		secret := s.config.ServerPeerSecret
		given := c.Get(ServerSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			return 0, models.NewUnauthorizedError("Invalid server credentials")
		}

		room, err := strconv.ParseUint(strings.TrimSpace(handshakeField(c, "serverRoom")), 10, 64)
		if err != nil || room == 0 {
			return 0, models.NewValidationError("Invalid serverRoom")
		}
		return uint(room), nil
	}

	token := handshakeField(c, "token")
	if token == "" {
		token = middleware.TokenFromRequest(c)
	}
	if token == "" {
		return 0, models.NewUnauthorizedError("Authorization required")
	}

	p, err := s.authService.Authenticate(c.UserContext(), token)
	if err != nil {
		return 0, err
	}
	middleware.SetPrincipal(c, p)
	return p.UserID, nil
}

// NotificationChannel returns the websocket handler. It writes the room's
// notifications as one "notification" frame and then streams live
// "vote_notification" frames until the peer disconnects.
func (s *Server) NotificationChannel() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		room, ok := conn.Locals(localNotifyRoom).(uint)
		if !ok || room == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(room, conn)
		if err != nil {
			s.log.Warn("notification socket rejected",
				slog.Uint64("user_id", uint64(room)), slog.String("error", err.Error()))
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		}

		// Live frames queue in client.Send until WritePump starts, so the
		// initial list is always the first frame.
		if err := s.writeInitialNotifications(conn, room); err != nil {
			s.log.Warn("failed to send initial notifications",
				slog.Uint64("user_id", uint64(room)), slog.String("error", err.Error()))
			s.hub.UnregisterClient(client)
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) writeInitialNotifications(conn *websocket.Conn, room uint) error {
	ctx, cancel := context.WithTimeout(s.shutdownCtx, initialListTimeout)
	defer cancel()

	notes, err := s.notificationService.ListForUser(ctx, room)
	if err != nil {
		return err
	}
	if notes == nil {
		notes = []*models.Notification{}
	}

	frame, err := notifications.Encode(notifications.TypeNotification, notes)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(initialListTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}
