package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// voteHandler serves POST and DELETE on /api/posts/:id/upvote and /downvote.
// @Summary Vote on a post
// @Description POST applies the vote, DELETE undoes it. Upvotes and downvotes exclude each other.
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/upvote [post]
// @Router /posts/{id}/upvote [delete]
// @Router /posts/{id}/downvote [post]
// @Router /posts/{id}/downvote [delete]
func (s *Server) voteHandler(kind models.VoteKind, undo bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		in := service.VoteInput{
			UserID: currentUserID(c),
			PostID: postID,
			Kind:   kind,
		}

		var post *models.Post
		if undo {
			post, err = s.voteService.Unvote(c.UserContext(), in)
		} else {
			post, err = s.voteService.Vote(c.UserContext(), in)
		}
		if err != nil {
			return s.respondServiceError(c, err)
		}

		return c.JSON(post)
	}
}
