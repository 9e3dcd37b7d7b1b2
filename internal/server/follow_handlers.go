package server

import (
	"yatube/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/
// @Summary Feed of followed authors
// @Description Posts by the authors the current user follows, newest first.
// @Tags follows
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} object{page_obj=object}
// @Failure 302
// @Router /follow/ [get]
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	page, err := s.postService.ListFeed(c.UserContext(), userID, pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"page_obj": s.viewPage(page)})
}

// ProfileFollow handles GET /profile/:username/follow/
// @Summary Follow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/follow/ [get]
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	author, err := s.followService.Follow(c.UserContext(), userID, c.Params("username"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/
// @Summary Unfollow an author
// @Tags follows
// @Param username path string true "Username"
// @Success 302
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/unfollow/ [get]
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	author, err := s.followService.Unfollow(c.UserContext(), userID, c.Params("username"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Redirect(profilePath(author.Username), fiber.StatusFound)
}
