package server

import (
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ListGroups handles GET /admin/groups/
func (s *Server) ListGroups(c *fiber.Ctx) error {
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"groups": groups})
}

// CreateGroup handles POST /admin/groups/
// @Summary Create a group
// @Tags admin
// @Accept x-www-form-urlencoded
// @Param title formData string true "Title"
// @Param slug formData string true "Slug"
// @Param description formData string false "Description"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/groups/ [post]
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	var form validation.GroupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	group, err := s.groupService.CreateGroup(c.UserContext(), form)
	if err != nil {
		return renderFormErrors(c, err, fiber.Map{"form": form})
	}
	middleware.Logger.InfoContext(c.UserContext(), "group created", "group_id", group.ID, "slug", group.Slug)
	return c.Status(fiber.StatusCreated).JSON(group)
}

// ClearCache handles POST /admin/cache/clear/
// @Summary Clear the page cache
// @Description Drops every cached page so the next request renders fresh content.
// @Tags admin
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/cache/clear/ [post]
func (s *Server) ClearCache(c *fiber.Ctx) error {
	if err := s.pages.Reset(); err != nil {
		return err
	}
	middleware.Logger.InfoContext(c.UserContext(), "page cache cleared")
	return c.JSON(fiber.Map{"message": "Page cache cleared"})
}
