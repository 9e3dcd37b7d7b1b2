package server

import (
	"errors"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /
// @Summary Latest posts
// @Description One page of all posts, newest first. Cached per page number.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} object{page_obj=object}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	page, err := s.postService.ListAll(c.UserContext(), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"page_obj": s.viewPage(page)})
}

// GroupPosts handles GET /group/:slug/
// @Summary Posts of a group
// @Tags posts
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} object{group=models.Group,page_obj=object}
// @Failure 404 {object} models.ErrorResponse
// @Router /group/{slug}/ [get]
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	gp, err := s.postService.ListGroup(c.UserContext(), c.Params("slug"), pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"group":    gp.Group,
		"page_obj": s.viewPage(gp.Page),
	})
}

// Profile handles GET /profile/:username/
// @Summary Posts of an author
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} object{author=models.User,full_name=string,count=int,following=bool,followers_count=int,following_count=int,page_obj=object}
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{username}/ [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	viewerID, _ := currentUserID(c)
	pp, err := s.postService.ListProfile(c.UserContext(), c.Params("username"), viewerID, pagination.ParseNumber(c.Query("page")))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"author":          pp.Author,
		"full_name":       pp.Author.FullName(),
		"count":           pp.Count,
		"following":       pp.Following,
		"followers_count": pp.Followers,
		"following_count": pp.Follows,
		"page_obj":        s.viewPage(pp.Page),
	})
}

// PostDetail handles GET /posts/:id/
// @Summary Single post with its comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{post=object,count=int,comments=[]models.Comment}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/ [get]
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	detail, err := s.postService.GetDetail(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"post":     s.viewPost(*detail.Post),
		"count":    detail.Count,
		"comments": detail.Comments,
		"form":     validation.CommentForm{},
	})
}

// postFormContext is what the create and edit pages render around the form.
func (s *Server) postFormContext(c *fiber.Ctx, form validation.PostForm, isEdit bool) (fiber.Map, error) {
	groups, err := s.postService.ListGroups(c.UserContext())
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"form":    form,
		"groups":  groups,
		"is_edit": isEdit,
	}, nil
}

// PostCreateForm handles GET /create/
func (s *Server) PostCreateForm(c *fiber.Ctx) error {
	ctx, err := s.postFormContext(c, validation.PostForm{}, false)
	if err != nil {
		return err
	}
	return c.JSON(ctx)
}

// PostCreate handles POST /create/
// @Summary Create a post
// @Description The author is always the logged-in user. Redirects to the author's profile.
// @Tags posts
// @Accept multipart/form-data
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID"
// @Param image formData file false "Image"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /create/ [post]
func (s *Server) PostCreate(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	image, err := readImage(c, s.uploadLimit())
	if err != nil {
		return handleServiceError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: userID,
		Form:     form,
		Image:    image,
	})
	if err != nil {
		ctx, ctxErr := s.postFormContext(c, form, false)
		if ctxErr != nil {
			return ctxErr
		}
		return renderFormErrors(c, err, ctx)
	}

	username, err := s.currentUsername(c, post.AuthorID)
	if err != nil {
		return err
	}
	return c.Redirect(profilePath(username), fiber.StatusFound)
}

// PostEditForm handles GET /posts/:id/edit/
func (s *Server) PostEditForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	userID, _ := currentUserID(c)

	post, err := s.postService.GetForEdit(c.UserContext(), id, userID)
	if errors.Is(err, service.ErrNotPostAuthor) {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}
	if err != nil {
		return handleServiceError(c, err)
	}

	form := validation.PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	ctx, err := s.postFormContext(c, form, true)
	if err != nil {
		return err
	}
	ctx["post"] = s.viewPost(*post)
	return c.JSON(ctx)
}

// PostEdit handles POST /posts/:id/edit/
// @Summary Edit a post
// @Description Only the author may edit; anyone else is sent back to the post.
// @Tags posts
// @Accept multipart/form-data
// @Param id path int true "Post ID"
// @Param text formData string true "Post text"
// @Param group formData int false "Group ID, empty to clear"
// @Param image formData file false "Replacement image"
// @Param image-clear formData string false "on to remove the image"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/edit/ [post]
func (s *Server) PostEdit(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	userID, _ := currentUserID(c)

	var form validation.PostForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	// The author check comes first so a stranger's upload is never read.
	if _, err := s.postService.GetForEdit(c.UserContext(), id, userID); err != nil {
		if errors.Is(err, service.ErrNotPostAuthor) {
			return c.Redirect(postPath(id), fiber.StatusFound)
		}
		return handleServiceError(c, err)
	}

	image, err := readImage(c, s.uploadLimit())
	if err != nil {
		return handleServiceError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID: id,
		UserID: userID,
		Form:   form,
		Image:  image,
	})
	if errors.Is(err, service.ErrNotPostAuthor) {
		return c.Redirect(postPath(id), fiber.StatusFound)
	}
	if err != nil {
		ctx, ctxErr := s.postFormContext(c, form, true)
		if ctxErr != nil {
			return ctxErr
		}
		return renderFormErrors(c, err, ctx)
	}
	return c.Redirect(postPath(post.ID), fiber.StatusFound)
}

// AddComment handles POST /posts/:id/comment/
// @Summary Comment on a post
// @Tags comments
// @Accept x-www-form-urlencoded
// @Param id path int true "Post ID"
// @Param text formData string true "Comment text"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comment/ [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}
	userID, _ := currentUserID(c)

	var form validation.CommentForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.commentService.AddComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: userID,
		PostID:   id,
		Form:     form,
	}); err != nil {
		return renderFormErrors(c, err, fiber.Map{"form": form})
	}
	return c.Redirect(postPath(id), fiber.StatusFound)
}

// currentUsername prefers the name cached in the session and falls back to the store.
func (s *Server) currentUsername(c *fiber.Ctx, userID uint) (string, error) {
	if name, ok := c.Locals("username").(string); ok && name != "" {
		return name, nil
	}
	user, err := s.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}
