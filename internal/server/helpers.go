package server

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errorHandler turns unhandled handler errors into the JSON error envelope.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

// NotFound answers every request no route matched.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "Page not found",
		"code":  "NOT_FOUND",
		"path":  c.Path(),
	})
}

// parseID extracts a route parameter by name as a positive uint.
// Anything else is reported as a missing page, like an unmatched route.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Page", c.Params(param))
	}
	return uint(id), nil
}

// handleServiceError maps service errors onto responses. Errors it does not
// recognize are returned to the fiber error handler.
func handleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case models.IsNotFound(err):
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.IsValidation(err):
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	default:
		return err
	}
}

// renderFormErrors redisplays a form context with its errors. Non-validation
// errors go through handleServiceError.
func renderFormErrors(c *fiber.Ctx, err error, ctx fiber.Map) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		return handleServiceError(c, err)
	}
	ctx["error"] = appErr.Message
	ctx["code"] = appErr.Code
	ctx["errors"] = appErr.Fields
	return c.Status(fiber.StatusBadRequest).JSON(ctx)
}

// loginRedirect builds LOGIN_URL?next=<current path> with slashes left readable.
func (s *Server) loginRedirect(c *fiber.Ctx) string {
	next := strings.ReplaceAll(url.QueryEscape(c.OriginalURL()), "%2F", "/")
	sep := "?"
	if strings.Contains(s.config.LoginURL, "?") {
		sep = "&"
	}
	return s.config.LoginURL + sep + "next=" + next
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return next
}

func profilePath(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// readImage returns the "image" upload of a multipart form, or nil when the
// request carries none.
func readImage(c *fiber.Ctx, limit int64) (*service.ImageUpload, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}
	files := form.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// One byte over the limit is enough for the media service to reject it.
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &service.ImageUpload{Filename: fh.Filename, Content: content}, nil
}

func (s *Server) uploadLimit() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
}
