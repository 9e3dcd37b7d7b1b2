package server

import (
	"errors"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// LoginForm handles GET /auth/login/
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"form": validation.LoginForm{Next: c.Query("next")},
		"next": c.Query("next"),
	})
}

// Login handles POST /auth/login/
// @Summary Log in
// @Description Starts a session cookie and redirects to next.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next formData string false "Where to go afterwards"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}
	ctx := fiber.Map{"form": form, "next": form.Next}

	if fields := validation.Validate(form); fields != nil {
		return renderFormErrors(c, models.NewFieldValidationError(fields), ctx)
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		middleware.Logger.InfoContext(c.UserContext(), "failed login", "username", form.Username)
		fields := validation.AddError(nil, models.NonFieldErrors, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
		return renderFormErrors(c, models.NewFieldValidationError(fields), ctx)
	}
	if err != nil {
		return err
	}

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect(safeNext(form.Next), fiber.StatusFound)
}

// SignupForm handles GET /auth/signup/
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"form": validation.SignupForm{}})
}

// Signup handles POST /auth/signup/
// @Summary Register
// @Description Creates an account, logs it in and redirects to the index.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Username"
// @Param email formData string false "Email"
// @Param password1 formData string true "Password"
// @Param password2 formData string true "Password confirmation"
// @Success 302
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	if err := c.BodyParser(&form); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), form)
	if err != nil {
		return renderFormErrors(c, err, fiber.Map{"form": form})
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed up", "user_id", user.ID)

	if err := s.startSession(c, user); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// Logout handles POST /auth/logout/
// @Summary Log out
// @Description Revokes the current session.
// @Tags auth
// @Success 200 {object} object{message=string}
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	s.endSession(c)
	return c.JSON(fiber.Map{"message": "You have been logged out."})
}
