// Package validation holds the input forms and their validation rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"yatube/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("groupslug", func(fl validator.FieldLevel) bool {
		return ValidateGroupSlug(fl.Field().String()) == nil
	})
}

// PostForm is the create/edit post input. Group holds a group id or is empty.
type PostForm struct {
	Text       string `form:"text" json:"text" validate:"required"`
	Group      string `form:"group" json:"group" validate:"omitempty,number"`
	ImageClear string `form:"image-clear" json:"-"`
}

// ClearImage reports whether the edit form asked to drop the current image.
func (f PostForm) ClearImage() bool {
	return f.ImageClear == "on" || f.ImageClear == "true"
}

// CommentForm is the add-comment input.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"required"`
}

// SignupForm is the account registration input.
type SignupForm struct {
	Username  string `form:"username" json:"username" validate:"required,max=150,username"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Password1 string `form:"password1" json:"-" validate:"required,min=8,max=128"`
	Password2 string `form:"password2" json:"-" validate:"required,eqfield=Password1"`
}

// LoginForm is the login input. Next is where to go after success.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"-" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// GroupForm is the admin group creation input.
type GroupForm struct {
	Title       string `form:"title" json:"title" validate:"required,max=200"`
	Slug        string `form:"slug" json:"slug" validate:"required,groupslug"`
	Description string `form:"description" json:"description"`
}

// Validate checks form against its rules and returns the errors keyed by form field,
// or nil when the form is valid.
func Validate(form any) map[string][]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return map[string][]string{models.NonFieldErrors: {err.Error()}}
	}

	fields := make(map[string][]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return fields
}

// AddError appends msg to the errors of field, allocating the map when needed.
func AddError(fields map[string][]string, field, msg string) map[string][]string {
	if fields == nil {
		fields = make(map[string][]string)
	}
	fields[field] = append(fields[field], msg)
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "number":
		return "Select a valid choice."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "groupslug":
		if err := ValidateGroupSlug(fe.Value().(string)); err != nil {
			return err.Error()
		}
	case "eqfield":
		return "The two password fields didn't match."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
