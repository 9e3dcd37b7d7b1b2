package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostString_TruncatesToFifteenRunes(t *testing.T) {
	p := Post{Text: strings.Repeat("я", 20)}
	assert.Equal(t, strings.Repeat("я", 15), p.String())

	short := Post{Text: "Тестовый"}
	assert.Equal(t, "Тестовый", short.String())
}

func TestCommentString(t *testing.T) {
	c := Comment{Text: "Комментарий к тестовому посту"}
	assert.Equal(t, "Комментарий к т", c.String())
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "Тестовая группа", Group{Title: "Тестовая группа"}.String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
	assert.Equal(t, "Leo Tolstoy", User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
}

func TestAppErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewNotFoundError("Group", "cats"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	inner := errors.New("boom")
	internal := NewInternalError(inner)
	assert.ErrorIs(t, internal, inner)
	assert.Contains(t, internal.Error(), "boom")

	fieldErr := NewFieldValidationError(map[string][]string{"text": {"required"}})
	assert.True(t, IsValidation(fieldErr))
}
