package service

import (
	"context"
	"errors"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or wrong password.
var ErrInvalidCredentials = errors.New("please enter a correct username and password")

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Signup validates the registration form and creates the account.
func (s *UserService) Signup(ctx context.Context, form validation.SignupForm) (*models.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if fields := validation.Validate(form); fields != nil {
		return nil, models.NewFieldValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, models.NewFieldValidationError(validation.AddError(nil, "username", "A user with that username already exists."))
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	return s.userRepo.IsAdmin(ctx, id)
}
