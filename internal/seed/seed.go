// Package seed fills the database with fixture groups and generated demo content.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	PostsPerUser int
	// FollowRatio is the chance that a user follows another given user.
	FollowRatio float64
	// Seed fixes the random source; zero picks one from the clock.
	Seed int64
}

// Seeder generates demo users, posts, comments and follows.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	rng   *rand.Rand
}

func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ClearAll removes every row the seeder may create, children first.
func (s *Seeder) ClearAll() error {
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	log.Println("✓ existing data cleared")
	return nil
}

// Run generates users, their posts across groups, follows and a few comments.
func (s *Seeder) Run(groups []models.Group, opts Options) error {
	users, err := s.Users(opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("✓ %d users created", len(users))

	posts, err := s.Posts(users, groups, opts.PostsPerUser)
	if err != nil {
		return err
	}
	log.Printf("✓ %d posts created", len(posts))

	follows, err := s.Follows(users, opts.FollowRatio)
	if err != nil {
		return err
	}
	log.Printf("✓ %d follows created", follows)

	comments, err := s.Comments(users, posts)
	if err != nil {
		return err
	}
	log.Printf("✓ %d comments created", comments)
	return nil
}

func (s *Seeder) Users(n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		users = append(users, models.User{
			Username:  fmt.Sprintf("%s.%s%d", strings.ToLower(first), strings.ToLower(last), s.faker.Number(100, 999)),
			Email:     s.faker.Email(),
			FirstName: first,
			LastName:  last,
			Password:  string(hash),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// Posts gives every user perUser posts spread over the last month. Roughly a
// third of them are left without a group.
func (s *Seeder) Posts(users []models.User, groups []models.Group, perUser int) ([]models.Post, error) {
	now := time.Now()
	posts := make([]models.Post, 0, len(users)*perUser)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			post := models.Post{
				Text:      s.faker.Paragraph(1, 3, 12, "\n"),
				AuthorID:  u.ID,
				CreatedAt: now.Add(-time.Duration(s.rng.Int63n(int64(30 * 24 * time.Hour)))),
			}
			if len(groups) > 0 && s.rng.Intn(3) > 0 {
				id := groups[s.rng.Intn(len(groups))].ID
				post.GroupID = &id
			}
			posts = append(posts, post)
		}
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := s.db.CreateInBatches(&posts, 100).Error; err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	return posts, nil
}

// Follows links user pairs with the given probability; nobody follows themselves.
func (s *Seeder) Follows(users []models.User, ratio float64) (int, error) {
	var follows []models.Follow
	for _, u := range users {
		for _, a := range users {
			if u.ID == a.ID || s.rng.Float64() >= ratio {
				continue
			}
			follows = append(follows, models.Follow{UserID: u.ID, AuthorID: a.ID})
		}
	}
	if len(follows) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&follows, 200).Error; err != nil {
		return 0, fmt.Errorf("create follows: %w", err)
	}
	return len(follows), nil
}

// Comments adds up to three comments from random users to every post.
func (s *Seeder) Comments(users []models.User, posts []models.Post) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}
	var comments []models.Comment
	for _, p := range posts {
		for i := s.rng.Intn(4); i > 0; i-- {
			comments = append(comments, models.Comment{
				PostID:   p.ID,
				AuthorID: users[s.rng.Intn(len(users))].ID,
				Text:     s.faker.Sentence(s.faker.Number(4, 16)),
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&comments, 200).Error; err != nil {
		return 0, fmt.Errorf("create comments: %w", err)
	}
	return len(comments), nil
}
