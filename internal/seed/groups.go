package seed

import (
	"errors"
	"fmt"
	"os"

	"yatube/internal/models"
	"yatube/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupFixture is one group entry of a fixture file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type groupFile struct {
	Groups []GroupFixture `yaml:"groups"`
}

// LoadGroups reads group fixtures from a YAML file.
func LoadGroups(path string) ([]GroupFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseGroups(data)
}

// ParseGroups decodes and checks group fixtures.
func ParseGroups(data []byte) ([]GroupFixture, error) {
	var file groupFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	seen := make(map[string]bool, len(file.Groups))
	for i, g := range file.Groups {
		if g.Title == "" {
			return nil, fmt.Errorf("group %d: title is required", i)
		}
		if err := validation.ValidateGroupSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Title, err)
		}
		if seen[g.Slug] {
			return nil, fmt.Errorf("group %q: duplicate slug %q", g.Title, g.Slug)
		}
		seen[g.Slug] = true
	}
	return file.Groups, nil
}

// Groups upserts fixtures by slug and returns the stored rows.
func Groups(db *gorm.DB, fixtures []GroupFixture) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(fixtures))
	for _, item := range fixtures {
		group := models.Group{Title: item.Title, Slug: item.Slug, Description: item.Description}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description"}),
		}).Create(&group).Error; err != nil {
			return nil, fmt.Errorf("upsert group %q: %w", item.Slug, err)
		}

		if group.ID == 0 {
			if err := db.Where("slug = ?", item.Slug).First(&group).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("group %q missing after upsert", item.Slug)
				}
				return nil, err
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}
