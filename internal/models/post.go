package models

import "time"

// shortTextLen is how many characters of a text String() shows.
const shortTextLen = 15

// Post is a text entry written by an author, optionally in a group and with an image.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a storage key such as "posts/small.gif"; empty when the post has none.
	Image        string    `gorm:"size:255" json:"image,omitempty"`
	ImagePreview string    `gorm:"size:255" json:"image_preview,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt    time.Time `json:"-"`
}

func (p Post) String() string {
	return truncateRunes(p.Text, shortTextLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
