package models

// Group is a community that posts can optionally belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (g Group) String() string {
	return g.Title
}
