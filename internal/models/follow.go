package models

import "time"

// Follow records that User subscribes to the posts of Author.
// At most one row exists per (UserID, AuthorID) pair.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// AllModels lists every persisted type in migration order.
func AllModels() []interface{} {
	return []interface{}{&User{}, &Group{}, &Post{}, &Comment{}, &Follow{}}
}
