// Package repository provides data access layer implementations for the application.
package repository

import (
	"fmt"

	"gorm.io/gorm"
)

type listingKind int

const (
	listingAll listingKind = iota
	listingGroup
	listingAuthor
	listingFollowed
)

// Listing selects which posts a page is cut from.
type Listing struct {
	kind listingKind
	id   uint
}

// AllPosts lists every post.
func AllPosts() Listing { return Listing{kind: listingAll} }

// GroupPosts lists the posts of one group.
func GroupPosts(groupID uint) Listing { return Listing{kind: listingGroup, id: groupID} }

// AuthorPosts lists the posts written by one user.
func AuthorPosts(authorID uint) Listing { return Listing{kind: listingAuthor, id: authorID} }

// FollowedPosts lists the posts of every author userID follows.
func FollowedPosts(userID uint) Listing { return Listing{kind: listingFollowed, id: userID} }

func (l Listing) String() string {
	switch l.kind {
	case listingGroup:
		return fmt.Sprintf("group:%d", l.id)
	case listingAuthor:
		return fmt.Sprintf("author:%d", l.id)
	case listingFollowed:
		return fmt.Sprintf("followed-by:%d", l.id)
	}
	return "all"
}

// Scope filters a posts query down to the listing.
func (l Listing) Scope(db *gorm.DB) *gorm.DB {
	switch l.kind {
	case listingGroup:
		return db.Where("posts.group_id = ?", l.id)
	case listingAuthor:
		return db.Where("posts.author_id = ?", l.id)
	case listingFollowed:
		return db.Where("posts.author_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Table("follows").
				Select("author_id").
				Where("user_id = ?", l.id),
		)
	}
	return db
}

// newestFirst orders posts by publication time with id as a stable tie-break.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}
