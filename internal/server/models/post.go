package models

import "time"

// Post is an image post. OwnerID never changes after creation.
type Post struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	ImageHandle string
	CreatedAt   time.Time
}

// Profile is a user together with the posts listed in its PostIDs.
type Profile struct {
	User  *User
	Posts []*Post
}

// FeedItem is a post joined with its owner, as seen by a viewer.
type FeedItem struct {
	Post    *Post
	Owner   *User
	IsOwner bool
}
