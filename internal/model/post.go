package model

import "time"

// Post is a question posted to the forum.
//
// AuthorID and AuthorName are pointers because listings LEFT JOIN users:
// a post whose author row is missing still shows up, with a nil name.
type Post struct {
	ID         int64
	Title      string
	Content    string
	AuthorID   *int64
	AuthorName *string
	CreatedAt  *time.Time
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID int64) bool {
	return p.AuthorID != nil && *p.AuthorID == userID
}
