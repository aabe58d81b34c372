package model

import "time"

// Comment is a reply attached to a Post.
//
// PostTitle is only filled by the per-user listing, which joins the parent
// post so the profile page can show what each comment answered.
type Comment struct {
	ID         int64
	Content    string
	PostID     int64
	AuthorID   *int64
	AuthorName *string
	PostTitle  *string
	CreatedAt  *time.Time
}

// OwnedBy reports whether userID authored the comment.
func (c *Comment) OwnedBy(userID int64) bool {
	return c.AuthorID != nil && *c.AuthorID == userID
}
