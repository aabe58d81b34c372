package handler

import (
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/timestamp"
)

// anonymous is shown when a post or comment has no resolvable author.
const anonymous = "anonymous"

type authorDTO struct {
	UserID   *int64 `json:"user_id"`
	Username string `json:"username"`
}

type postDTO struct {
	PostID    int64     `json:"post_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    authorDTO `json:"author"`
	CreatedAt string    `json:"created_at"`
}

type commentDTO struct {
	CommentID int64     `json:"comment_id"`
	Content   string    `json:"content"`
	PostID    int64     `json:"post_id"`
	Author    authorDTO `json:"author"`
	CreatedAt string    `json:"created_at"`
}

// userPostDTO and userCommentDTO are the personal-centre shapes. They
// carry no author block since the author is the caller.
type userPostDTO struct {
	PostID    int64  `json:"post_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type userCommentDTO struct {
	CommentID int64   `json:"comment_id"`
	Content   string  `json:"content"`
	PostID    int64   `json:"post_id"`
	PostTitle *string `json:"post_title"`
	CreatedAt string  `json:"created_at"`
}

type userDTO struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func newAuthor(id *int64, name *string) authorDTO {
	a := authorDTO{UserID: id, Username: anonymous}
	if name != nil && *name != "" {
		a.Username = *name
	}
	return a
}

func newPostDTO(p model.Post) postDTO {
	return postDTO{
		PostID:    p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    newAuthor(p.AuthorID, p.AuthorName),
		CreatedAt: timestamp.Normalize(p.CreatedAt),
	}
}

func newPostDTOs(posts []model.Post) []postDTO {
	out := make([]postDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, newPostDTO(p))
	}
	return out
}

func newCommentDTOs(comments []model.Comment) []commentDTO {
	out := make([]commentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentDTO{
			CommentID: c.ID,
			Content:   c.Content,
			PostID:    c.PostID,
			Author:    newAuthor(c.AuthorID, c.AuthorName),
			CreatedAt: timestamp.Normalize(c.CreatedAt),
		})
	}
	return out
}

func newUserPostDTOs(posts []model.Post) []userPostDTO {
	out := make([]userPostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, userPostDTO{
			PostID:    p.ID,
			Title:     p.Title,
			Content:   p.Content,
			CreatedAt: timestamp.Normalize(p.CreatedAt),
		})
	}
	return out
}

func newUserCommentDTOs(comments []model.Comment) []userCommentDTO {
	out := make([]userCommentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, userCommentDTO{
			CommentID: c.ID,
			Content:   c.Content,
			PostID:    c.PostID,
			PostTitle: c.PostTitle,
			CreatedAt: timestamp.Normalize(c.CreatedAt),
		})
	}
	return out
}

func newUserDTO(u *model.User) userDTO {
	return userDTO{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: timestamp.Normalize(u.CreatedAt),
	}
}
