package domain

import "time"

// Post is a blog entry owned by the identity that created it.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content,omitempty" bson:"content"`
	ImagePath string    `json:"image_path,omitempty" bson:"image_path,omitempty"`
	Owner     string    `json:"owner" bson:"owner"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Preview strips the body so the post can be shown to anonymous callers.
func (p Post) Preview() Post {
	p.Content = ""
	return p
}

// PostDraft carries the caller-supplied fields of a create or update.
type PostDraft struct {
	Title     string
	Content   string
	ImagePath string
}
