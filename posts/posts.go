package posts

import (
	"time"

	"github.com/jrsteele09/go-social-client/users"
)

// Post as returned by the posts endpoints. The backend enriches each post
// with the author's current display name and avatar.
type Post struct {
	ID            string  `json:"id,omitempty"`
	UserID        string  `json:"user_id,omitempty"`
	UserName      string  `json:"user_name,omitempty"`
	UserAvatarURL *string `json:"user_profile_picture,omitempty"`
	Content       string  `json:"content"`
	ImageURL      *string `json:"image_url,omitempty"`
	LikesCount    int     `json:"likes_count"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

func (p *Post) CreatedTime() (time.Time, error) {
	return users.ParseTimestamp(p.CreatedAt)
}
