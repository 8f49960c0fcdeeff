package api

import (
	"github.com/jrsteele09/go-social-client/posts"
	"github.com/jrsteele09/go-social-client/users"
)

// RegisterRequest creates a backend profile from a verified provider
// credential. Bio and AvatarURL are optional; the backend falls back to the
// provider's claims when they are absent.
type RegisterRequest struct {
	IDToken   string  `json:"id_token"`
	Name      string  `json:"name"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"profile_picture_url,omitempty"`
}

// AuthResult is the register/login response: the backend profile plus the
// session token used as the bearer credential on subsequent calls.
type AuthResult struct {
	Profile     *users.Profile `json:"user"`
	AccessToken string         `json:"access_token"`
}

// VerifyResult reports whether a backend profile exists for a provider
// credential. Profile and AccessToken are set only when Exists is true.
type VerifyResult struct {
	Exists      bool           `json:"exists"`
	Profile     *users.Profile `json:"user,omitempty"`
	AccessToken string         `json:"access_token,omitempty"`
}

type createPostRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

type userEnvelope struct {
	User *users.Profile `json:"user"`
}

type postEnvelope struct {
	Post *posts.Post `json:"post"`
}

type postsEnvelope struct {
	Posts []posts.Post `json:"posts"`
}

type healthEnvelope struct {
	Status string `json:"status"`
}
