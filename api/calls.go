package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-social-client/posts"
	"github.com/jrsteele09/go-social-client/users"
)

type credentialRequest struct {
	IDToken string `json:"id_token"`
}

func (g *Gateway) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var result AuthResult
	if err := g.do(ctx, http.MethodPost, "/api/auth/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *Gateway) Login(ctx context.Context, credential string) (*AuthResult, error) {
	var result AuthResult
	if err := g.do(ctx, http.MethodPost, "/api/auth/login", credentialRequest{IDToken: credential}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (g *Gateway) Verify(ctx context.Context, credential string) (*VerifyResult, error) {
	var result VerifyResult
	if err := g.do(ctx, http.MethodPost, "/api/auth/verify", credentialRequest{IDToken: credential}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentProfile fetches the caller's own profile.
func (g *Gateway) CurrentProfile(ctx context.Context) (*users.Profile, error) {
	var envelope userEnvelope
	if err := g.do(ctx, http.MethodGet, "/api/auth/profile", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.User, nil
}

func (g *Gateway) User(ctx context.Context, userID string) (*users.Profile, error) {
	var envelope userEnvelope
	if err := g.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.User, nil
}

func (g *Gateway) UpdateCurrentUser(ctx context.Context, update users.ProfileUpdate) (*users.Profile, error) {
	var envelope userEnvelope
	if err := g.do(ctx, http.MethodPut, "/api/users/me", update, &envelope); err != nil {
		return nil, err
	}
	return envelope.User, nil
}

func (g *Gateway) Posts(ctx context.Context, page, limit int) ([]posts.Post, error) {
	var envelope postsEnvelope
	path := fmt.Sprintf("/api/posts?page=%d&limit=%d", page, limit)
	if err := g.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Posts, nil
}

func (g *Gateway) UserPosts(ctx context.Context, userID string, page, limit int) ([]posts.Post, error) {
	var envelope postsEnvelope
	path := fmt.Sprintf("/api/posts/user/%s?page=%d&limit=%d", url.PathEscape(userID), page, limit)
	if err := g.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Posts, nil
}

// CreatePost submits a new post. A nil imageURL is serialized as null, which
// the backend treats as no attachment.
func (g *Gateway) CreatePost(ctx context.Context, content string, imageURL *string) (*posts.Post, error) {
	var envelope postEnvelope
	if err := g.do(ctx, http.MethodPost, "/api/posts", createPostRequest{Content: content, ImageURL: imageURL}, &envelope); err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

func (g *Gateway) Post(ctx context.Context, postID string) (*posts.Post, error) {
	var envelope postEnvelope
	if err := g.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID), nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

// LikePost increments the post's like count and returns the updated post.
func (g *Gateway) LikePost(ctx context.Context, postID string) (*posts.Post, error) {
	var envelope postEnvelope
	if err := g.do(ctx, http.MethodPut, "/api/posts/"+url.PathEscape(postID)+"/like", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Post, nil
}

func (g *Gateway) Health(ctx context.Context) (string, error) {
	var envelope healthEnvelope
	if err := g.do(ctx, http.MethodGet, "/api/health", nil, &envelope); err != nil {
		return "", err
	}
	return envelope.Status, nil
}

var _ posts.Creator = (*Gateway)(nil)
