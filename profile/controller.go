// Package profile drives profile edits and the avatar pipeline: an image is
// compressed locally, uploaded to blob storage, and the resulting URL written
// to the user's profile in one flow. Any stage failing aborts the whole
// pipeline; the profile is never pointed at an object that failed to upload.
package profile

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-social-client/blob"
	"github.com/jrsteele09/go-social-client/internal/utils"
	"github.com/jrsteele09/go-social-client/session"
	"github.com/jrsteele09/go-social-client/users"
)

// Updater is the slice of the auth service the controller needs.
type Updater interface {
	UpdateProfile(ctx context.Context, update users.ProfileUpdate) (*users.Profile, error)
}

// Deps holds all dependencies for the Controller.
type Deps struct {
	Updater  Updater
	Blobs    blob.Store
	Sessions *session.Store
}

type Controller struct {
	deps         Deps
	maxBytes     int
	maxDimension int
	logger       zerolog.Logger
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithAvatarLimits overrides the compression bounds.
func WithAvatarLimits(maxBytes, maxDimension int) Option {
	return func(c *Controller) {
		c.maxBytes = maxBytes
		c.maxDimension = maxDimension
	}
}

func New(deps Deps, options ...Option) (*Controller, error) {
	if deps.Updater == nil {
		return nil, pkgerrors.New("[profile.New] Updater is required")
	}
	if deps.Blobs == nil {
		return nil, pkgerrors.New("[profile.New] Blobs store is required")
	}
	if deps.Sessions == nil {
		return nil, pkgerrors.New("[profile.New] Sessions store is required")
	}

	c := &Controller{
		deps:         deps,
		maxBytes:     1 << 20,
		maxDimension: 1024,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Update applies a partial edit to the signed-in user's profile.
func (c *Controller) Update(ctx context.Context, update users.ProfileUpdate) (*users.Profile, error) {
	return c.deps.Updater.UpdateProfile(ctx, update)
}

// UploadAvatar compresses the image, uploads it under the user's storage
// prefix and writes the resulting URL to the profile. The object name is
// random, so a re-upload never overwrites the previous avatar.
func (c *Controller) UploadAvatar(ctx context.Context, image io.Reader) (*users.Profile, error) {
	current := c.deps.Sessions.Current()
	if !current.Authenticated() {
		return nil, pkgerrors.Wrap(UploadErr, "not signed in")
	}

	data, err := compressAvatar(image, c.maxDimension, c.maxBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(UploadErr, err.Error())
	}

	objectPath := fmt.Sprintf("profile_pictures/%s/%s.jpg", c.storagePrefix(current.Profile), uuid.NewString())
	avatarURL, err := c.deps.Blobs.Upload(ctx, objectPath, data, "image/jpeg")
	if err != nil {
		c.logger.Err(err).Str("objectPath", objectPath).Msg("avatar upload failed")
		return nil, pkgerrors.Wrap(UploadErr, err.Error())
	}

	profile, err := c.deps.Updater.UpdateProfile(ctx, users.ProfileUpdate{AvatarURL: utils.Ptr(avatarURL)})
	if err != nil {
		// The uploaded object is orphaned; the profile still points at the
		// previous avatar.
		c.logger.Err(err).Str("avatarURL", avatarURL).Msg("profile update failed after upload")
		return nil, err
	}
	return profile, nil
}

func (c *Controller) storagePrefix(profile *users.Profile) string {
	if profile.ProviderUID != "" {
		return profile.ProviderUID
	}
	return profile.ID
}
