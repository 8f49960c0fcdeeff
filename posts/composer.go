package posts

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var SubmissionInFlightErr = errors.New("submission already in flight")

// Creator is the post-creation endpoint the composer submits to.
type Creator interface {
	CreatePost(ctx context.Context, content string, imageURL *string) (*Post, error)
}

// Composer validates a draft and submits it. On success the draft is cleared
// and the created post reported upward; on failure the draft keeps its
// contents so the user can retry. The submit control is disabled while a
// submission is outstanding.
type Composer struct {
	Draft Draft

	creator   Creator
	onCreated func(*Post)
	logger    zerolog.Logger

	mu       sync.Mutex
	inFlight bool
}

type ComposerOption func(*Composer)

func WithComposerLogger(logger zerolog.Logger) ComposerOption {
	return func(c *Composer) {
		c.logger = logger
	}
}

// NewComposer creates a Composer. onCreated receives the created post after a
// successful submission (typically wired to the feed controller's
// RecordNewPost) and may be nil.
func NewComposer(creator Creator, onCreated func(*Post), options ...ComposerOption) (*Composer, error) {
	if creator == nil {
		return nil, errors.New("[NewComposer] creator is required")
	}
	c := &Composer{
		creator:   creator,
		onCreated: onCreated,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Submit validates and posts the current draft. An invalid draft never
// issues a network call.
func (c *Composer) Submit(ctx context.Context) (*Post, error) {
	if err := c.Draft.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, SubmissionInFlightErr
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	content, imageURL := c.Draft.Normalized()
	post, err := c.creator.CreatePost(ctx, content, imageURL)
	if err != nil {
		c.logger.Err(err).Msg("post submission failed")
		return nil, pkgerrors.Wrap(err, "[Composer.Submit] creator.CreatePost")
	}

	c.Draft.Reset()
	if c.onCreated != nil {
		c.onCreated(post)
	}
	return post, nil
}
