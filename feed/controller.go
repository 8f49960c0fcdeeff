// Package feed manages a paginated, appendable collection of posts with
// optimistic local mutation. Ordering is server-determined: the controller
// preserves whatever order the backend returns, only appends subsequent
// pages, and never re-sorts. Local deltas (a prepended new post, a patched
// like count) are applied without re-fetching and are eventually consistent
// with the backend.
package feed

import (
	"context"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-social-client/posts"
)

// FetchFunc fetches one page of posts. The global feed uses the gateway's
// Posts call; a user-scoped feed closes over UserPosts.
type FetchFunc func(ctx context.Context, page, limit int) ([]posts.Post, error)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadingMore
	StateFailed
)

type Controller struct {
	fetch    FetchFunc
	pageSize int
	logger   zerolog.Logger

	mu          sync.Mutex
	state       State
	posts       []posts.Post
	page        int
	more        bool
	err         error
	inFlight    bool
	subscribers []func()
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(fetch FetchFunc, pageSize int, options ...Option) (*Controller, error) {
	if fetch == nil {
		return nil, pkgerrors.New("[feed.NewController] fetch is required")
	}
	if pageSize < 1 {
		return nil, pkgerrors.New("[feed.NewController] pageSize must be positive")
	}
	c := &Controller{
		fetch:    fetch,
		pageSize: pageSize,
		state:    StateIdle,
		more:     true,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// LoadFirst fetches page 1, replacing the collection. A failure puts the
// controller into a user-visible error state without touching any posts
// already loaded.
func (c *Controller) LoadFirst(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.state = StateLoading
	c.mu.Unlock()
	c.notify()

	fetched, err := c.fetch(ctx, 1, c.pageSize)

	c.mu.Lock()
	c.inFlight = false
	if ctx.Err() != nil {
		// The owning view was torn down; never apply stale results.
		c.state = StateIdle
		c.mu.Unlock()
		return ctx.Err()
	}
	if err != nil {
		c.state = StateFailed
		c.err = pkgerrors.Wrap(FetchErr, err.Error())
		wrapped := c.err
		c.mu.Unlock()
		c.notify()
		c.logger.Err(err).Msg("failed to load feed")
		return wrapped
	}
	c.posts = fetched
	c.page = 1
	c.more = len(fetched) == c.pageSize
	c.state = StateLoaded
	c.err = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// LoadMore appends the next page. It is a no-op while a load is in flight or
// when the last page was short; a failure is logged and leaves the list in
// its last good state so the user can retry.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight || !c.more || c.state == StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.state = StateLoadingMore
	nextPage := c.page + 1
	c.mu.Unlock()
	c.notify()

	fetched, err := c.fetch(ctx, nextPage, c.pageSize)

	c.mu.Lock()
	c.inFlight = false
	if ctx.Err() != nil {
		c.state = StateLoaded
		c.mu.Unlock()
		return ctx.Err()
	}
	if err != nil {
		c.state = StateLoaded
		c.mu.Unlock()
		c.notify()
		c.logger.Err(err).Int("page", nextPage).Msg("failed to load more posts")
		return pkgerrors.Wrap(FetchErr, err.Error())
	}
	c.posts = append(c.posts, fetched...)
	c.page = nextPage
	c.more = len(fetched) == c.pageSize
	c.state = StateLoaded
	c.mu.Unlock()
	c.notify()
	return nil
}

// RecordNewPost prepends a post the client just created, without re-fetching.
func (c *Controller) RecordNewPost(post *posts.Post) {
	if post == nil {
		return
	}
	c.mu.Lock()
	c.posts = append([]posts.Post{*post}, c.posts...)
	if c.state == StateIdle {
		c.state = StateLoaded
	}
	c.mu.Unlock()
	c.notify()
}

// RecordLike replaces the like count of the identified post in place. An
// absent identifier is a silent miss (the post scrolled out or the list is
// stale), not an error.
func (c *Controller) RecordLike(postID string, likesCount int) {
	c.mu.Lock()
	found := false
	for i := range c.posts {
		if c.posts[i].ID == postID {
			c.posts[i].LikesCount = likesCount
			found = true
			break
		}
	}
	c.mu.Unlock()
	if found {
		c.notify()
	}
}

// Posts returns a snapshot copy of the collection.
func (c *Controller) Posts() []posts.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]posts.Post, len(c.posts))
	copy(snapshot, c.posts)
	return snapshot
}

func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.more
}

func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the user-visible error from a failed first-page load, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Subscribe registers a callback invoked after every state change, keeping
// dependent views consistent with controller state.
func (c *Controller) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	subscribers := make([]func(), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()
	for _, fn := range subscribers {
		fn()
	}
}
