// Package notify fans user-facing outcome messages out to registered
// listeners. Controllers report outcomes here instead of printing, so the
// presentation layer decides how a success or failure is shown.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

type Notification struct {
	Level   Level
	Message string
}

type Notifier struct {
	mu        sync.Mutex
	listeners []func(Notification)
	logger    zerolog.Logger
}

type Option func(*Notifier)

func WithLogger(logger zerolog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func New(options ...Option) *Notifier {
	n := &Notifier{logger: zerolog.Nop()}
	for _, opt := range options {
		opt(n)
	}
	return n
}

// Subscribe registers a listener for every subsequent notification.
func (n *Notifier) Subscribe(fn func(Notification)) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

func (n *Notifier) Success(message string) {
	n.publish(Notification{Level: LevelSuccess, Message: message})
}

func (n *Notifier) Error(message string) {
	n.publish(Notification{Level: LevelError, Message: message})
}

func (n *Notifier) publish(notification Notification) {
	n.logger.Info().Str("level", notification.Level.String()).Msg(notification.Message)

	n.mu.Lock()
	listeners := make([]func(Notification), len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(notification)
	}
}
