// Package engagement tracks the like and bookmark toggles of a single post
// card. State is local to the card and never written back to storage.
package engagement

import (
	"errors"
	"sync"

	"penloft/internal/models"
)

// SignInPath is where unauthenticated viewers are sent.
const SignInPath = "/sign-in"

// ErrDisposed is returned by transitions on a card that was disposed.
var ErrDisposed = errors.New("engagement: card disposed")

// State is the per-card engagement view.
type State struct {
	Liked      bool `json:"liked"`
	LikeCount  int  `json:"like_count"`
	Bookmarked bool `json:"bookmarked"`
}

// FromPost seeds a State from the post's stored counters.
func FromPost(p models.Post) State {
	return State{LikeCount: p.Likes, Bookmarked: p.IsBookmarked}
}

// Outcome is the result of a toggle. Redirect is set when the viewer has to
// sign in first; State is then unchanged.
type Outcome struct {
	State    State  `json:"state"`
	Redirect string `json:"redirect,omitempty"`
}

// ToggleLike flips Liked and adjusts LikeCount, never below zero. Anonymous
// viewers get a redirect instead.
func (s State) ToggleLike(authenticated bool) Outcome {
	if !authenticated {
		return Outcome{State: s, Redirect: SignInPath}
	}
	next := s
	next.Liked = !s.Liked
	if next.Liked {
		next.LikeCount++
	} else {
		next.LikeCount--
	}
	if next.LikeCount < 0 {
		next.LikeCount = 0
	}
	return Outcome{State: next}
}

// ToggleBookmark flips Bookmarked. Anonymous viewers get a redirect instead.
func (s State) ToggleBookmark(authenticated bool) Outcome {
	if !authenticated {
		return Outcome{State: s, Redirect: SignInPath}
	}
	next := s
	next.Bookmarked = !s.Bookmarked
	return Outcome{State: next}
}

// Card owns the engagement state of one rendered post card.
type Card struct {
	mu       sync.Mutex
	state    State
	disposed bool
}

// NewCard creates a card initialised from p.
func NewCard(p models.Post) *Card {
	return RestoreCard(FromPost(p))
}

// RestoreCard creates a card holding a state the client reported.
func RestoreCard(s State) *Card {
	return &Card{state: s}
}

// State returns the current state.
func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Card) apply(fn func(State) Outcome) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return Outcome{State: c.state}, ErrDisposed
	}
	out := fn(c.state)
	c.state = out.State
	return out, nil
}

// ToggleLike applies State.ToggleLike to the card.
func (c *Card) ToggleLike(authenticated bool) (Outcome, error) {
	return c.apply(func(s State) Outcome { return s.ToggleLike(authenticated) })
}

// ToggleBookmark applies State.ToggleBookmark to the card.
func (c *Card) ToggleBookmark(authenticated bool) (Outcome, error) {
	return c.apply(func(s State) Outcome { return s.ToggleBookmark(authenticated) })
}

// Dispose ends the card's lifetime. Later toggles return ErrDisposed.
func (c *Card) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}
