// Package session maps wall-clock instants to configured trading sessions
// and derives the cache keys that change exactly at session boundaries.
package session

import (
	"errors"
	"fmt"
	"time"
)

// OffMarket is reported when no configured session contains the instant.
const OffMarket = "Off-Market"

var (
	ErrNoSessions       = errors.New("no trading sessions configured")
	ErrDuplicateSession = errors.New("duplicate session name")
	ErrUnknownTimezone  = errors.New("unknown timezone")
	ErrInvalidWindow    = errors.New("session open must be before close on the same local day")
)

// Definition is the configured form of a trading session.
type Definition struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
	Open     string `yaml:"open"`  // HH:MM local
	Close    string `yaml:"close"` // HH:MM local
}

// Session is a validated, immutable trading window.
type Session struct {
	Name     string
	Location *time.Location
	Open     TimeOfDay
	Close    TimeOfDay
}

// State is the session active at an instant.
type State struct {
	Name  string
	Start time.Time // UTC
}

// Open reports whether a configured session (not Off-Market) is active.
func (s State) Open() bool { return s.Name != OffMarket }

// Badge is the open/closed status of one configured session.
type Badge struct {
	Name     string
	Timezone string
	Open     bool
	LocalNow time.Time
}

// Clock resolves sessions. It holds no mutable state and is safe for
// concurrent use.
type Clock struct {
	sessions []Session
	now      func() time.Time
}

// Option customizes a Clock.
type Option func(*Clock)

// WithNow overrides the wall clock, mainly for tests.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) { c.now = fn }
}

// NewClock validates the definitions and builds a Clock. Any error here is a
// configuration error and should stop the process.
func NewClock(defs []Definition, opts ...Option) (*Clock, error) {
	if len(defs) == 0 {
		return nil, ErrNoSessions
	}
	seen := make(map[string]bool, len(defs))
	sessions := make([]Session, 0, len(defs))
	for _, d := range defs {
		s, err := d.compile()
		if err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("session %q: %w", s.Name, ErrDuplicateSession)
		}
		seen[s.Name] = true
		sessions = append(sessions, s)
	}

	c := &Clock{sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (d Definition) compile() (Session, error) {
	if d.Name == "" {
		return Session{}, errors.New("session name is required")
	}
	if d.Name == OffMarket {
		return Session{}, fmt.Errorf("session name %q is reserved", OffMarket)
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil || d.Timezone == "" {
		return Session{}, fmt.Errorf("session %q: %w %q", d.Name, ErrUnknownTimezone, d.Timezone)
	}
	open, err := ParseTimeOfDay(d.Open)
	if err != nil {
		return Session{}, fmt.Errorf("session %q open: %w", d.Name, err)
	}
	closeAt, err := ParseTimeOfDay(d.Close)
	if err != nil {
		return Session{}, fmt.Errorf("session %q close: %w", d.Name, err)
	}
	if !open.Before(closeAt) {
		return Session{}, fmt.Errorf("session %q (%s-%s): %w", d.Name, open, closeAt, ErrInvalidWindow)
	}
	return Session{Name: d.Name, Location: loc, Open: open, Close: closeAt}, nil
}

// Sessions returns a copy of the configured sessions in order.
func (c *Clock) Sessions() []Session {
	out := make([]Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Now returns the clock's current instant in UTC.
func (c *Clock) Now() time.Time { return c.now().UTC() }

// Current returns the session active now.
func (c *Clock) Current() State { return c.At(c.now()) }

// At returns the first configured session, in configuration order, whose
// local window contains t. Bounds are inclusive. When none matches the
// result is Off-Market starting at 00:00 UTC of t's UTC date.
func (c *Clock) At(t time.Time) State {
	for _, s := range c.sessions {
		if start, ok := s.contains(t); ok {
			return State{Name: s.Name, Start: start.UTC()}
		}
	}
	u := t.UTC()
	return State{Name: OffMarket, Start: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Badges reports the open/closed status of every configured session at t.
func (c *Clock) Badges(t time.Time) []Badge {
	out := make([]Badge, 0, len(c.sessions))
	for _, s := range c.sessions {
		_, open := s.contains(t)
		out = append(out, Badge{
			Name:     s.Name,
			Timezone: s.Location.String(),
			Open:     open,
			LocalNow: t.In(s.Location),
		})
	}
	return out
}

// contains reports whether t falls within the session window on t's local
// calendar date and returns the local open instant.
func (s Session) contains(t time.Time) (time.Time, bool) {
	local := t.In(s.Location)
	y, m, d := local.Date()
	openAt := time.Date(y, m, d, s.Open.Hour, s.Open.Minute, 0, 0, s.Location)
	closeAt := time.Date(y, m, d, s.Close.Hour, s.Close.Minute, 0, 0, s.Location)
	if local.Before(openAt) || local.After(closeAt) {
		return time.Time{}, false
	}
	return openAt, true
}
