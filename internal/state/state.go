// Package state defines the local persistence layer: named deployment
// profiles, the saved session per profile, the action log, and a small
// key-value area for flags like the current-profile pointer.
package state

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateProfile = errors.New("duplicate profile")
)

// KeyCurrentProfile is the kv key holding the active profile name.
const KeyCurrentProfile = "current_profile"

// Profile names one MIRA deployment the operator talks to.
type Profile struct {
	ID        int64
	Name      string
	BaseURL   string
	CreatedAt time.Time
}

// SessionRecord is the persisted login state for one profile. No expiry is
// stored; the server decides validity and a 401 clears the record.
type SessionRecord struct {
	Profile     string
	Token       string
	Role        string
	DisplayName string
	SavedAt     time.Time
}

// ActionEntry is one line of the local audit trail, appended after every
// mutating operation whether it succeeded or not.
type ActionEntry struct {
	ID        int64
	Actor     string
	Action    string
	Target    string
	Outcome   string
	CreatedAt time.Time
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, p *Profile) (int64, error)
	GetProfile(ctx context.Context, name string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	DeleteProfile(ctx context.Context, name string) error
}

type SessionStore interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	GetSession(ctx context.Context, profile string) (SessionRecord, error)
	ClearSessions(ctx context.Context) error
}

type ActionLogStore interface {
	AppendAction(ctx context.Context, e *ActionEntry) (int64, error)
	ListActions(ctx context.Context, limit int) ([]ActionEntry, error)
}

type KVStore interface {
	SetKV(ctx context.Context, key, value string) error
	GetKV(ctx context.Context, key string) (string, error)
	DeleteKV(ctx context.Context, key string) error
}

type Store interface {
	ProfileStore
	SessionStore
	ActionLogStore
	KVStore
	Close() error
}
