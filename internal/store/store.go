package store

import (
	"context"
	"errors"
	"time"
)

// ContentTypeText is the only content type the relay produces.
const ContentTypeText = "text"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrTagConflict is returned by CreateTag when another writer already
	// created a tag with the same name. Callers re-fetch by name.
	ErrTagConflict = errors.New("tag already exists")
)

// Message represents a persisted chat message.
type Message struct {
	ID          int64
	Content     string
	ContentType string
	AuthorID    int64
	RoomID      int64
	ParentID    *int64 // reply reference, nil for top-level messages
	SentAt      time.Time
}

// Tag is a named label shared across messages. Names are unique and case-sensitive.
type Tag struct {
	ID   int64
	Name string
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message and returns the stored row,
	// including the assigned ID and the sent_at value as recorded.
	InsertMessage(ctx context.Context, msg *Message) (*Message, error)
}

// TagStore handles tag persistence and message-tag links.
type TagStore interface {
	// FindTagByName returns ErrNotFound when no tag has that name.
	FindTagByName(ctx context.Context, name string) (*Tag, error)

	// CreateTag returns ErrTagConflict when the name is already taken.
	CreateTag(ctx context.Context, name string) (*Tag, error)

	// LinkMessageTag associates a tag with a message.
	LinkMessageTag(ctx context.Context, messageID, tagID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore
	TagStore

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
