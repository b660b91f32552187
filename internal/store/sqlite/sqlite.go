package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/tagrelay/internal/store"
)

const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps an
	// in-memory database alive for the lifetime of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema or seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the schema. Safe to call on every start.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== MessageStore implementation ====

// InsertMessage persists a message and reads the stored row back.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	query := `
		INSERT INTO messages (content, content_type, author_id, room_id, parent_message_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	contentType := msg.ContentType
	if contentType == "" {
		contentType = store.ContentTypeText
	}

	var parentID sql.NullInt64
	if msg.ParentID != nil {
		parentID = sql.NullInt64{Int64: *msg.ParentID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query,
		msg.Content,
		contentType,
		msg.AuthorID,
		msg.RoomID,
		parentID,
		msg.SentAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.getMessageByID(ctx, id)
}

func (s *SQLiteStore) getMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, content, content_type, author_id, room_id, parent_message_id, sent_at
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	var parentID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.Content,
		&msg.ContentType,
		&msg.AuthorID,
		&msg.RoomID,
		&parentID,
		&msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	if parentID.Valid {
		msg.ParentID = &parentID.Int64
	}

	return &msg, nil
}

// ==== TagStore implementation ====

// FindTagByName retrieves a tag by its exact name.
func (s *SQLiteStore) FindTagByName(ctx context.Context, name string) (*store.Tag, error) {
	query := `SELECT id, name FROM tags WHERE name = ?`

	var tag store.Tag
	err := s.db.QueryRowContext(ctx, query, name).Scan(&tag.ID, &tag.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tag %q: %w", name, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query tag: %w", err)
	}

	return &tag, nil
}

// CreateTag inserts a new tag. A unique violation on the name maps to store.ErrTagConflict.
func (s *SQLiteStore) CreateTag(ctx context.Context, name string) (*store.Tag, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tag %q: %w", name, store.ErrTagConflict)
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return &store.Tag{ID: id, Name: name}, nil
}

// LinkMessageTag records that a message carries a tag.
func (s *SQLiteStore) LinkMessageTag(ctx context.Context, messageID, tagID int64) error {
	query := `
		INSERT INTO message_tags (message_id, tag_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, messageID, tagID); err != nil {
		return fmt.Errorf("link message %d to tag %d: %w", messageID, tagID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
