package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mstolt/recall/internal/model"
)

// DB is the durable mirror of the in-memory store plus the auxiliary
// tables (profile, entities, conversation log, emotion state). The Store
// owns the memory collection; DB has no independent view of it.
type DB struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens or creates the SQLite database at the given path.
func Open(dbPath string, logger *slog.Logger) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	d := &DB{db: db, log: logger}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id                TEXT PRIMARY KEY,
		text              TEXT NOT NULL,
		embedding         TEXT,
		category          TEXT NOT NULL DEFAULT 'fact',
		tags              TEXT,
		importance        INTEGER NOT NULL DEFAULT 1,
		emotional_context TEXT,
		source            TEXT,
		expires_at        INTEGER,
		access_count      INTEGER NOT NULL DEFAULT 0,
		last_recalled     INTEGER,
		created_at        INTEGER NOT NULL,
		date              TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_memories_recalled ON memories(last_recalled DESC);

	CREATE TABLE IF NOT EXISTS user_profile (
		key        TEXT PRIMARY KEY,
		value      TEXT,
		confidence REAL NOT NULL DEFAULT 1.0,
		timestamp  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entities (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		type           TEXT NOT NULL,
		relationship   TEXT,
		description    TEXT,
		last_mentioned TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);

	CREATE TABLE IF NOT EXISTS conversation_logs (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		role      TEXT NOT NULL,
		content   TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS emotions (
		key   TEXT PRIMARY KEY,
		value TEXT
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// SaveMemories replaces the mirrored memory table with the given records in
// one transaction. The caller passes the full collection on every mutation,
// so a reader never observes a partially-written mirror.
func (d *DB) SaveMemories(ctx context.Context, memories []model.Memory) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memories (id, text, embedding, category, tags, importance,
		                      emotional_context, source, expires_at,
		                      access_count, last_recalled, created_at, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range memories {
		var embJSON, tagsJSON *string
		if len(m.Embedding) > 0 {
			b, _ := json.Marshal(m.Embedding)
			s := string(b)
			embJSON = &s
		}
		if len(m.Tags) > 0 {
			b, _ := json.Marshal(m.Tags)
			s := string(b)
			tagsJSON = &s
		}
		_, err := stmt.ExecContext(ctx,
			m.ID, m.Text, embJSON, string(m.Category), tagsJSON, m.Importance,
			nullStr(m.EmotionalContext), nullStr(m.Source), nullMillis(m.ExpiresAt),
			m.AccessCount, nullMillis(m.LastRecalled),
			m.CreatedAt.UnixMilli(), nullStr(m.DateLabel))
		if err != nil {
			return fmt.Errorf("insert memory %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// LoadMemories reads the whole mirrored memory table, oldest first.
func (d *DB) LoadMemories(ctx context.Context) ([]model.Memory, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, text, embedding, category, tags, importance,
		       emotional_context, source, expires_at,
		       access_count, last_recalled, created_at, date
		FROM memories ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		var m model.Memory
		var embJSON, tagsJSON, emoCtx, source, dateLabel sql.NullString
		var expiresAt, lastRecalled sql.NullInt64
		var category string
		var createdAt int64

		err := rows.Scan(&m.ID, &m.Text, &embJSON, &category, &tagsJSON, &m.Importance,
			&emoCtx, &source, &expiresAt, &m.AccessCount, &lastRecalled, &createdAt, &dateLabel)
		if err != nil {
			return nil, err
		}

		m.Category = model.Category(category)
		m.CreatedAt = time.UnixMilli(createdAt)
		if embJSON.Valid {
			json.Unmarshal([]byte(embJSON.String), &m.Embedding)
		}
		if tagsJSON.Valid {
			json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
		}
		m.EmotionalContext = emoCtx.String
		m.Source = source.String
		m.DateLabel = dateLabel.String
		if expiresAt.Valid {
			t := time.UnixMilli(expiresAt.Int64)
			m.ExpiresAt = &t
		}
		if lastRecalled.Valid {
			t := time.UnixMilli(lastRecalled.Int64)
			m.LastRecalled = &t
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// SetProfile upserts one user profile key/value.
func (d *DB) SetProfile(ctx context.Context, e model.ProfileEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_profile (key, value, confidence, timestamp)
		VALUES (?, ?, ?, ?)`,
		e.Key, e.Value, e.Confidence, ts.UTC().Format(time.RFC3339))
	return err
}

// Profile returns every stored profile entry.
func (d *DB) Profile(ctx context.Context) ([]model.ProfileEntry, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT key, value, confidence, timestamp FROM user_profile ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ProfileEntry
	for rows.Next() {
		var e model.ProfileEntry
		var ts string
		if err := rows.Scan(&e.Key, &e.Value, &e.Confidence, &ts); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertEntity inserts or updates a named entity.
func (d *DB) UpsertEntity(ctx context.Context, e model.Entity) error {
	last := e.LastMentioned
	if last.IsZero() {
		last = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entities (id, name, type, relationship, description, last_mentioned)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Type, nullStr(e.Relationship), nullStr(e.Description),
		last.UTC().Format(time.RFC3339))
	return err
}

// EntityByName finds an entity by exact name, or nil.
func (d *DB) EntityByName(ctx context.Context, name string) (*model.Entity, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, type, relationship, description, last_mentioned
		FROM entities WHERE name = ? LIMIT 1`, name)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Entities returns every tracked entity, most recently mentioned first.
func (d *DB) Entities(ctx context.Context) ([]model.Entity, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, type, relationship, description, last_mentioned
		FROM entities ORDER BY last_mentioned DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (model.Entity, error) {
	var e model.Entity
	var rel, desc sql.NullString
	var last string
	if err := row.Scan(&e.ID, &e.Name, &e.Type, &rel, &desc, &last); err != nil {
		return e, err
	}
	e.Relationship = rel.String
	e.Description = desc.String
	e.LastMentioned, _ = time.Parse(time.RFC3339, last)
	return e, nil
}

// AppendLog appends one conversation log row.
func (d *DB) AppendLog(ctx context.Context, role, content string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO conversation_logs (role, content, timestamp) VALUES (?, ?, ?)`,
		role, content, time.Now().UTC().Format(time.RFC3339))
	return err
}

// RecentLog returns the most recent log rows, oldest first.
func (d *DB) RecentLog(ctx context.Context, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp FROM (
			SELECT id, role, content, timestamp FROM conversation_logs
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.Role, &e.Content, &ts); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveEmotion writes the singleton emotion state blob.
func (d *DB) SaveEmotion(ctx context.Context, state model.EmotionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO emotions (key, value) VALUES ('current_state', ?)`,
		string(b))
	return err
}

// LoadEmotion reads the singleton emotion state blob, or nil if unset.
func (d *DB) LoadEmotion(ctx context.Context) (*model.EmotionState, error) {
	var raw string
	err := d.db.QueryRowContext(ctx,
		`SELECT value FROM emotions WHERE key = 'current_state'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.EmotionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// ClearAll wipes every table in one transaction.
func (d *DB) ClearAll(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"memories", "user_profile", "entities", "conversation_logs", "emotions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
