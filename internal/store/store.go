// Package store persists finished podcast artifacts and an index of
// generation tasks.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/podforge/podforge-core/internal/config"
	_ "modernc.org/sqlite"
)

// Artifact is one finished generation: the script that produced it,
// the audio bytes, and the backend/format that made them.
type Artifact struct {
	TaskID    string
	Script    string
	Engine    string
	Format    string
	Audio     []byte
	AudioPath string
	CreatedAt time.Time
}

// Store wraps a SQLite-backed artifact index plus an on-disk audio
// directory.
type Store struct {
	db    *sql.DB
	cfg   config.StoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the artifact store according to config.
func Open(ctx context.Context, cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	dir := filepath.Dir(cfg.IndexPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.IndexPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS artifacts (
    task_id TEXT PRIMARY KEY,
    script TEXT NOT NULL,
    engine TEXT NOT NULL,
    format TEXT NOT NULL,
    audio_path TEXT NOT NULL,
    audio_bytes INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created ON artifacts(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewTaskID mints an identifier for a fresh generation task.
func (s *Store) NewTaskID() string {
	return uuid.NewString()
}

// LatestID returns the task id of the most recently saved artifact, or
// the empty string when nothing has been saved yet.
func (s *Store) LatestID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id FROM artifacts ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	var id string
	switch err := row.Scan(&id); err {
	case nil:
		return id, nil
	case sql.ErrNoRows:
		return "", nil
	default:
		return "", fmt.Errorf("query latest artifact: %w", err)
	}
}

// Save writes the artifact audio under the output directory and records
// it in the index. The audio file lands at
// {output_dir}/{task_id}_combined.{format}. Save overwrites any prior
// artifact with the same task id; the write happens before the index
// row so a crash never indexes a missing file.
func (s *Store) Save(ctx context.Context, art Artifact) (Artifact, error) {
	if art.TaskID == "" {
		return art, fmt.Errorf("save artifact: missing task id")
	}
	if len(art.Audio) == 0 {
		return art, fmt.Errorf("save artifact %s: empty audio", art.TaskID)
	}
	if art.CreatedAt.IsZero() {
		art.CreatedAt = s.clock().UTC()
	}

	name := fmt.Sprintf("%s_combined.%s", art.TaskID, art.Format)
	art.AudioPath = filepath.Join(s.cfg.OutputDir, name)
	if err := os.WriteFile(art.AudioPath, art.Audio, 0o644); err != nil {
		return art, fmt.Errorf("write artifact audio: %w", err)
	}
	info, err := os.Stat(art.AudioPath)
	if err != nil {
		return art, fmt.Errorf("stat artifact audio: %w", err)
	}
	if info.Size() != int64(len(art.Audio)) {
		return art, fmt.Errorf("artifact audio short write: %d of %d bytes", info.Size(), len(art.Audio))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts(task_id, script, engine, format, audio_path, audio_bytes, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
		   script=excluded.script, engine=excluded.engine, format=excluded.format,
		   audio_path=excluded.audio_path, audio_bytes=excluded.audio_bytes, created_at=excluded.created_at`,
		art.TaskID, art.Script, art.Engine, art.Format, art.AudioPath, len(art.Audio), art.CreatedAt)
	if err != nil {
		return art, fmt.Errorf("index artifact: %w", err)
	}

	s.log.Info("artifact saved",
		slog.String("task_id", art.TaskID),
		slog.String("path", art.AudioPath),
		slog.Int("bytes", len(art.Audio)))
	return art, nil
}

// Get loads the index row and audio bytes for a task id.
func (s *Store) Get(ctx context.Context, taskID string) (Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT task_id, script, engine, format, audio_path, created_at
		 FROM artifacts WHERE task_id = ?`, taskID)
	var art Artifact
	if err := row.Scan(&art.TaskID, &art.Script, &art.Engine, &art.Format, &art.AudioPath, &art.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return art, fmt.Errorf("artifact %s: not found", taskID)
		}
		return art, fmt.Errorf("query artifact: %w", err)
	}
	audio, err := os.ReadFile(art.AudioPath)
	if err != nil {
		return art, fmt.Errorf("read artifact audio: %w", err)
	}
	art.Audio = audio
	return art, nil
}
