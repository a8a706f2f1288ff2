package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iby/nfl-gameday/internal/telemetry"

	_ "modernc.org/sqlite"
)

// Store persists predictions in SQLite: read-all-on-start,
// write-on-every-mutation. The in-memory ledger is the working copy; the
// store exists so grades and identity survive restarts.
type Store struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS predictions (
	id           TEXT    PRIMARY KEY,
	game_id      TEXT    NOT NULL,
	kind         TEXT    NOT NULL,
	pick         TEXT    NOT NULL,
	line         REAL    NOT NULL DEFAULT 0,
	confidence   INTEGER NOT NULL DEFAULT 0,
	note         TEXT    NOT NULL DEFAULT '',
	status       TEXT    NOT NULL,
	needs_review INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT    NOT NULL,
	graded_at    TEXT,
	UNIQUE(game_id, kind)
)`

func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	var rowCount int64
	db.QueryRow(`SELECT COUNT(*) FROM predictions`).Scan(&rowCount)
	telemetry.Infof("ledger store: opened %s rows=%d", path, rowCount)
	return &Store{db: db}, nil
}

// LoadAll reads every prediction. Any unreadable row is fatal: the ledger
// cannot safely initialize its identity space from a corrupted store.
func (s *Store) LoadAll() ([]Prediction, error) {
	rows, err := s.db.Query(
		`SELECT id, game_id, kind, pick, line, confidence, note, status, needs_review, created_at, graded_at
		 FROM predictions ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("ledger load: %w", err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		var p Prediction
		var needsReview int
		var createdAt string
		var gradedAt sql.NullString
		if err := rows.Scan(&p.ID, &p.GameID, &p.Kind, &p.Pick, &p.Line,
			&p.Confidence, &p.Note, &p.Status, &needsReview, &createdAt, &gradedAt); err != nil {
			return nil, fmt.Errorf("ledger scan: %w", err)
		}
		p.NeedsReview = needsReview != 0
		p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("ledger created_at %q: %w", createdAt, err)
		}
		if gradedAt.Valid && gradedAt.String != "" {
			p.GradedAt, err = time.Parse(time.RFC3339Nano, gradedAt.String)
			if err != nil {
				return nil, fmt.Errorf("ledger graded_at %q: %w", gradedAt.String, err)
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger load: %w", err)
	}
	return out, nil
}

// Insert writes a new prediction row.
func (s *Store) Insert(p Prediction) error {
	_, err := s.db.Exec(
		`INSERT INTO predictions (id, game_id, kind, pick, line, confidence, note, status, needs_review, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.GameID, string(p.Kind), p.Pick, p.Line, p.Confidence, p.Note,
		string(p.Status), boolInt(p.NeedsReview), p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// UpdateStatus persists a grading (or review-flag) mutation.
func (s *Store) UpdateStatus(p Prediction) error {
	var gradedAt any
	if !p.GradedAt.IsZero() {
		gradedAt = p.GradedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.Exec(
		`UPDATE predictions SET status=?, needs_review=?, graded_at=? WHERE id=?`,
		string(p.Status), boolInt(p.NeedsReview), gradedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update prediction %s: %w", p.ID, err)
	}
	return nil
}

// DeleteForGames removes predictions tied to a discarded window.
func (s *Store) DeleteForGames(gameIDs []string) error {
	for _, id := range gameIDs {
		if _, err := s.db.Exec(`DELETE FROM predictions WHERE game_id=?`, id); err != nil {
			return fmt.Errorf("delete predictions for %s: %w", id, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
