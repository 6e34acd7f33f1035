package preset

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/downbeat/rhythm"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS form_presets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	bpm INTEGER NOT NULL,
	beats INTEGER NOT NULL,
	note_value INTEGER NOT NULL,
	structure TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_form_presets_timestamp ON form_presets(timestamp);
`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps presets in a SQLite database. The section list is stored as a JSON column.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens the database at path, creating its directory and schema when needed.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.WithStackTrace(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create preset table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(p rhythm.FormPreset) (rhythm.FormPreset, error) {
	if err := p.Validate(); err != nil {
		return rhythm.FormPreset{}, err
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	// nanosecond precision survives the INTEGER column
	p.Timestamp = time.Unix(0, p.Timestamp.UnixNano())

	structure, err := json.Marshal(p.Structure)
	if err != nil {
		return rhythm.FormPreset{}, errors.WithStackTrace(err)
	}

	_, err = s.db.Exec(`
		INSERT INTO form_presets (id, name, bpm, beats, note_value, structure, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.BPM, p.TimeSignature.Beats, p.TimeSignature.NoteValue, string(structure), p.Timestamp.UnixNano())
	if err != nil {
		return rhythm.FormPreset{}, fmt.Errorf("failed to save preset %q: %w", p.Name, err)
	}

	return p, nil
}

func (s *SQLiteStore) List() ([]rhythm.FormPreset, error) {
	rows, err := s.db.Query(`
		SELECT id, name, bpm, beats, note_value, structure, timestamp
		FROM form_presets ORDER BY timestamp ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	presets := make([]rhythm.FormPreset, 0)
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	return presets, nil
}

func (s *SQLiteStore) Get(id string) (rhythm.FormPreset, error) {
	row := s.db.QueryRow(`
		SELECT id, name, bpm, beats, note_value, structure, timestamp
		FROM form_presets WHERE id = ?`, id)

	p, err := scanPreset(row)
	if err == sql.ErrNoRows {
		return rhythm.FormPreset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}

func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM form_presets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete preset %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (rhythm.FormPreset, error) {
	var (
		p         rhythm.FormPreset
		structure string
		timestamp int64
	)

	err := row.Scan(&p.ID, &p.Name, &p.BPM, &p.TimeSignature.Beats, &p.TimeSignature.NoteValue, &structure, &timestamp)
	if err == sql.ErrNoRows {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to read preset: %w", err)
	}

	if err := json.Unmarshal([]byte(structure), &p.Structure); err != nil {
		return p, fmt.Errorf("preset %s has a corrupt structure: %w", p.ID, err)
	}
	p.Timestamp = time.Unix(0, timestamp)

	return p, nil
}
