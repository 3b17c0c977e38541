// Package store persists named snapshots of the option list in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/woozymasta/coordpanel/internal/conversion"
)

// ErrNotFound is returned when no preset carries the requested name.
var ErrNotFound = errors.New("preset not found")

// Preset is a named snapshot of the whole option list.
type Preset struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	CreatedAt time.Time               `json:"created_at"`
	Options   []conversion.OptionView `json:"options,omitempty"`
}

// PresetStore is the SQLite-backed preset repository.
type PresetStore struct{ DB *sql.DB }

func NewPresetStore(db *sql.DB) *PresetStore {
	return &PresetStore{DB: db}
}

// InitSchema creates the preset tables if they do not exist yet.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS presets (
		name       TEXT PRIMARY KEY,
		id         TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS preset_options (
		preset_name    TEXT    NOT NULL,
		position       INTEGER NOT NULL,
		name           TEXT    NOT NULL,
		type           TEXT    NOT NULL,
		add_spaces     INTEGER NOT NULL,
		precision      INTEGER NOT NULL,
		decimal_places INTEGER NOT NULL,
		mgrs_mode      TEXT    NOT NULL,
		utm_mode       TEXT    NOT NULL,
		latlon_format  TEXT    NOT NULL,
		PRIMARY KEY (preset_name, position)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	return nil
}

// SavePreset stores the snapshot under the given name, replacing any
// previous preset with that name.
func (s *PresetStore) SavePreset(ctx context.Context, name string, options []conversion.OptionView) (Preset, error) {
	if s.DB == nil {
		return Preset{}, errors.New("preset store: DB is nil")
	}
	if name == "" {
		return Preset{}, errors.New("save preset: name must not be empty")
	}

	preset := Preset{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Options:   options,
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Preset{}, fmt.Errorf("save preset: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO presets (name, id, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT (name) DO UPDATE
	SET id = excluded.id, created_at = excluded.created_at;
	`, preset.Name, preset.ID, preset.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Preset{}, fmt.Errorf("save preset: upsert preset row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM preset_options WHERE preset_name = ?;`, preset.Name); err != nil {
		return Preset{}, fmt.Errorf("save preset: clear previous options: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO preset_options
		(preset_name, position, name, type, add_spaces, precision, decimal_places, mgrs_mode, utm_mode, latlon_format)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return Preset{}, fmt.Errorf("save preset: prepare option insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, opt := range options {
		_, err := stmt.ExecContext(ctx,
			preset.Name, i,
			opt.Name, opt.Type, boolToInt(opt.AddSpaces),
			opt.Precision, opt.DecimalPlaces,
			opt.MgrsMode, opt.UtmMode, opt.LatLonFormat,
		)
		if err != nil {
			return Preset{}, fmt.Errorf("save preset: insert option %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Preset{}, fmt.Errorf("save preset: commit: %w", err)
	}

	return preset, nil
}

// ListPresets returns every preset without its options, newest first.
func (s *PresetStore) ListPresets(ctx context.Context) ([]Preset, error) {
	if s.DB == nil {
		return nil, errors.New("preset store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT name, id, created_at
	FROM presets
	ORDER BY created_at DESC, name;
	`)
	if err != nil {
		return nil, fmt.Errorf("list presets: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	presets := make([]Preset, 0, 16)
	for rows.Next() {
		var p Preset
		var createdAt string
		if err := rows.Scan(&p.Name, &p.ID, &createdAt); err != nil {
			return nil, fmt.Errorf("list presets: scan row: %w", err)
		}
		p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list presets: parse created_at %q: %w", createdAt, err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list presets: row iteration: %w", err)
	}

	return presets, nil
}

// GetPreset returns one preset with its options in saved order.
func (s *PresetStore) GetPreset(ctx context.Context, name string) (Preset, error) {
	if s.DB == nil {
		return Preset{}, errors.New("preset store: DB is nil")
	}

	var p Preset
	var createdAt string
	err := s.DB.QueryRowContext(ctx, `
	SELECT name, id, created_at
	FROM presets
	WHERE name = ?;
	`, name).Scan(&p.Name, &p.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Preset{}, ErrNotFound
	}
	if err != nil {
		return Preset{}, fmt.Errorf("get preset %q: %w", name, err)
	}

	p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Preset{}, fmt.Errorf("get preset %q: parse created_at: %w", name, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT name, type, add_spaces, precision, decimal_places, mgrs_mode, utm_mode, latlon_format
	FROM preset_options
	WHERE preset_name = ?
	ORDER BY position;
	`, name)
	if err != nil {
		return Preset{}, fmt.Errorf("get preset %q: query options: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var v conversion.OptionView
		var spaces int
		err := rows.Scan(&v.Name, &v.Type, &spaces, &v.Precision, &v.DecimalPlaces,
			&v.MgrsMode, &v.UtmMode, &v.LatLonFormat)
		if err != nil {
			return Preset{}, fmt.Errorf("get preset %q: scan option: %w", name, err)
		}
		v.AddSpaces = spaces != 0
		p.Options = append(p.Options, v)
	}
	if err := rows.Err(); err != nil {
		return Preset{}, fmt.Errorf("get preset %q: row iteration: %w", name, err)
	}

	return p, nil
}

// DeletePreset removes one preset and its options.
func (s *PresetStore) DeletePreset(ctx context.Context, name string) error {
	if s.DB == nil {
		return errors.New("preset store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete preset %q: begin: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM presets WHERE name = ?;`, name)
	if err != nil {
		return fmt.Errorf("delete preset %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM preset_options WHERE preset_name = ?;`, name); err != nil {
		return fmt.Errorf("delete preset %q: clear options: %w", name, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete preset %q: rows affected: %w", name, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
