package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelayejinyi/mfv-labeller/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a participant id is unknown.
var ErrNotFound = errors.New("participant not found")

// StudyRepository persists participants and their ratings in SQLite.
// Participants are append-only: there is no update or delete.
type StudyRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStudyRepository opens (or creates) the database and runs the
// schema migration.
func NewStudyRepository(dbPath string, logger *zap.Logger) (*StudyRepository, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &StudyRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Study repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables and upgrades pre-`name` participant tables.
func (r *StudyRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		assigned_foundations TEXT NOT NULL,
		samples_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		name TEXT
	);

	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		participant_id TEXT NOT NULL,
		sample_id INTEGER NOT NULL,
		rating INTEGER NOT NULL,
		ts DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_responses_participant ON responses(participant_id);
	CREATE INDEX IF NOT EXISTS idx_responses_ts ON responses(ts);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	return r.ensureNameColumn()
}

// ensureNameColumn adds the name column to databases created before it
// existed. Best-effort: a failure here is logged, not fatal.
func (r *StudyRepository) ensureNameColumn() error {
	rows, err := r.db.Query(`PRAGMA table_info(participants)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	hasName := false
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == "name" {
			hasName = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if !hasName {
		if _, err := r.db.Exec(`ALTER TABLE participants ADD COLUMN name TEXT`); err != nil {
			r.logger.Warn("Failed to add name column", zap.Error(err))
		}
	}
	return nil
}

type participantRow struct {
	ID                  string         `db:"id"`
	AssignedFoundations string         `db:"assigned_foundations"`
	SamplesJSON         string         `db:"samples_json"`
	CreatedAt           string         `db:"created_at"`
	Name                sql.NullString `db:"name"`
}

// CreateParticipant inserts a new participant. The pair and sample id
// list are stored as JSON, preserving order.
func (r *StudyRepository) CreateParticipant(p *models.Participant) error {
	pairJSON, err := json.Marshal(p.Pair.Slice())
	if err != nil {
		return fmt.Errorf("failed to encode pair: %w", err)
	}
	samplesJSON, err := json.Marshal(p.SampleIDs)
	if err != nil {
		return fmt.Errorf("failed to encode sample ids: %w", err)
	}

	query := `
		INSERT INTO participants (id, assigned_foundations, samples_json, created_at, name)
		VALUES (?, ?, ?, ?, ?)
	`

	var name interface{}
	if p.Name != "" {
		name = p.Name
	}

	if _, err := r.db.Exec(query, p.ID, string(pairJSON), string(samplesJSON), p.CreatedAt.UTC().Format(timeLayout), name); err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetParticipant returns the participant with the given id, or
// ErrNotFound.
func (r *StudyRepository) GetParticipant(id string) (*models.Participant, error) {
	var row participantRow
	query := `
		SELECT id, assigned_foundations, samples_json, created_at, name
		FROM participants WHERE id = ?
	`
	err := r.db.Get(&row, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	var foundations []string
	if err := json.Unmarshal([]byte(row.AssignedFoundations), &foundations); err != nil {
		return nil, fmt.Errorf("failed to decode pair for %s: %w", id, err)
	}
	pair, ok := models.PairFromSlice(foundations)
	if !ok {
		return nil, fmt.Errorf("malformed pair for %s", id)
	}

	var sampleIDs []int
	if err := json.Unmarshal([]byte(row.SamplesJSON), &sampleIDs); err != nil {
		return nil, fmt.Errorf("failed to decode sample ids for %s: %w", id, err)
	}

	p := &models.Participant{
		ID:        row.ID,
		Pair:      pair,
		SampleIDs: sampleIDs,
		Name:      row.Name.String,
	}
	p.CreatedAt, _ = parseTime(row.CreatedAt)
	return p, nil
}

// PairCounts returns how many participants hold each foundation pair,
// derived from every persisted participant. Malformed rows are skipped.
func (r *StudyRepository) PairCounts() (map[models.FoundationPair]int, error) {
	rows, err := r.db.Query(`SELECT assigned_foundations FROM participants`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.FoundationPair]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var foundations []string
		if err := json.Unmarshal([]byte(raw), &foundations); err != nil {
			r.logger.Warn("Skipping malformed assignment row", zap.Error(err))
			continue
		}
		pair, ok := models.PairFromSlice(foundations)
		if !ok {
			continue
		}
		counts[pair]++
	}
	return counts, rows.Err()
}

// SaveResponse appends a rating. Repeated ratings for the same
// (participant, sample) pair are all retained.
func (r *StudyRepository) SaveResponse(resp *models.Response) error {
	query := `
		INSERT INTO responses (participant_id, sample_id, rating, ts)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, resp.ParticipantID, resp.SampleID, resp.Rating, resp.SubmittedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

type responseRow struct {
	ParticipantID string `db:"participant_id"`
	SampleID      int    `db:"sample_id"`
	Rating        int    `db:"rating"`
	TS            string `db:"ts"`
}

// RecentResponses returns up to limit responses, newest first.
func (r *StudyRepository) RecentResponses(limit int) ([]models.Response, error) {
	query := `
		SELECT participant_id, sample_id, rating, ts
		FROM responses ORDER BY ts DESC LIMIT ?
	`
	return r.listResponses(query, limit)
}

// AllResponses returns every response in submission order, for export.
func (r *StudyRepository) AllResponses() ([]models.Response, error) {
	query := `
		SELECT participant_id, sample_id, rating, ts
		FROM responses ORDER BY ts ASC
	`
	return r.listResponses(query)
}

func (r *StudyRepository) listResponses(query string, args ...interface{}) ([]models.Response, error) {
	var rows []responseRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}

	out := make([]models.Response, 0, len(rows))
	for _, row := range rows {
		resp := models.Response{
			ParticipantID: row.ParticipantID,
			SampleID:      row.SampleID,
			Rating:        row.Rating,
		}
		resp.SubmittedAt, _ = parseTime(row.TS)
		out = append(out, resp)
	}
	return out, nil
}

// Close closes the database connection.
func (r *StudyRepository) Close() error {
	return r.db.Close()
}
