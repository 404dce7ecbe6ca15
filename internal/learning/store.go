package learning

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"math"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sanmaysarada/astraea/internal/errors"
)

const opStore errors.Op = "learning.Store"

// Store persists ingested examples and their embeddings, grounded on
// internal/review.Store's WAL-pragma/inline-DDL pattern.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 10000",
}

// OpenStore opens (creating if necessary) the learning database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.E(opStore, errors.KindDatabase, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.E(opStore, errors.KindDatabase, err)
		}
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func createTables(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS examples (
	id TEXT PRIMARY KEY,
	domain TEXT NOT NULL,
	sdtm_variable TEXT NOT NULL,
	source_variable TEXT,
	mapping_pattern TEXT,
	mapping_logic TEXT,
	outcome TEXT NOT NULL,
	corrected_logic TEXT,
	reason TEXT,
	study_id TEXT,
	ingested_at TEXT NOT NULL,
	embedding BLOB
);
CREATE INDEX IF NOT EXISTS idx_examples_variable ON examples(domain, sdtm_variable);
CREATE INDEX IF NOT EXISTS idx_examples_outcome ON examples(outcome);
`
	if _, err := db.Exec(ddl); err != nil {
		return errors.E(opStore, errors.KindDatabase, err)
	}
	return nil
}

// ContentID derives a stable id from the fields that define an example's
// identity, so re-ingesting the same review decision is a no-op rather
// than a duplicate row.
func ContentID(domain, sdtmVariable, sourceVariable, mappingLogic string) string {
	h := sha256.Sum256([]byte(domain + "\x00" + sdtmVariable + "\x00" + sourceVariable + "\x00" + mappingLogic))
	return hex.EncodeToString(h[:])[:24]
}

// Ingest writes ex, deriving its ID if unset. Re-ingesting an example with
// the same content id updates the existing row rather than duplicating it.
func (s *Store) Ingest(ex Example) (Example, error) {
	if ex.ID == "" {
		ex.ID = ContentID(ex.Domain, ex.SDTMVariable, ex.SourceVariable, ex.MappingLogic)
	}
	if ex.IngestedAt.IsZero() {
		ex.IngestedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
INSERT INTO examples (id, domain, sdtm_variable, source_variable, mapping_pattern,
	mapping_logic, outcome, corrected_logic, reason, study_id, ingested_at, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	outcome = excluded.outcome,
	corrected_logic = excluded.corrected_logic,
	reason = excluded.reason,
	ingested_at = excluded.ingested_at,
	embedding = excluded.embedding`,
		ex.ID, ex.Domain, ex.SDTMVariable, ex.SourceVariable, ex.MappingPattern,
		ex.MappingLogic, string(ex.Outcome), ex.CorrectedLogic, ex.Reason, ex.StudyID,
		ex.IngestedAt.Format(time.RFC3339), floatsToBytes(ex.Embedding))
	if err != nil {
		return Example{}, errors.E(opStore, errors.KindDatabase, err)
	}
	return ex, nil
}

// SetEmbedding updates a previously-ingested example's embedding vector,
// used once an embedding model becomes available after ingestion.
func (s *Store) SetEmbedding(id string, embedding []float32) error {
	_, err := s.db.Exec(`UPDATE examples SET embedding = ? WHERE id = ?`, floatsToBytes(embedding), id)
	if err != nil {
		return errors.E(opStore, errors.KindDatabase, err)
	}
	return nil
}

// All returns every ingested example.
func (s *Store) All() ([]Example, error) {
	rows, err := s.db.Query(`SELECT id, domain, sdtm_variable, source_variable, mapping_pattern,
		mapping_logic, outcome, corrected_logic, reason, study_id, ingested_at, embedding FROM examples`)
	if err != nil {
		return nil, errors.E(opStore, errors.KindDatabase, err)
	}
	defer rows.Close()

	var out []Example
	for rows.Next() {
		var ex Example
		var outcome, ingestedAt string
		var embBytes []byte
		if err := rows.Scan(&ex.ID, &ex.Domain, &ex.SDTMVariable, &ex.SourceVariable, &ex.MappingPattern,
			&ex.MappingLogic, &outcome, &ex.CorrectedLogic, &ex.Reason, &ex.StudyID, &ingestedAt, &embBytes); err != nil {
			return nil, errors.E(opStore, errors.KindDatabase, err)
		}
		ex.Outcome = Outcome(outcome)
		ex.IngestedAt, _ = time.Parse(time.RFC3339, ingestedAt)
		ex.Embedding = bytesToFloats(embBytes)
		out = append(out, ex)
	}
	return out, nil
}

// ForVariable returns every example ingested for a specific SDTM variable
// within a domain, most recent first.
func (s *Store) ForVariable(domain, sdtmVariable string) ([]Example, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []Example
	for _, ex := range all {
		if ex.Domain == domain && ex.SDTMVariable == sdtmVariable {
			out = append(out, ex)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IngestedAt.After(out[j].IngestedAt) })
	return out, nil
}

// Metrics aggregates AccuracyMetrics per (domain, variable) across every
// ingested example.
func (s *Store) Metrics() ([]AccuracyMetrics, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	byKey := map[string]*AccuracyMetrics{}
	var order []string
	for _, ex := range all {
		key := ex.Domain + "\x00" + ex.SDTMVariable
		m, ok := byKey[key]
		if !ok {
			m = &AccuracyMetrics{Domain: ex.Domain, SDTMVariable: ex.SDTMVariable}
			byKey[key] = m
			order = append(order, key)
		}
		m.Total++
		switch ex.Outcome {
		case OutcomeAccepted:
			m.Accepted++
		case OutcomeCorrected:
			m.Corrected++
		case OutcomeRejected:
			m.Rejected++
		}
	}
	out := make([]AccuracyMetrics, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out, nil
}

func floatsToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	return buf
}

func bytesToFloats(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}
