package review

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sanmaysarada/astraea/internal/errors"
	"github.com/sanmaysarada/astraea/internal/mapping"
)

const opStore errors.Op = "review.Store"

// Store is the SQLite-backed persistence layer for review sessions,
// per-domain review state, and the corrections feeding the learning
// substrate. Every decision is committed as it is made, so a crash loses at
// most the decision in flight.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA foreign_keys = ON",
}

// OpenStore opens (creating if absent) the review database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_sync=NORMAL")
	if err != nil {
		return nil, errors.E(opStore, errors.KindInternal, fmt.Sprintf("open %s: %v", path, err))
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, errors.E(opStore, errors.KindInternal, fmt.Sprintf("pragma %q: %v", p, err))
		}
	}
	if err := createTables(db); err != nil {
		return nil, errors.E(opStore, errors.KindInternal, fmt.Sprintf("create tables: %v", err))
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func createTables(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		study_id TEXT NOT NULL,
		created_at TEXT,
		updated_at TEXT,
		status TEXT NOT NULL,
		domains JSON,
		current_domain_index INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS domain_reviews (
		session_id TEXT NOT NULL REFERENCES sessions(session_id),
		domain TEXT NOT NULL,
		status TEXT NOT NULL,
		original_spec JSON,
		decisions JSON,
		PRIMARY KEY (session_id, domain)
	);

	CREATE TABLE IF NOT EXISTS corrections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		study_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		sdtm_variable TEXT NOT NULL,
		correction_type TEXT NOT NULL,
		original_mapping JSON,
		corrected_mapping JSON,
		reason TEXT,
		reviewer TEXT,
		timestamp TEXT,
		invalidated INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_domain_reviews_session ON domain_reviews(session_id);
	CREATE INDEX IF NOT EXISTS idx_corrections_session ON corrections(session_id);
	CREATE INDEX IF NOT EXISTS idx_corrections_variable ON corrections(domain, sdtm_variable);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSession upserts a session's top-level progress pointer.
func (s *Store) SaveSession(sess ReviewSession) error {
	domainsJSON, err := json.Marshal(sess.Domains)
	if err != nil {
		return errors.E(opStore, errors.KindInternal, err.Error())
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (session_id, study_id, created_at, updated_at, status, domains, current_domain_index)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			status = excluded.status,
			domains = excluded.domains,
			current_domain_index = excluded.current_domain_index
	`, sess.SessionID, sess.StudyID, sess.CreatedAt, sess.UpdatedAt, sess.Status, string(domainsJSON), sess.CurrentDomainIndex)
	if err != nil {
		return errors.E(opStore, errors.KindReview, fmt.Sprintf("save session %s: %v", sess.SessionID, err))
	}
	return nil
}

// LoadSession fetches a session by id. Returns an error whose Kind is
// KindReview if no such session exists.
func (s *Store) LoadSession(sessionID string) (*ReviewSession, error) {
	row := s.db.QueryRow(`
		SELECT session_id, study_id, created_at, updated_at, status, domains, current_domain_index
		FROM sessions WHERE session_id = ?
	`, sessionID)

	var sess ReviewSession
	var domainsJSON string
	if err := row.Scan(&sess.SessionID, &sess.StudyID, &sess.CreatedAt, &sess.UpdatedAt, &sess.Status, &domainsJSON, &sess.CurrentDomainIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.E(opStore, errors.KindReview, fmt.Sprintf("no session %s", sessionID))
		}
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	if err := json.Unmarshal([]byte(domainsJSON), &sess.Domains); err != nil {
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	return &sess, nil
}

// ListSessions returns every session, most recently updated first.
func (s *Store) ListSessions() ([]ReviewSession, error) {
	rows, err := s.db.Query(`
		SELECT session_id, study_id, created_at, updated_at, status, domains, current_domain_index
		FROM sessions ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	defer rows.Close()

	var out []ReviewSession
	for rows.Next() {
		var sess ReviewSession
		var domainsJSON string
		if err := rows.Scan(&sess.SessionID, &sess.StudyID, &sess.CreatedAt, &sess.UpdatedAt, &sess.Status, &domainsJSON, &sess.CurrentDomainIndex); err != nil {
			return nil, errors.E(opStore, errors.KindInternal, err.Error())
		}
		if err := json.Unmarshal([]byte(domainsJSON), &sess.Domains); err != nil {
			return nil, errors.E(opStore, errors.KindInternal, err.Error())
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// SaveDomainReview upserts one domain's full review state: original spec and
// the decisions recorded so far. Called after every single decision.
func (s *Store) SaveDomainReview(dr DomainReview) error {
	specJSON, err := json.Marshal(dr.OriginalSpec)
	if err != nil {
		return errors.E(opStore, errors.KindInternal, err.Error())
	}
	decisionsJSON, err := json.Marshal(dr.Decisions)
	if err != nil {
		return errors.E(opStore, errors.KindInternal, err.Error())
	}
	_, err = s.db.Exec(`
		INSERT INTO domain_reviews (session_id, domain, status, original_spec, decisions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, domain) DO UPDATE SET
			status = excluded.status,
			decisions = excluded.decisions
	`, dr.SessionID, dr.Domain, dr.Status, string(specJSON), string(decisionsJSON))
	if err != nil {
		return errors.E(opStore, errors.KindReview, fmt.Sprintf("save domain review %s/%s: %v", dr.SessionID, dr.Domain, err))
	}
	return nil
}

// LoadDomainReview fetches the persisted review state for one session/domain
// pair. Returns (nil, nil) if no row exists yet — callers treat that as a
// fresh, undecided domain.
func (s *Store) LoadDomainReview(sessionID, domain string) (*DomainReview, error) {
	row := s.db.QueryRow(`
		SELECT status, original_spec, decisions FROM domain_reviews
		WHERE session_id = ? AND domain = ?
	`, sessionID, domain)

	dr := DomainReview{SessionID: sessionID, Domain: domain}
	var specJSON, decisionsJSON string
	if err := row.Scan(&dr.Status, &specJSON, &decisionsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	if err := json.Unmarshal([]byte(specJSON), &dr.OriginalSpec); err != nil {
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	if err := json.Unmarshal([]byte(decisionsJSON), &dr.Decisions); err != nil {
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	return &dr, nil
}

// RecordCorrection appends a human correction, the signal the learning
// substrate ingests. Corrections are append-only; Invalidated marks one
// superseded by a later re-review rather than deleting it.
func (s *Store) RecordCorrection(c HumanCorrection) error {
	origJSON, err := json.Marshal(c.OriginalMapping)
	if err != nil {
		return errors.E(opStore, errors.KindInternal, err.Error())
	}
	var correctedJSON []byte
	if c.CorrectedMapping != nil {
		correctedJSON, err = json.Marshal(c.CorrectedMapping)
		if err != nil {
			return errors.E(opStore, errors.KindInternal, err.Error())
		}
	}
	_, err = s.db.Exec(`
		INSERT INTO corrections (
			session_id, study_id, domain, sdtm_variable, correction_type,
			original_mapping, corrected_mapping, reason, reviewer, timestamp, invalidated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.SessionID, c.StudyID, c.Domain, c.SDTMVariable, c.CorrectionType,
		string(origJSON), string(correctedJSON), c.Reason, c.Reviewer, c.Timestamp, boolToInt(c.Invalidated))
	if err != nil {
		return errors.E(opStore, errors.KindReview, fmt.Sprintf("record correction %s/%s: %v", c.Domain, c.SDTMVariable, err))
	}
	return nil
}

// CorrectionsFor returns every non-invalidated correction recorded for a
// domain/variable pair, oldest first — the learning substrate's retrieval
// surface for "how has this variable been corrected before".
func (s *Store) CorrectionsFor(domain, sdtmVariable string) ([]HumanCorrection, error) {
	rows, err := s.db.Query(`
		SELECT session_id, study_id, domain, sdtm_variable, correction_type,
		       original_mapping, corrected_mapping, reason, reviewer, timestamp, invalidated
		FROM corrections
		WHERE domain = ? AND sdtm_variable = ? AND invalidated = 0
		ORDER BY id ASC
	`, domain, sdtmVariable)
	if err != nil {
		return nil, errors.E(opStore, errors.KindInternal, err.Error())
	}
	defer rows.Close()

	var out []HumanCorrection
	for rows.Next() {
		var c HumanCorrection
		var origJSON string
		var correctedJSON sql.NullString
		var invalidated int
		if err := rows.Scan(&c.SessionID, &c.StudyID, &c.Domain, &c.SDTMVariable, &c.CorrectionType,
			&origJSON, &correctedJSON, &c.Reason, &c.Reviewer, &c.Timestamp, &invalidated); err != nil {
			return nil, errors.E(opStore, errors.KindInternal, err.Error())
		}
		if err := json.Unmarshal([]byte(origJSON), &c.OriginalMapping); err != nil {
			return nil, errors.E(opStore, errors.KindInternal, err.Error())
		}
		if correctedJSON.Valid && correctedJSON.String != "" {
			var m mapping.Mapping
			if err := json.Unmarshal([]byte(correctedJSON.String), &m); err != nil {
				return nil, errors.E(opStore, errors.KindInternal, err.Error())
			}
			c.CorrectedMapping = &m
		}
		c.Invalidated = invalidated != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
