package review

import (
	"path/filepath"
	"testing"

	"github.com/sanmaysarada/astraea/internal/errors"
)

func TestOpenStoreCreatesSchema(t *testing.T) {
	store := newTestStore(t)

	sess := ReviewSession{
		SessionID:          "sess-a",
		StudyID:            "STUDY01",
		CreatedAt:          "2024-01-01T00:00:00Z",
		UpdatedAt:          "2024-01-01T00:00:00Z",
		Status:             SessionInProgress,
		Domains:            []string{"DM", "AE"},
		CurrentDomainIndex: 0,
	}
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}

	loaded, err := store.LoadSession("sess-a")
	if err != nil {
		t.Fatalf("LoadSession error: %v", err)
	}
	if loaded.StudyID != "STUDY01" || len(loaded.Domains) != 2 {
		t.Errorf("unexpected loaded session: %+v", loaded)
	}

	sess.Status = SessionCompleted
	sess.CurrentDomainIndex = 1
	if err := store.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession (update) error: %v", err)
	}
	loaded, err = store.LoadSession("sess-a")
	if err != nil {
		t.Fatalf("LoadSession error: %v", err)
	}
	if loaded.Status != SessionCompleted || loaded.CurrentDomainIndex != 1 {
		t.Errorf("expected updated session state, got %+v", loaded)
	}
}

func TestLoadSessionUnknownReturnsReviewError(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadSession("does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unknown session id")
	}
	if !errors.IsKind(err, errors.KindReview) {
		t.Errorf("expected a KindReview error, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"sess-x", "sess-y"} {
		if err := store.SaveSession(ReviewSession{SessionID: id, StudyID: "STUDY01", Status: SessionInProgress, Domains: []string{"DM"}}); err != nil {
			t.Fatalf("SaveSession error: %v", err)
		}
	}
	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestLoadDomainReviewMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)
	dr, err := store.LoadDomainReview("nope", "DM")
	if err != nil {
		t.Fatalf("expected no error for a missing domain review, got %v", err)
	}
	if dr != nil {
		t.Error("expected nil DomainReview for an unreviewed session/domain pair")
	}
}

func TestOpenStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.db")

	store1, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore error: %v", err)
	}
	if err := store1.SaveSession(ReviewSession{SessionID: "persist-1", StudyID: "STUDY01", Status: SessionInProgress}); err != nil {
		t.Fatalf("SaveSession error: %v", err)
	}
	store1.Close()

	store2, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen OpenStore error: %v", err)
	}
	defer store2.Close()
	loaded, err := store2.LoadSession("persist-1")
	if err != nil {
		t.Fatalf("LoadSession after reopen error: %v", err)
	}
	if loaded.StudyID != "STUDY01" {
		t.Errorf("expected persisted session to survive reopen, got %+v", loaded)
	}
}
