package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanmaysarada/astraea/internal/mapping"
	"github.com/sanmaysarada/astraea/internal/review"
	"github.com/spf13/cobra"
)

var (
	reviewSpecPath  string
	reviewDB        string
	reviewStudyID   string
	reviewSessionID string
	reviewReviewer  string
	reviewOut       string
)

var reviewDomainCmd = &cobra.Command{
	Use:   "review-domain",
	Short: "Walk a reviewer through one domain's proposed mappings",
	Long: `Runs the two-tier review gate (spec.md §3): HIGH-confidence mappings are
batch-approvable in one prompt, MEDIUM/LOW mappings are walked one at a
time. Every decision is persisted to --review-db before the next prompt, so
Ctrl-C or "q" loses at most the decision in flight; rerun with resume to
pick the session back up.`,
	RunE: runReviewDomain,
}

var resumeCmd = &cobra.Command{
	Use:   "resume <session-id>",
	Short: "Resume an interrupted review session at its next undecided domain",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

var sessionsJSON bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List review sessions",
	RunE:  runSessions,
}

func init() {
	reviewDomainCmd.Flags().StringVar(&reviewSpecPath, "spec", "", "DomainMappingSpec JSON from map-domain (required)")
	reviewDomainCmd.Flags().StringVar(&reviewDB, "review-db", "", "Review store path (required)")
	reviewDomainCmd.Flags().StringVar(&reviewStudyID, "study-id", "", "Study identifier (required for a new session)")
	reviewDomainCmd.Flags().StringVar(&reviewSessionID, "session", "", "Session id to continue; a new one is created if empty")
	reviewDomainCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer name recorded on any corrections made")
	reviewDomainCmd.Flags().StringVar(&reviewOut, "out", "", "Write the corrected DomainMappingSpec JSON here instead of stdout")

	resumeCmd.Flags().StringVar(&reviewDB, "review-db", "", "Review store path (required)")
	resumeCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer name recorded on any corrections made")
	resumeCmd.Flags().StringVar(&reviewOut, "out", "", "Write the corrected DomainMappingSpec JSON here instead of stdout")

	sessionsCmd.Flags().StringVar(&reviewDB, "review-db", "", "Review store path (required)")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Print sessions as JSON instead of a table")
}

// stdinPrompt is the production InputFunc: it writes the prompt to stdout
// and reads one line from stdin.
func stdinPrompt(scanner *bufio.Scanner) review.InputFunc {
	return func(prompt string) (string, error) {
		fmt.Print(prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "q", nil
		}
		return scanner.Text(), nil
	}
}

func newGate(store *review.Store) *review.Gate {
	return &review.Gate{
		Store: store,
		Input: stdinPrompt(bufio.NewScanner(os.Stdin)),
		Out:   os.Stdout,
		Clock: func() string { return time.Now().UTC().Format(time.RFC3339) },
	}
}

func runReviewDomain(cmd *cobra.Command, args []string) error {
	if reviewSpecPath == "" {
		return fmt.Errorf("--spec is required")
	}
	if reviewDB == "" {
		return fmt.Errorf("--review-db is required")
	}

	var spec mapping.DomainMappingSpec
	if err := loadJSON(reviewSpecPath, &spec); err != nil {
		return err
	}

	store, err := review.OpenStore(reviewDB)
	if err != nil {
		return fmt.Errorf("opening review store: %w", err)
	}
	defer store.Close()

	sessionID := reviewSessionID
	now := time.Now().UTC().Format(time.RFC3339)
	if sessionID == "" {
		if reviewStudyID == "" {
			return fmt.Errorf("--study-id is required when starting a new session")
		}
		sessionID = uuid.NewString()
		if err := store.SaveSession(review.ReviewSession{
			SessionID: sessionID, StudyID: reviewStudyID, CreatedAt: now, UpdatedAt: now,
			Status: review.SessionInProgress, Domains: []string{spec.Domain},
		}); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		printInfo("started session %s", sessionID)
	}

	gate := newGate(store)
	dr, err := gate.ReviewDomain(sessionID, reviewStudyID, spec, reviewReviewer)
	if interrupted, ok := err.(*review.Interrupted); ok {
		printWarning("%s", interrupted.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("reviewing %s: %w", spec.Domain, err)
	}

	printSuccess("domain %s review complete: %d decision(s)", dr.Domain, len(dr.Decisions))
	reviewed := review.ApplyCorrections(dr.OriginalSpec, dr.Decisions)
	return writeJSON(reviewOut, reviewed)
}

func runResume(cmd *cobra.Command, args []string) error {
	if reviewDB == "" {
		return fmt.Errorf("--review-db is required")
	}
	sessionID := args[0]

	store, err := review.OpenStore(reviewDB)
	if err != nil {
		return fmt.Errorf("opening review store: %w", err)
	}
	defer store.Close()

	sess, err := store.LoadSession(sessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if sess.CurrentDomainIndex >= len(sess.Domains) {
		printInfo("session %s has no remaining domains", sessionID)
		return nil
	}
	domain := sess.Domains[sess.CurrentDomainIndex]

	dr, err := store.LoadDomainReview(sessionID, domain)
	if err != nil {
		return fmt.Errorf("loading domain review %s/%s: %w", sessionID, domain, err)
	}
	if dr == nil {
		return fmt.Errorf("no prior review state for %s/%s; run review-domain with --session instead", sessionID, domain)
	}

	gate := newGate(store)
	dr, err = gate.ReviewDomain(sessionID, sess.StudyID, dr.OriginalSpec, reviewReviewer)
	if interrupted, ok := err.(*review.Interrupted); ok {
		printWarning("%s", interrupted.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("resuming %s/%s: %w", sessionID, domain, err)
	}

	sess.CurrentDomainIndex++
	sess.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if sess.CurrentDomainIndex >= len(sess.Domains) {
		sess.Status = review.SessionCompleted
	}
	if err := store.SaveSession(*sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	printSuccess("domain %s review complete: %d decision(s)", dr.Domain, len(dr.Decisions))
	reviewed := review.ApplyCorrections(dr.OriginalSpec, dr.Decisions)
	return writeJSON(reviewOut, reviewed)
}

func runSessions(cmd *cobra.Command, args []string) error {
	if reviewDB == "" {
		return fmt.Errorf("--review-db is required")
	}
	store, err := review.OpenStore(reviewDB)
	if err != nil {
		return fmt.Errorf("opening review store: %w", err)
	}
	defer store.Close()

	sessions, err := store.ListSessions()
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if sessionsJSON {
		return writeJSON("", sessions)
	}

	if len(sessions) == 0 {
		printInfo("no review sessions")
		return nil
	}
	fmt.Printf("%-28s %-14s %-12s %-6s %s\n", "SESSION", "STUDY", "STATUS", "PROG", "DOMAINS")
	for _, s := range sessions {
		fmt.Printf("%-28s %-14s %-12s %d/%-4d %s\n", s.SessionID, s.StudyID, s.Status, s.CurrentDomainIndex, len(s.Domains), strings.Join(s.Domains, ","))
	}
	return nil
}
