package transform

import (
	"testing"

	"github.com/sanmaysarada/astraea/internal/reference"
)

func TestParseStringDateToISO(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantISO string
		wantDTF string
		wantErr bool
	}{
		{"iso date", "2024-03-15", "2024-03-15", "", false},
		{"us slash date", "03/15/2024", "2024-03-15", "", false},
		{"dash month date", "15-Mar-2024", "2024-03-15", "", false},
		{"year month only", "2024-03", "2024-03", "D", false},
		{"year only", "2024", "2024", "M", false},
		{"empty", "", "", "", false},
		{"garbage", "not a date", "", "", true},
		// S4: CM partial dates with "DD Mon YYYY" and "un"/"UNK" placeholders.
		{"day month year with spaces", "15 Jan 2022", "2022-01-15", "", false},
		{"unknown day, known month", "un Jun 2019", "2019-06", "D", false},
		{"unknown day and month", "un UNK 2020", "2020", "M", false},
		{"iso datetime with Z", "2020-01-15T10:00:00Z", "2020-01-15T10:00:00Z", "", false},
		{"iso datetime with offset", "2020-01-15T10:00:00+05:30", "2020-01-15T10:00:00+05:30", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			iso, dtf, _, err := ParseStringDateToISO(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got none", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.raw, err)
			}
			if iso != tc.wantISO {
				t.Errorf("ParseStringDateToISO(%q) iso = %q, want %q", tc.raw, iso, tc.wantISO)
			}
			if dtf != tc.wantDTF {
				t.Errorf("ParseStringDateToISO(%q) dtf = %q, want %q", tc.raw, dtf, tc.wantDTF)
			}
		})
	}
}

func TestImputePartialDate(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		method  string
		want    string
		wantDTF string
	}{
		{"year only, first", "2020", "first", "2020-01-01", "M"},
		{"year only, last", "2020", "last", "2020-12-31", "M"},
		{"year only, mid", "2020", "mid", "2020-07-01", "M"},
		{"year-month, first", "2019-06", "first", "2019-06-01", "D"},
		{"year-month, last, 30-day month", "2019-06", "last", "2019-06-30", "D"},
		{"year-month, last, leap February", "2020-02", "last", "2020-02-29", "D"},
		{"year-month, last, non-leap February", "2021-02", "last", "2021-02-28", "D"},
		{"year-month, mid", "2019-06", "mid", "2019-06-15", "D"},
		{"un UNK placeholder, last", "un UNK 2020", "last", "2020-12-31", "M"},
		{"un Mon placeholder, last", "un Jun 2019", "last", "2019-06-30", "D"},
		{"already a full date passes through", "2022-01-15", "last", "2022-01-15", ""},
		{"empty passes through", "", "first", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, dtf, _, err := ImputePartialDate(tc.raw, tc.method)
			if err != nil {
				t.Fatalf("ImputePartialDate(%q, %q) unexpected error: %v", tc.raw, tc.method, err)
			}
			if got != tc.want {
				t.Errorf("ImputePartialDate(%q, %q) = %q, want %q", tc.raw, tc.method, got, tc.want)
			}
			if dtf != tc.wantDTF {
				t.Errorf("ImputePartialDate(%q, %q) dtf = %q, want %q", tc.raw, tc.method, dtf, tc.wantDTF)
			}
		})
	}

	if _, _, _, err := ImputePartialDate("2020", "nearest"); err == nil {
		t.Error("expected error for unrecognized imputation method")
	}
}

func TestStudyDayNoZero(t *testing.T) {
	cases := []struct {
		ref, evt string
		want     int
	}{
		{"2024-01-10", "2024-01-10", 1},
		{"2024-01-10", "2024-01-11", 2},
		{"2024-01-10", "2024-01-09", -1},
		{"2024-01-10", "2024-01-01", -9},
	}
	for _, tc := range cases {
		got, err := StudyDay(tc.ref, tc.evt)
		if err != nil {
			t.Fatalf("StudyDay(%q, %q) error: %v", tc.ref, tc.evt, err)
		}
		if got != tc.want {
			t.Errorf("StudyDay(%q, %q) = %d, want %d", tc.ref, tc.evt, got, tc.want)
		}
		if got == 0 {
			t.Error("StudyDay must never return 0")
		}
	}
}

func TestComposeUSUBJID(t *testing.T) {
	got, err := ComposeUSUBJID("STUDY01", "101", "0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "STUDY01-101-0001"
	if got != want {
		t.Errorf("ComposeUSUBJID = %q, want %q", got, want)
	}

	got, err = ComposeUSUBJID("STUDY01", "", "0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "STUDY01-0001" {
		t.Errorf("ComposeUSUBJID without site = %q, want STUDY01-0001", got)
	}

	if _, err := ComposeUSUBJID("STUDY01", "101", ""); err == nil {
		t.Error("expected error for empty subject id")
	}
}

func TestResolveEpochStrictBoundary(t *testing.T) {
	windows := []EpochWindow{
		{Name: "SCREENING", StartISO: "2024-01-01"},
		{Name: "TREATMENT", StartISO: "2024-01-15"},
		{Name: "FOLLOW-UP", StartISO: "2024-03-01"},
	}

	name, ok := ResolveEpoch(windows, "2024-01-14")
	if !ok || name != "SCREENING" {
		t.Errorf("expected SCREENING the day before TREATMENT starts, got %q (ok=%v)", name, ok)
	}

	name, ok = ResolveEpoch(windows, "2024-01-15")
	if !ok || name != "TREATMENT" {
		t.Errorf("expected TREATMENT on its own start date, got %q (ok=%v)", name, ok)
	}

	_, ok = ResolveEpoch(windows, "2023-12-31")
	if ok {
		t.Error("expected no match before the first epoch starts")
	}
}

func TestOptimizeCharWidth(t *testing.T) {
	width, truncated := OptimizeCharWidth([]string{"abc", "abcdef", "ab"})
	if width != 6 {
		t.Errorf("expected width 6, got %d", width)
	}
	if len(truncated) != 0 {
		t.Errorf("expected no truncation, got %v", truncated)
	}

	long := make([]byte, MaxCharBytes+50)
	for i := range long {
		long[i] = 'x'
	}
	width, truncated = OptimizeCharWidth([]string{string(long)})
	if width != MaxCharBytes {
		t.Errorf("expected width capped at %d, got %d", MaxCharBytes, width)
	}
	if len(truncated) != 1 || len(truncated[0]) != MaxCharBytes {
		t.Errorf("expected one truncated value of length %d, got %v", MaxCharBytes, truncated)
	}
}

func TestRecodeSexAndRace(t *testing.T) {
	store, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	got, err := RecodeSex(store, "male")
	if err != nil || got != "M" {
		t.Errorf("RecodeSex(male) = (%q, %v), want (M, nil)", got, err)
	}

	if _, err := RecodeSex(store, "unknown-gender-text"); err == nil {
		t.Error("expected error for unrecognized SEX value")
	}

	got, err = RecodeRace(store, "white")
	if err != nil || got != "WHITE" {
		t.Errorf("RecodeRace(white) = (%q, %v), want (WHITE, nil)", got, err)
	}

	// RACE is extensible: unmapped values pass through rather than error.
	got, err = RecodeRace(store, "some novel ancestry")
	if err != nil {
		t.Errorf("expected extensible RACE passthrough, got error: %v", err)
	}
	if got != "SOME NOVEL ANCESTRY" {
		t.Errorf("expected uppercased passthrough, got %q", got)
	}
}

func TestVisitMapCaseInsensitive(t *testing.T) {
	vm := NewVisitMap([]VisitDef{
		{RawLabel: "Screening Visit", Visit: "SCREENING", VisitNum: 1},
		{RawLabel: "Week 4", Visit: "WEEK 4", VisitNum: 2},
	})

	d, ok := vm.Resolve("  screening visit ")
	if !ok || d.Visit != "SCREENING" {
		t.Errorf("expected case/whitespace-insensitive match, got %+v (ok=%v)", d, ok)
	}

	if _, ok := vm.Resolve("unscheduled"); ok {
		t.Error("expected no match for an unmapped visit label")
	}
}

func TestRegistryLookupAndApply(t *testing.T) {
	store, err := reference.NewStore()
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	if _, ok := Lookup("RECODE_SEX"); !ok {
		t.Error("expected RECODE_SEX to be registered")
	}

	got, err := Apply("NUMERIC_TO_YN", store, "1", "AESER")
	if err != nil || got != "Y" {
		t.Errorf("Apply(NUMERIC_TO_YN, 1) = (%q, %v), want (Y, nil)", got, err)
	}

	if _, err := Apply("NOT_A_REAL_TRANSFORM", store, "x", "SOMEVAR"); err == nil {
		t.Error("expected error for unknown transform name")
	}
}
