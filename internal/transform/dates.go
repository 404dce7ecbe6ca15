package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// commonDateLayouts are tried in order when a source date string doesn't
// declare its own format. Ambiguous day/month orderings are resolved in
// favor of the more specific layout matching first. Layouts carrying a
// "Z07:00" zone are tried before their zone-less equivalents so a timezone
// suffix is never silently dropped.
var commonDateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006 15:04",
	"2 Jan 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"Jan 2 2006",
	"January 2, 2006",
	"20060102",
	"2006/01/02",
}

// ParseStringDateToISO converts a free-form source date/time string into
// ISO 8601 (--DTC variable format). It tries full date-time first, falling
// back to date-only and finally to a partial date with the DTF/TMF-style
// imputation flags spec'd for SDTM: an unresolvable fragment is truncated
// rather than guessed, and the function reports which components were
// imputed so callers can populate DTF/TMF supplemental qualifiers. Output is
// the narrowest ISO-8601 form consistent with the input: a timezone suffix
// on the input is preserved, a bare datetime stays a datetime, and a
// date-only or partial input never grows a time component it didn't have.
//
// raw is returned unmodified (empty string) when it carries no date content
// at all, which SDTM treats as a legitimately missing --DTC.
func ParseStringDateToISO(raw string) (iso string, dtf string, tmf string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", "", nil
	}

	if iso, dtf, tmf, ok := parseUnknownComponentDate(trimmed); ok {
		return iso, dtf, tmf, nil
	}

	for _, layout := range commonDateLayouts {
		if t, perr := time.Parse(layout, trimmed); perr == nil {
			switch {
			case strings.Contains(layout, "Z07:00"):
				return t.Format("2006-01-02T15:04:05Z07:00"), "", "", nil
			case strings.Contains(layout, "15:04"):
				return t.Format("2006-01-02T15:04:05"), "", "", nil
			default:
				return t.Format("2006-01-02"), "", "", nil
			}
		}
	}

	if iso, dtf, tmf, ok := parsePartialDate(trimmed); ok {
		return iso, dtf, tmf, nil
	}

	return "", "", "", fmt.Errorf("transform: unparseable date %q", raw)
}

// parseUnknownComponentDate handles SDTM source data's literal "un"/"UNK"
// placeholders for a day or month the source system never resolved, e.g.
// "un Jun 2019" (day unknown, month known) or "un UNK 2020" (day and month
// both unknown). DTF follows the same convention as parsePartialDate: "D"
// when only the day is missing, "M" when month and day are both missing.
func parseUnknownComponentDate(raw string) (iso, dtf, tmf string, ok bool) {
	fields := strings.Fields(raw)
	if len(fields) != 3 || !strings.EqualFold(fields[0], "un") {
		return "", "", "", false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil || year <= 0 {
		return "", "", "", false
	}
	if strings.EqualFold(fields[1], "UNK") {
		return fmt.Sprintf("%04d", year), "M", "", true
	}
	month, err := time.Parse("Jan", fields[1])
	if err != nil {
		return "", "", "", false
	}
	return fmt.Sprintf("%04d-%02d", year, int(month.Month())), "D", "", true
}

// parsePartialDate handles year-only and year-month source values, which
// SDTM permits as truncated --DTC values with an imputation flag recording
// what was missing. DTF is "D" when day is unknown, "M" when month and day
// are both unknown. TMF mirrors this for the time-of-day portion, which
// partial dates never carry.
func parsePartialDate(raw string) (iso, dtf, tmf string, ok bool) {
	if len(raw) == 4 {
		if _, err := strconv.Atoi(raw); err == nil {
			return raw, "M", "", true
		}
	}
	if len(raw) == 7 && raw[4] == '-' {
		year, yerr := strconv.Atoi(raw[:4])
		month, merr := strconv.Atoi(raw[5:7])
		if yerr == nil && merr == nil && month >= 1 && month <= 12 && year > 0 {
			return raw, "D", "", true
		}
	}
	return "", "", "", false
}

// ImputePartialDate fills the missing components of a partial --DTC value
// per method ("first", "last", or "mid"), pairing the result with the same
// DTF/TMF imputation flags ParseStringDateToISO would have reported for the
// unresolved input. A date that already carries a full day (or isn't a date
// at all) passes through unchanged — there is nothing left to impute.
//
// "last" respects the calendar, including leap years: it always resolves to
// the actual last day of the month via time.Date's day-zero-of-next-month
// normalization, never a hardcoded 28/30/31.
func ImputePartialDate(raw string, method string) (iso, dtf, tmf string, err error) {
	switch method {
	case "first", "last", "mid":
	default:
		return "", "", "", fmt.Errorf("transform: invalid partial-date imputation method %q", method)
	}

	iso, dtf, tmf, err = ParseStringDateToISO(raw)
	if err != nil || iso == "" {
		return "", "", "", err
	}

	switch dtf {
	case "M":
		year, yerr := strconv.Atoi(iso)
		if yerr != nil {
			return "", "", "", fmt.Errorf("transform: imputing year-only date %q: %w", iso, yerr)
		}
		month, day := imputeMonthAndDay(method)
		return fmt.Sprintf("%04d-%02d-%02d", year, month, day), dtf, tmf, nil
	case "D":
		year, month, serr := splitYearMonth(iso)
		if serr != nil {
			return "", "", "", fmt.Errorf("transform: imputing year-month date %q: %w", iso, serr)
		}
		return fmt.Sprintf("%04d-%02d-%02d", year, month, imputeDay(year, month, method)), dtf, tmf, nil
	default:
		return iso, dtf, tmf, nil
	}
}

// imputeMonthAndDay resolves a year-only date's missing month and day.
func imputeMonthAndDay(method string) (month, day int) {
	switch method {
	case "last":
		return 12, 31
	case "mid":
		return 7, 1
	default: // "first"
		return 1, 1
	}
}

// imputeDay resolves a year-month date's missing day. "last" is the
// calendar's actual last day of that month, leap years included.
func imputeDay(year, month int, method string) int {
	switch method {
	case "last":
		return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	case "mid":
		return 15
	default: // "first"
		return 1
	}
}

func splitYearMonth(iso string) (year, month int, err error) {
	parts := strings.SplitN(iso, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected YYYY-MM, got %q", iso)
	}
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, err
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// StudyDay computes the SDTM --DY relative day: the number of days between
// a reference start date (RFSTDTC) and the event/observation date, with no
// day zero. Day 1 is the reference date itself; the day before it is -1,
// never 0.
func StudyDay(referenceISO, eventISO string) (int, error) {
	ref, err := parseISODateOnly(referenceISO)
	if err != nil {
		return 0, fmt.Errorf("transform: study day reference: %w", err)
	}
	evt, err := parseISODateOnly(eventISO)
	if err != nil {
		return 0, fmt.Errorf("transform: study day event: %w", err)
	}

	diff := int(evt.Sub(ref).Hours() / 24)
	if diff >= 0 {
		return diff + 1, nil
	}
	return diff, nil
}

func parseISODateOnly(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}
