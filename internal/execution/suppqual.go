package execution

import (
	"fmt"
	"strings"

	"github.com/sanmaysarada/astraea/internal/errors"
	"github.com/sanmaysarada/astraea/internal/table"
)

const opSuppqual errors.Op = "execution.GenerateSuppqual"

// SuppOrigin is the closed QORIG provenance enumeration for a supplemental
// qualifier value.
type SuppOrigin string

const (
	SuppOriginCRF      SuppOrigin = "CRF"
	SuppOriginAssigned SuppOrigin = "ASSIGNED"
	SuppOriginDerived  SuppOrigin = "DERIVED"
	SuppOriginProtocol SuppOrigin = "PROTOCOL"
)

// SuppVariable describes one non-standard column to carry into a parent
// domain's SUPP-- dataset.
type SuppVariable struct {
	QNAM      string // <=8 chars, uppercase alphanumeric
	QLabel    string // <=40 chars
	SourceCol string // column in the parent table holding the raw value
	QOrig     SuppOrigin
	QEval     string // optional evaluator, e.g. "INVESTIGATOR"
}

// GenerateSuppqual is deterministic and never LLM-invoked: it must run only
// after the parent domain table is finalized, since IDVARVAL addresses the
// parent's own --SEQ values.
func GenerateSuppqual(parent *table.Table, parentDomain, seqCol, studyID string, vars []SuppVariable) (*table.Table, error) {
	for _, v := range vars {
		if len(v.QNAM) > 8 {
			return nil, errors.E(opSuppqual, errors.KindSubmission, fmt.Sprintf("QNAM %q exceeds 8 characters", v.QNAM))
		}
		if len(v.QLabel) > 40 {
			return nil, errors.E(opSuppqual, errors.KindSubmission, fmt.Sprintf("QLABEL %q exceeds 40 characters", v.QLabel))
		}
	}

	out := &table.Table{Domain: "SUPP" + parentDomain}
	for _, row := range parent.Rows {
		for _, v := range vars {
			val := row[v.SourceCol]
			if strings.TrimSpace(val) == "" {
				continue
			}
			out.Rows = append(out.Rows, table.Row{
				"STUDYID": studyID,
				"RDOMAIN": parentDomain,
				"USUBJID": row["USUBJID"],
				"IDVAR":   seqCol,
				"IDVARVAL": row[seqCol],
				"QNAM":    v.QNAM,
				"QLABEL":  v.QLabel,
				"QVAL":    val,
				"QORIG":   string(v.QOrig),
				"QEVAL":   v.QEval,
			})
		}
	}

	if err := validateSuppqualIntegrity(parent, out, seqCol); err != nil {
		return nil, err
	}
	return out, nil
}

// validateSuppqualIntegrity enforces spec.md §4.9's referential integrity
// rule: every (RDOMAIN, USUBJID, IDVAR, IDVARVAL) must address an existing
// parent record, and no (USUBJID, IDVARVAL, QNAM) triple may repeat within
// the SUPP-- dataset.
func validateSuppqualIntegrity(parent, supp *table.Table, seqCol string) error {
	parentKeys := make(map[string]bool, len(parent.Rows))
	for _, row := range parent.Rows {
		parentKeys[row["USUBJID"]+"|"+row[seqCol]] = true
	}

	seen := make(map[string]bool, len(supp.Rows))
	for _, row := range supp.Rows {
		parentKey := row["USUBJID"] + "|" + row["IDVARVAL"]
		if !parentKeys[parentKey] {
			return errors.E(opSuppqual, errors.KindSubmission, fmt.Sprintf("SUPPQUAL row references nonexistent parent record %s", parentKey))
		}
		dupKey := row["USUBJID"] + "|" + row["IDVARVAL"] + "|" + row["QNAM"]
		if seen[dupKey] {
			return errors.E(opSuppqual, errors.KindSubmission, fmt.Sprintf("duplicate SUPPQUAL record %s", dupKey))
		}
		seen[dupKey] = true
	}
	return nil
}
