package execution

import (
	"strings"

	"github.com/sanmaysarada/astraea/internal/table"
)

// DeriveLC generates the LC (Laboratory - Non-Standard Units) domain
// structurally from an already-executed LB table: LB-prefixed columns are
// renamed to LC-prefixed, LCSEQ mirrors LBSEQ row-for-row, and
// lc_unit_conversion_performed is carried as false so the validator can
// emit the appropriate warning — Astraea never attempts the underlying unit
// conversion itself.
func DeriveLC(lb *table.Table) (lc *table.Table, unitConversionPerformed bool) {
	lc = &table.Table{Domain: "LC"}
	for _, row := range lb.Rows {
		nr := make(table.Row, len(row))
		for k, v := range row {
			if k == "LBSEQ" {
				nr["LCSEQ"] = v
				continue
			}
			if strings.HasPrefix(k, "LB") {
				nr["LC"+strings.TrimPrefix(k, "LB")] = v
				continue
			}
			nr[k] = v
		}
		lc.Rows = append(lc.Rows, nr)
	}
	return lc, false
}
