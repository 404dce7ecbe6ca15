package execution

import (
	"fmt"
	"sort"

	"github.com/sanmaysarada/astraea/internal/reference"
	"github.com/sanmaysarada/astraea/internal/table"
)

// assignSeq assigns {domain-prefix}SEQ = 1..N per USUBJID, sorted by
// USUBJID then by insertion order (a stable secondary key), if the
// reference spec declares the SEQ variable as Req or Exp.
func assignSeq(out *table.Table, domain *reference.Domain) error {
	seqVar := domain.Code + "SEQ"
	v := domain.VariableByName(seqVar)
	if v == nil || (v.Core != reference.CoreReq && v.Core != reference.CoreExp) {
		return nil
	}

	type indexed struct {
		row table.Row
		idx int
	}
	indices := make([]indexed, len(out.Rows))
	for i, r := range out.Rows {
		indices[i] = indexed{row: r, idx: i}
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return indices[a].row["USUBJID"] < indices[b].row["USUBJID"]
	})

	counters := make(map[string]int)
	for _, entry := range indices {
		usubjid := entry.row["USUBJID"]
		counters[usubjid]++
		out.Rows[entry.idx][seqVar] = fmt.Sprintf("%d", counters[usubjid])
	}
	return nil
}
