package trialdesign

import "github.com/sanmaysarada/astraea/internal/table"

// BuildSV derives one Subject Visits row per (USUBJID, visit), from raw
// rows already carrying EDC visit metadata (instance name, folder name,
// folder sequence) and a date column. SVSTDTC/SVENDTC are the min/max date
// observed for that subject at that visit across every source row — a
// visit can span several raw records (multiple forms per visit instance).
func BuildSV(studyID string, rows []table.Row, usubjidCol, visitCol, visitNumCol, dateCol string) *table.Table {
	type key struct{ usubjid, visit string }
	type agg struct {
		visitNum   string
		min, max   string
	}
	aggregates := make(map[key]*agg)
	var order []key

	for _, row := range rows {
		k := key{row[usubjidCol], row[visitCol]}
		a, ok := aggregates[k]
		if !ok {
			a = &agg{visitNum: row[visitNumCol]}
			aggregates[k] = a
			order = append(order, k)
		}
		date := row[dateCol]
		if date == "" {
			continue
		}
		if a.min == "" || date < a.min {
			a.min = date
		}
		if a.max == "" || date > a.max {
			a.max = date
		}
	}

	out := &table.Table{Domain: "SV"}
	for _, k := range order {
		a := aggregates[k]
		out.Rows = append(out.Rows, table.Row{
			"STUDYID":  studyID,
			"USUBJID":  k.usubjid,
			"VISIT":    k.visit,
			"VISITNUM": a.visitNum,
			"SVSTDTC":  a.min,
			"SVENDTC":  a.max,
		})
	}
	return out
}
