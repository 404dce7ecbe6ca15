package trialdesign

import "github.com/sanmaysarada/astraea/internal/table"

// BuildRELREC is an explicit out-of-v1-scope stub: RELREC (the dataset
// relating records across domains) always returns an empty table and a
// deferral warning, per spec.md §4.10.
func BuildRELREC() (*table.Table, string) {
	return &table.Table{Domain: "RELREC"}, "RELREC is deferred: cross-domain record relationships are not generated in this version"
}
