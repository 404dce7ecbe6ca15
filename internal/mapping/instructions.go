package mapping

// instructionsBlock is the fixed prose appended after the context builder's
// sections, describing the nine mapping patterns, the derivation mini-DSL,
// and the SPLIT grammar. It never varies per domain — only the sections
// ahead of it do.
const instructionsBlock = `## Mapping Instructions

Propose one mapping per target SDTM variable using one of these patterns:

  - ASSIGN: a constant value, independent of any source column.
  - DIRECT: copy a source column's value unchanged.
  - RENAME: identical to DIRECT; use when the source column is itself
    already named like the target but under a different case/prefix, to
    preserve that provenance distinction for define.xml Origin inference.
  - REFORMAT: reformat a single source column's value (date parsing,
    numeric-to-Y/N, partial-date imputation).
  - SPLIT: derive the value from part of a single source column.
  - COMBINE: concatenate multiple source columns and/or literals.
  - DERIVATION: compute the value from a named derivation (USUBJID
    composition, cross-domain min/max, study-day, epoch, visit mapping,
    race-checkbox combine, country-name-to-ISO-3166, partial-date
    imputation).
  - LOOKUP_RECODE: recode a source value through a controlled-terminology
    codelist.
  - TRANSPOSE: reshape wide source columns into tall Findings-domain rows
    (used once per domain, not per variable).

Prefer source columns ending in "_STD" when both a raw and standardized
variant exist.

Flag any unmapped raw source variable that appears to carry clinically
meaningful, non-standard data as a SUPPQUAL candidate.

Derivation-rule mini-DSL (used in the derivation_rule field):

  ASSIGN("literal value")
  DIRECT(dataset.column)
  RENAME(dataset.column)
  CONCAT(a, "-", b, ...)
  ISO8601(dataset.column)
  PARTIAL_DATE(dataset.column, "first"|"last"|"mid")
  MIN(dataset.column WHERE condition JOIN ON key)
  MAX(dataset.column WHERE condition JOIN ON key)
  CODELIST_LOOKUP(dataset.column, "C12345")
  SUBSTRING(dataset.column, start, end)
  DELIMITER_PART(dataset.column, "delimiter", index)
  REGEX_GROUP(dataset.column, "pattern", group_index)

The grammar is fixed: a keyword, an open paren, comma-separated positional
arguments (bare dotted identifiers, quoted strings, or nested calls), a
close paren. An unrecognized keyword in a SPLIT derivation falls back to
passing the source column through unchanged, with a warning — it must never
produce a null column.

For every proposal, provide a confidence in [0, 1] and a one-sentence
rationale.
`
