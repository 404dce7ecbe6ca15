package validation

// registry is every rule the engine runs, in a fixed declaration order so
// findings are reproducible across runs for the same input.
var registry = []Rule{
	ruleCTMembership,
	rulePresenceRequired,
	rulePresenceExpected,
	rulePresenceUSUBJID,
	rulePresenceDM,
	ruleUSUBJIDSubsetOfDM,
	ruleSTUDYIDConstant,
	ruleDYSignConsistency,
	ruleVariableNameLength,
	ruleVariableLabelLength,
	ruleCharValueWidth,
	ruleDTCFormat,
	ruleASCIIOnly,
	ruleDomainFilename,
	ruleSEXETHNICNonExtensible,
	ruleAEReasonCodes,
	ruleAEDateOrder,
	ruleCountryISO3166,
	ruleVISITNUMNumeric,
	ruleDYNonZero,
	ruleCMTRTEXTRTNonNull,
	ruleLBResultPairing,
	ruleTESTCDTestOneToOne,
	ruleSTRESUConsistentPerTestcd,
	ruleLCUnitConversionFlag,
	rulePopulationFlagsAbsent,
	ruleSEQUniquePerSubject,
	ruleSuppqualIntegrity,
	ruleVariableOrdering,
	ruleTRCDMPresent,
	ruleTRCTSParams,
	ruleTRCDefineXMLPresent,
	ruleTRCSTUDYIDConsistent,
	ruleTRCFilenamesLowercase,
}

// ValidateAll runs every registered rule against ctx and returns every
// finding in registry order. Rules never mutate ctx, so the full set can
// run unconditionally regardless of how many earlier rules already failed.
func ValidateAll(ctx EvalContext) []RuleResult {
	var out []RuleResult
	for _, r := range registry {
		out = append(out, r.Evaluate(ctx)...)
	}
	return out
}

// Summary tallies findings by severity, the shape a CLI reports to a user
// at a glance before drilling into individual RuleResults.
type Summary struct {
	Errors   int
	Warnings int
}

// Summarize tallies results by severity.
func Summarize(results []RuleResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		}
	}
	return s
}
