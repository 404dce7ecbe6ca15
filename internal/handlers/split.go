package handlers

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sanmaysarada/astraea/internal/dsl"
	"github.com/sanmaysarada/astraea/internal/table"
)

func splitSubstring(row table.Row, call *dsl.Call) (Result, error) {
	if len(call.Args) != 3 || call.Args[0].Ref == nil {
		return Result{}, fmt.Errorf("handlers: SUBSTRING expects (column, start, end)")
	}
	raw := row[call.Args[0].Ref.Column]
	start, err := dsl.IntArg(call.Args[1])
	if err != nil {
		return Result{}, fmt.Errorf("handlers: SUBSTRING start: %w", err)
	}
	end, err := dsl.IntArg(call.Args[2])
	if err != nil {
		return Result{}, fmt.Errorf("handlers: SUBSTRING end: %w", err)
	}
	if start < 0 {
		start = 0
	}
	if end > len(raw) {
		end = len(raw)
	}
	if start >= end || start > len(raw) {
		return Result{Value: ""}, nil
	}
	return Result{Value: raw[start:end]}, nil
}

func splitDelimiterPart(row table.Row, call *dsl.Call) (Result, error) {
	if len(call.Args) != 3 || call.Args[0].Ref == nil {
		return Result{}, fmt.Errorf("handlers: DELIMITER_PART expects (column, delimiter, index)")
	}
	raw := row[call.Args[0].Ref.Column]
	delim := call.Args[1].Str
	idx, err := dsl.IntArg(call.Args[2])
	if err != nil {
		return Result{}, fmt.Errorf("handlers: DELIMITER_PART index: %w", err)
	}
	parts := strings.Split(raw, delim)
	if idx < 0 || idx >= len(parts) {
		return Result{Value: ""}, nil
	}
	return Result{Value: parts[idx]}, nil
}

func splitRegexGroup(row table.Row, call *dsl.Call) (Result, error) {
	if len(call.Args) != 3 || call.Args[0].Ref == nil {
		return Result{}, fmt.Errorf("handlers: REGEX_GROUP expects (column, pattern, group_index)")
	}
	raw := row[call.Args[0].Ref.Column]
	pattern := call.Args[1].Str
	group, err := dsl.IntArg(call.Args[2])
	if err != nil {
		return Result{}, fmt.Errorf("handlers: REGEX_GROUP group index: %w", err)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{}, fmt.Errorf("handlers: REGEX_GROUP invalid pattern %q: %w", pattern, err)
	}
	matches := re.FindStringSubmatch(raw)
	if group < 0 || group >= len(matches) {
		return Result{Value: ""}, nil
	}
	return Result{Value: matches[group]}, nil
}
