package timeline

import (
	"regexp"
	"strconv"
	"strings"

	"ctma/internal/scenario"
)

var tokenPattern = regexp.MustCompile(`^\[?([CEI])-(\d+)\]?$`)

// ParseCitation accepts "C-3" or "[C-3]". Brackets must be balanced and the
// number must be canonical: "C-03" is rejected.
func ParseCitation(token string) (Stream, int, bool) {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "[") != strings.HasSuffix(token, "]") {
		return 0, 0, false
	}
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || strconv.Itoa(n) != m[2] {
		return 0, 0, false
	}
	return Stream(m[1][0]), n, true
}

// Index maps citation ids to timeline entries for one scenario.
type Index struct {
	byID map[string]Entry
}

// NewIndex builds the lookup from the original per-stream positions.
func NewIndex(t scenario.Telemetry) *Index {
	all := entries(t)
	idx := &Index{byID: make(map[string]Entry, len(all))}
	for _, e := range all {
		idx.byID[e.ID] = e
	}
	return idx
}

// Resolve returns the entry a token refers to. Malformed or out-of-range
// tokens report false.
func (x *Index) Resolve(token string) (Entry, bool) {
	if x == nil {
		return Entry{}, false
	}
	s, n, ok := ParseCitation(token)
	if !ok {
		return Entry{}, false
	}
	e, ok := x.byID[citationID(s, n)]
	return e, ok
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byID)
}

// ResolveCitation is the one-shot form of NewIndex(t).Resolve(token).
func ResolveCitation(token string, t scenario.Telemetry) (Entry, bool) {
	return NewIndex(t).Resolve(token)
}
