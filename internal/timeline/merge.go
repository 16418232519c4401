// Package timeline merges a scenario's three telemetry streams into one
// chronological view and resolves narrative citation tokens against them.
package timeline

import (
	"sort"
	"strconv"
	"time"

	"ctma/internal/scenario"
)

// Stream identifies a telemetry stream by its citation letter.
type Stream byte

const (
	StreamCognitive   Stream = 'C'
	StreamEnvironment Stream = 'E'
	StreamInteraction Stream = 'I'
)

func (s Stream) String() string { return string(s) }

// Tag is the short display tag used by the console.
func (s Stream) Tag() string {
	switch s {
	case StreamCognitive:
		return "COG"
	case StreamEnvironment:
		return "SYS"
	case StreamInteraction:
		return "USR"
	default:
		return "???"
	}
}

// Entry is one telemetry record placed on the merged timeline.
type Entry struct {
	Stream Stream
	// Index is the position in the stream's original order; it is what
	// citation tokens refer to, not the position on the timeline.
	Index int
	// ID is the citation form, e.g. "C-0".
	ID string
	// Timestamp is the parsed time; zero when RawTimestamp did not parse.
	Timestamp    time.Time
	RawTimestamp string
	Label        string
	HighPressure bool
	Event        scenario.Event

	parsed bool
}

// Parsed reports whether the timestamp parsed as RFC 3339.
func (e Entry) Parsed() bool { return e.parsed }

// Clock formats the entry time as HH:MM:SS, or the raw text if unparsed.
func (e Entry) Clock() string {
	if !e.Parsed() {
		return e.RawTimestamp
	}
	return e.Timestamp.UTC().Format("15:04:05")
}

func citationID(s Stream, i int) string {
	return string(s) + "-" + strconv.Itoa(i)
}

func newEntry(s Stream, i int, ev scenario.Event) Entry {
	e := Entry{
		Stream:       s,
		Index:        i,
		ID:           citationID(s, i),
		RawTimestamp: ev.When(),
		Label:        ev.Label(),
		HighPressure: ev.Pressured(),
		Event:        ev,
	}
	if ts, err := time.Parse(time.RFC3339, ev.When()); err == nil {
		e.Timestamp = ts
		e.parsed = true
	}
	return e
}

// entries lists every record in stream order C, E, I.
func entries(t scenario.Telemetry) []Entry {
	out := make([]Entry, 0, t.Len())
	for i, ev := range t.Cognitive {
		out = append(out, newEntry(StreamCognitive, i, ev))
	}
	for i, ev := range t.Environment {
		out = append(out, newEntry(StreamEnvironment, i, ev))
	}
	for i, ev := range t.Interaction {
		out = append(out, newEntry(StreamInteraction, i, ev))
	}
	return out
}

// BuildMerged returns all records sorted by timestamp ascending. Ties keep
// stream order C, E, I and then original index. Records whose timestamp
// does not parse go last, in input order. The result is never nil.
func BuildMerged(t scenario.Telemetry) []Entry {
	out := entries(t)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Parsed() != b.Parsed() {
			return a.Parsed()
		}
		return a.Timestamp.Before(b.Timestamp)
	})
	return out
}

// Position returns the timeline position of the entry with the given
// citation id, or -1.
func Position(merged []Entry, id string) int {
	for i, e := range merged {
		if e.ID == id {
			return i
		}
	}
	return -1
}
