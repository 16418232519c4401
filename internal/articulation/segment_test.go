package articulation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) Run     { return Run{Kind: RunText, Text: s} }
func citation(s string) Run { return Run{Kind: RunCitation, Text: s} }

func para(runs ...Run) Paragraph { return Paragraph{Runs: runs} }

func TestSegmentNarrative_StageWithCitation(t *testing.T) {
	got := SegmentNarrative("STAGE 1: FOO\nbar [C-2] baz")

	want := []Block{
		StageBlock{ID: "01", Heading: "STAGE 1: FOO"},
		BodyBlock{Paragraphs: []Paragraph{para(text("bar "), citation("C-2"), text(" baz"))}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentNarrative mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentNarrative_NoMarkers(t *testing.T) {
	in := "Plain narrative with no markers at all."
	got := SegmentNarrative(in)

	require.Len(t, got, 1)
	body, ok := got[0].(BodyBlock)
	require.True(t, ok)
	assert.Equal(t, in, body.Source())
}

func TestSegmentNarrative_FullReport(t *testing.T) {
	in := `STAGE 1: COGNITIVE RECONSTRUCTION
Workload rose sharply [C-0] as arrivals stacked [E-1][E-2].

STAGE 2: COGNITIVE VULNERABILITY INFERENCE
Warnings were likely ignored [I-1].
STAGE 4: HUMAN-CENTERED SECURITY MITIGATIONS
[DESIGN-LEVEL] Throttle non-critical alerts.
[TRAINING-LEVEL] Practice verification under time pressure.
REASONING LOGIC: Vigilance decrement and speed-accuracy trade-off.`

	got := SegmentNarrative(in)

	want := []Block{
		StageBlock{ID: "01", Heading: "STAGE 1: COGNITIVE RECONSTRUCTION"},
		BodyBlock{Paragraphs: []Paragraph{
			para(text("Workload rose sharply "), citation("C-0"), text(" as arrivals stacked "), citation("E-1"), citation("E-2"), text(".")),
		}},
		StageBlock{ID: "02", Heading: "STAGE 2: COGNITIVE VULNERABILITY INFERENCE"},
		BodyBlock{Paragraphs: []Paragraph{para(text("Warnings were likely ignored "), citation("I-1"), text("."))}},
		StageBlock{ID: "04", Heading: "STAGE 4: HUMAN-CENTERED SECURITY MITIGATIONS"},
		BadgeBlock{Badge: BadgeDesign, Label: "DESIGN-LEVEL"},
		BodyBlock{Paragraphs: []Paragraph{para(text("Throttle non-critical alerts."))}},
		BadgeBlock{Badge: BadgeTraining, Label: "TRAINING-LEVEL"},
		BodyBlock{Paragraphs: []Paragraph{para(text("Practice verification under time pressure."))}},
		DisclosureBlock{Marker: "REASONING LOGIC:", Text: "Vigilance decrement and speed-accuracy trade-off."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentNarrative mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"C-0", "E-1", "E-2", "I-1"}, Citations(got))
}

func TestSegmentNarrative_CaseInsensitiveMarkers(t *testing.T) {
	got := SegmentNarrative("stage 12: late\n[design-level] x\nReasoning Logic because")

	want := []Block{
		StageBlock{ID: "12", Heading: "stage 12: late"},
		BadgeBlock{Badge: BadgeDesign, Label: "design-level"},
		BodyBlock{Paragraphs: []Paragraph{para(text("x"))}},
		DisclosureBlock{Marker: "Reasoning Logic", Text: "because"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentNarrative mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentNarrative_UnicodeFoldedMarkers(t *testing.T) {
	// U+017F folds to 's' under (?i).
	got := SegmentNarrative("ſTAGE 2: Inference\nbody\n[DEſIGN-LEVEL] add banner\nREAſONING LOGIC: load")

	want := []Block{
		StageBlock{ID: "02", Heading: "ſTAGE 2: Inference"},
		BodyBlock{Paragraphs: []Paragraph{para(text("body"))}},
		BadgeBlock{Badge: BadgeDesign, Label: "DEſIGN-LEVEL"},
		BodyBlock{Paragraphs: []Paragraph{para(text("add banner"))}},
		DisclosureBlock{Marker: "REAſONING LOGIC:", Text: "load"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentNarrative mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentNarrative_HeadingStopsAtNextMarker(t *testing.T) {
	got := SegmentNarrative("STAGE 4: MITIGATIONS [DESIGN-LEVEL] Add friction.")

	want := []Block{
		StageBlock{ID: "04", Heading: "STAGE 4: MITIGATIONS"},
		BadgeBlock{Badge: BadgeDesign, Label: "DESIGN-LEVEL"},
		BodyBlock{Paragraphs: []Paragraph{para(text("Add friction."))}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentNarrative mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentNarrative_BodyDetails(t *testing.T) {
	t.Run("blank lines filtered, inner whitespace kept", func(t *testing.T) {
		got := SegmentNarrative("first  line\n\n   \nsecond\tline")
		want := []Block{BodyBlock{Paragraphs: []Paragraph{para(text("first  line")), para(text("second\tline"))}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("citation tokens are case sensitive", func(t *testing.T) {
		got := SegmentNarrative("see [c-1] and [X-2] and [I-10]")
		want := []Block{BodyBlock{Paragraphs: []Paragraph{para(text("see [c-1] and [X-2] and "), citation("I-10"))}}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("whitespace only", func(t *testing.T) {
		assert.Empty(t, SegmentNarrative(" \n\t "))
		assert.Empty(t, SegmentNarrative(""))
	})

	t.Run("empty disclosure", func(t *testing.T) {
		got := SegmentNarrative("REASONING LOGIC:")
		want := []Block{DisclosureBlock{Marker: "REASONING LOGIC:"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestStageID(t *testing.T) {
	assert.Equal(t, "01", stageID("STAGE 1:"))
	assert.Equal(t, "10", stageID("STAGE 10:"))
	assert.Equal(t, "123", stageID("STAGE 123:"))
	assert.Equal(t, "", stageID("STAGE :"))
}

func TestReconstructRoundTrip(t *testing.T) {
	inputs := []string{
		"STAGE 1: FOO\nbar [C-2] baz",
		"intro text\nSTAGE 2: X [TRAINING-LEVEL] drill\n\nmore [E-0]\nREASONING LOGIC: why [C-1]",
		"no markers\n\nat all",
		"[DESIGN-LEVEL][TRAINING-LEVEL]STAGE 3:",
		"reasoning logic - lowercase disclosure",
	}
	for _, in := range inputs {
		first := SegmentNarrative(in)
		second := SegmentNarrative(Reconstruct(first))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("round trip of %q changed blocks (-first +second):\n%s", in, diff)
		}
	}
}

func TestCitationsIgnoreNonBody(t *testing.T) {
	blocks := SegmentNarrative("STAGE 1: heading [C-9]\nbody [E-3]\nREASONING LOGIC: [I-4]")
	assert.Equal(t, []string{"E-3"}, Citations(blocks))
}

func TestBadgeKindString(t *testing.T) {
	assert.Equal(t, "design", BadgeDesign.String())
	assert.Equal(t, "training", BadgeTraining.String())
}
