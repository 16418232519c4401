package articulation

import (
	"regexp"
	"strings"
)

// =============================================================================
// NARRATIVE SEGMENTER - forensic narrative -> typed block stream
// =============================================================================
// The lexer walks the marker positions of the narrative once, left to right,
// and emits one block per marker or per run of plain text between markers.
// Markers are kept in the block payloads so Reconstruct can round-trip.

// Block is one unit of a segmented narrative. The concrete types are
// StageBlock, BadgeBlock, DisclosureBlock and BodyBlock.
type Block interface {
	// Source returns text that re-segments to this same block.
	Source() string
	block()
}

// StageBlock is a "STAGE n:" banner.
type StageBlock struct {
	// ID is the first digit run of the marker left-padded to width 2, or
	// empty when the marker carries no digits.
	ID string
	// Heading runs from the marker to the end of its line, trimmed.
	Heading string
}

// BadgeKind distinguishes the two mitigation tags.
type BadgeKind int

const (
	BadgeDesign BadgeKind = iota
	BadgeTraining
)

func (k BadgeKind) String() string {
	if k == BadgeTraining {
		return "training"
	}
	return "design"
}

// BadgeBlock is a [DESIGN-LEVEL] or [TRAINING-LEVEL] tag.
type BadgeBlock struct {
	Badge BadgeKind
	// Label is the tag with its brackets removed, in source casing.
	Label string
}

// DisclosureBlock is the closing "REASONING LOGIC:" section.
type DisclosureBlock struct {
	// Marker is the matched phrase including any colon, in source casing.
	Marker string
	// Text is everything up to the next marker, trimmed.
	Text string
}

// BodyBlock is free narrative between markers.
type BodyBlock struct {
	Paragraphs []Paragraph
}

// RunKind tells text runs from citation runs.
type RunKind int

const (
	RunText RunKind = iota
	RunCitation
)

// Run is a span of a paragraph. For citations Text is the bare token
// ("C-3"), without brackets.
type Run struct {
	Kind RunKind
	Text string
}

// Paragraph is one non-blank line of a body block.
type Paragraph struct {
	Runs []Run
}

func (StageBlock) block()      {}
func (BadgeBlock) block()      {}
func (DisclosureBlock) block() {}
func (BodyBlock) block()       {}

func (b StageBlock) Source() string { return b.Heading }
func (b BadgeBlock) Source() string { return "[" + b.Label + "]" }

func (b DisclosureBlock) Source() string {
	if b.Text == "" {
		return b.Marker
	}
	return b.Marker + " " + b.Text
}

func (b BodyBlock) Source() string {
	lines := make([]string, len(b.Paragraphs))
	for i, p := range b.Paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// Text reassembles the paragraph with citations in bracket form.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		if r.Kind == RunCitation {
			sb.WriteString("[" + r.Text + "]")
		} else {
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}

var (
	markerPattern   = regexp.MustCompile(`(?i)(STAGE\s+\d+:)|(\[DESIGN-LEVEL\])|(\[TRAINING-LEVEL\])|(REASONING\s+LOGIC:?)`)
	citationPattern = regexp.MustCompile(`\[([CEI]-\d+)\]`)
	digitRun        = regexp.MustCompile(`\d+`)
)

type markerKind int

const (
	markerStage markerKind = iota
	markerDesign
	markerTraining
	markerReasoning
)

// classifyMarker reports which capture group of markerPattern matched.
func classifyMarker(loc []int) markerKind {
	for k := markerStage; k <= markerReasoning; k++ {
		if loc[2*int(k)+2] >= 0 {
			return k
		}
	}
	return markerReasoning
}

// SegmentNarrative classifies a cleaned narrative into blocks in source
// order. Text without markers becomes a single body block.
func SegmentNarrative(narrative string) []Block {
	blocks := make([]Block, 0, 8)
	locs := markerPattern.FindAllStringSubmatchIndex(narrative, -1)

	pos := 0
	for i, loc := range locs {
		start, end := loc[0], loc[1]
		if start < pos {
			continue
		}
		next := len(narrative)
		if i+1 < len(locs) {
			next = locs[i+1][0]
		}

		if body, ok := bodyBlock(narrative[pos:start]); ok {
			blocks = append(blocks, body)
		}

		marker := narrative[start:end]
		switch classifyMarker(loc) {
		case markerStage:
			stop := next
			if nl := strings.IndexByte(narrative[end:next], '\n'); nl >= 0 {
				stop = end + nl
			}
			blocks = append(blocks, StageBlock{
				ID:      stageID(marker),
				Heading: strings.TrimSpace(narrative[start:stop]),
			})
			pos = stop
		case markerDesign:
			blocks = append(blocks, BadgeBlock{Badge: BadgeDesign, Label: strings.Trim(marker, "[]")})
			pos = end
		case markerTraining:
			blocks = append(blocks, BadgeBlock{Badge: BadgeTraining, Label: strings.Trim(marker, "[]")})
			pos = end
		case markerReasoning:
			blocks = append(blocks, DisclosureBlock{
				Marker: marker,
				Text:   strings.TrimSpace(narrative[end:next]),
			})
			pos = next
		}
	}

	if body, ok := bodyBlock(narrative[pos:]); ok {
		blocks = append(blocks, body)
	}
	return blocks
}

func stageID(marker string) string {
	d := digitRun.FindString(marker)
	if d == "" {
		return ""
	}
	if len(d) < 2 {
		d = strings.Repeat("0", 2-len(d)) + d
	}
	return d
}

func bodyBlock(chunk string) (BodyBlock, bool) {
	chunk = strings.TrimSpace(chunk)
	if chunk == "" {
		return BodyBlock{}, false
	}

	var paras []Paragraph
	for _, line := range strings.Split(chunk, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		paras = append(paras, Paragraph{Runs: splitCitations(line)})
	}
	return BodyBlock{Paragraphs: paras}, true
}

func splitCitations(line string) []Run {
	var runs []Run
	last := 0
	for _, m := range citationPattern.FindAllStringSubmatchIndex(line, -1) {
		if m[0] > last {
			runs = append(runs, Run{Kind: RunText, Text: line[last:m[0]]})
		}
		runs = append(runs, Run{Kind: RunCitation, Text: line[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(line) {
		runs = append(runs, Run{Kind: RunText, Text: line[last:]})
	}
	return runs
}

// Reconstruct joins the block sources with newlines. Segmenting the result
// yields the same blocks.
func Reconstruct(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Source()
	}
	return strings.Join(parts, "\n")
}

// Citations lists the citation tokens of all body blocks in reading order,
// duplicates included.
func Citations(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		body, ok := b.(BodyBlock)
		if !ok {
			continue
		}
		for _, p := range body.Paragraphs {
			for _, r := range p.Runs {
				if r.Kind == RunCitation {
					out = append(out, r.Text)
				}
			}
		}
	}
	return out
}
