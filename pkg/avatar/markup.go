package avatar

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MarkupKind distinguishes the two inline trigger kinds.
type MarkupKind int

const (
	// MarkupState sets a facial expression preset.
	MarkupState MarkupKind = iota
	// MarkupAction triggers a body animation clip.
	MarkupAction
)

// String returns a string representation of the markup kind.
func (k MarkupKind) String() string {
	switch k {
	case MarkupState:
		return "state"
	case MarkupAction:
		return "action"
	default:
		return "unknown"
	}
}

// Markup is one inline annotation extracted from marked text. Offset is
// a rune index into the resulting plain text, so subtitle rendering and
// trigger firing share one coordinate space. Seq preserves parse order
// for tie-breaking at equal offsets.
type Markup struct {
	Kind   MarkupKind
	Value  string
	Offset int
	Seq    int
}

// At converts the character offset into seconds relative to segment
// start by linear scaling over the plain text length.
func (m Markup) At(plainRunes int, total float64) float64 {
	if plainRunes <= 0 || total <= 0 {
		return 0
	}
	at := total * float64(m.Offset) / float64(plainRunes)
	if at < 0 {
		return 0
	}
	return at
}

// tagPattern matches [Kind:value] tags. The kind is validated
// separately so unknown kinds stay in the text as written.
var tagPattern = regexp.MustCompile(`\[([A-Za-z]+):([^\[\]]*)\]`)

// ParseMarkup splits marked text into plain text and its ordered timed
// markups. Tags of the form [State:x] or [Action:x] (kind
// case-insensitive) are stripped; any other bracket syntax is preserved
// as literal text. The function is pure and never fails: malformed
// input degrades to plain text with no markups.
func ParseMarkup(marked string) (string, []Markup) {
	if marked == "" {
		return "", nil
	}

	matches := tagPattern.FindAllStringSubmatchIndex(marked, -1)
	if len(matches) == 0 {
		return marked, nil
	}

	var plain strings.Builder
	var markups []Markup
	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		kindStr := marked[m[2]:m[3]]
		value := strings.TrimSpace(marked[m[4]:m[5]])

		var kind MarkupKind
		switch strings.ToLower(kindStr) {
		case "state":
			kind = MarkupState
		case "action":
			kind = MarkupAction
		default:
			// Unrecognized kind: keep the bracket text verbatim.
			continue
		}

		plain.WriteString(marked[last:start])
		last = end

		if value == "" {
			continue
		}

		// The trigger binds to the word boundary before the tag, so
		// trailing whitespace does not count toward the offset.
		anchored := strings.TrimRight(plain.String(), " \t\r\n")
		markups = append(markups, Markup{
			Kind:   kind,
			Value:  value,
			Offset: utf8.RuneCountInString(anchored),
			Seq:    len(markups),
		})
	}

	plain.WriteString(marked[last:])
	return plain.String(), markups
}
