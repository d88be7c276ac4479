package avatar

import (
	"reflect"
	"testing"
)

func TestParseMarkup(t *testing.T) {
	tests := []struct {
		name    string
		marked  string
		plain   string
		markups []Markup
	}{
		{
			name:    "empty input",
			marked:  "",
			plain:   "",
			markups: nil,
		},
		{
			name:    "no tags",
			marked:  "just plain text",
			plain:   "just plain text",
			markups: nil,
		},
		{
			name:   "state and action",
			marked: "[State:happy]Hi [Action:wave]there",
			plain:  "Hi there",
			markups: []Markup{
				{Kind: MarkupState, Value: "happy", Offset: 0, Seq: 0},
				{Kind: MarkupAction, Value: "wave", Offset: 2, Seq: 1},
			},
		},
		{
			name:   "lowercase kind accepted",
			marked: "[state:sad]Oh no",
			plain:  "Oh no",
			markups: []Markup{
				{Kind: MarkupState, Value: "sad", Offset: 0, Seq: 0},
			},
		},
		{
			name:   "value whitespace trimmed",
			marked: "[Action: nod ]Sure",
			plain:  "Sure",
			markups: []Markup{
				{Kind: MarkupAction, Value: "nod", Offset: 0, Seq: 0},
			},
		},
		{
			name:    "unknown kind stays literal",
			marked:  "look at [Color:red]this",
			plain:   "look at [Color:red]this",
			markups: nil,
		},
		{
			name:    "empty value stripped without trigger",
			marked:  "before [State:] after",
			plain:   "before  after",
			markups: nil,
		},
		{
			name:    "unclosed bracket preserved",
			marked:  "broken [State:happy tag",
			plain:   "broken [State:happy tag",
			markups: nil,
		},
		{
			name:   "tag at end of text",
			marked: "goodbye [Action:bow]",
			plain:  "goodbye ",
			markups: []Markup{
				{Kind: MarkupAction, Value: "bow", Offset: 7, Seq: 0},
			},
		},
		{
			name:   "multibyte runes counted as one",
			marked: "héllo [Action:wave]wörld",
			plain:  "héllo wörld",
			markups: []Markup{
				{Kind: MarkupAction, Value: "wave", Offset: 5, Seq: 0},
			},
		},
		{
			name:   "adjacent tags share an offset in parse order",
			marked: "go [State:happy][Action:jump]now",
			plain:  "go now",
			markups: []Markup{
				{Kind: MarkupState, Value: "happy", Offset: 2, Seq: 0},
				{Kind: MarkupAction, Value: "jump", Offset: 2, Seq: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, markups := ParseMarkup(tt.marked)
			if plain != tt.plain {
				t.Errorf("plain = %q, want %q", plain, tt.plain)
			}
			if !reflect.DeepEqual(markups, tt.markups) {
				t.Errorf("markups = %+v, want %+v", markups, tt.markups)
			}
		})
	}
}

func TestParseMarkupIdempotentOnPlain(t *testing.T) {
	plain, _ := ParseMarkup("[State:happy]Hi [Action:wave]there")
	again, markups := ParseMarkup(plain)
	if again != plain {
		t.Errorf("reparse changed text: %q -> %q", plain, again)
	}
	if len(markups) != 0 {
		t.Errorf("reparse produced %d markups, want 0", len(markups))
	}
}

func TestMarkupAt(t *testing.T) {
	tests := []struct {
		name       string
		offset     int
		plainRunes int
		total      float64
		want       float64
	}{
		{"start of segment", 0, 8, 4.0, 0},
		{"quarter of the way", 2, 8, 4.0, 1.0},
		{"end of segment", 8, 8, 4.0, 4.0},
		{"zero length text", 3, 0, 4.0, 0},
		{"zero duration", 3, 8, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Markup{Offset: tt.offset}
			if got := m.At(tt.plainRunes, tt.total); got != tt.want {
				t.Errorf("At(%d, %v) = %v, want %v", tt.plainRunes, tt.total, got, tt.want)
			}
		})
	}
}
