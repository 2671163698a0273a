package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var keywords = []string{"FORWARD", "BACK", "LEFT", "RIGHT", "PENUP", "PENDOWN", "PRINT", "GOTO", "GOSUB", "REPEAT", "HOME"}

func TestSuggest(t *testing.T) {
	s := New()
	tests := []struct {
		word       string
		candidates []string
		want       string
	}{
		{"FORWRD", keywords, "FORWARD"},
		{"pritn", keywords, "PRINT"},
		{"RIGTH", keywords, "RIGHT"},
		{"FWRD", keywords, "FORWARD"},
		{"LOPP", []string{"LOOP", "START", "END"}, "LOOP"},
		{"strat", []string{"LOOP", "START"}, "START"},
		{"XYZZY", keywords, ""},
		{"", keywords, ""},
		{"FORWRD", nil, ""},
		{"GOTO", []string{"GOTO"}, ""},
		{"99", []string{"90", "100"}, "90"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Suggest(tt.word, tt.candidates))
		})
	}
}

func TestSuggest_TypoOnlyWhenCandidateKnown(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.Suggest("PRITN", []string{"LOOP"}))
}

func TestSuggest_TiesBreakByName(t *testing.T) {
	s := New()
	for i := 0; i < 20; i++ {
		assert.Equal(t, "CAT", s.Suggest("BAT", []string{"HAT", "CAT", "MAT"}))
	}
}

func TestSuggest_PreservesCandidateSpelling(t *testing.T) {
	s := New()
	assert.Equal(t, "Square", s.Suggest("SQAURE", []string{"Square", "Circle"}))
}

func TestSuggest_Options(t *testing.T) {
	strict := New(WithMaxDistance(0))
	assert.Equal(t, "", strict.Suggest("LOPP", []string{"LOOP"}))

	custom := New(WithTypos(map[string]string{"squre": "square"}))
	assert.Equal(t, "SQUARE", custom.Suggest("SQURE", []string{"SQUARE", "SQUAT"}))
}
