package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatLinesCopies(t *testing.T) {
	original := []string{"a", "b"}
	upper := Format(func(lines []string) []string {
		for i := range lines {
			lines[i] = lines[i] + "!"
		}
		return lines
	})

	out := FormatLines(Definition{Format: upper}, original)
	assert.Equal(t, []string{"a!", "b!"}, out)
	assert.Equal(t, []string{"a", "b"}, original)
}

func TestFormatLinesNilPassthrough(t *testing.T) {
	out := FormatLines(Definition{}, []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestJoinWith(t *testing.T) {
	f := JoinWith("; ")
	assert.Equal(t, []string{"a; b; c"}, f([]string{"a", "b", "c"}))
	assert.Equal(t, []string{"a"}, f([]string{"a"}))
}

func TestBracketedPaste(t *testing.T) {
	assert.Equal(t, []string{"a"}, BracketedPaste([]string{"a"}))
	assert.Equal(t,
		[]string{"\x1b[200~", "a", "b", "\x1b[201~"},
		BracketedPaste([]string{"a", "b"}))
}

func TestStripBlank(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StripBlank([]string{"a", "", "  ", "b"}))
}

func TestStripBlankLeavesInputIntact(t *testing.T) {
	in := []string{"", "a", "", "b"}
	out := StripBlank(in)
	assert.Equal(t, []string{"a", "b"}, out)
	assert.Equal(t, []string{"", "a", "", "b"}, in)
}

func TestChain(t *testing.T) {
	f := Chain(StripBlank, JoinWith(" "))
	assert.Equal(t, []string{"a b"}, f([]string{"a", "", "b"}))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a", ""}, SplitLines("a\n\n"))
}
