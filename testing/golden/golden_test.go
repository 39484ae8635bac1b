package golden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsANSI(t *testing.T) {
	in := "\x1b[1;35mbold\x1b[0m text"
	assert.Equal(t, "bold text", Normalize(in))
}

func TestNormalizeTrailingWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb\n", Normalize("a  \nb\t\r\n"))
}

func TestNormalizeHyperlinks(t *testing.T) {
	in := "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\"
	assert.Equal(t, "link", Normalize(in))
}
