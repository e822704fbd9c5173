package clixml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeTextLoneSurrogate(t *testing.T) {
	s := string([]byte{0xED, 0xA0, 0x80}) // WTF-8 for U+D800
	encoded := encodeText(s)
	assert.Equal(t, "_xD800_", encoded)
	assert.Equal(t, s, decodeText(encoded))
}

func TestEncodeTextLiteralEscapeLooking(t *testing.T) {
	got := encodeText("_x0041_")
	assert.Equal(t, "_x005F_x0041_", got)
	assert.Equal(t, "_x0041_", decodeText(got))
}

func TestDecodeRejectsNonHexMiddle(t *testing.T) {
	// "_xZZZZ_" is not a valid escape (Z not hex); passes through verbatim.
	assert.Equal(t, "_xZZZZ_", decodeText("_xZZZZ_"))
}

func TestEncodeTextControlChar(t *testing.T) {
	assert.Equal(t, "_x0001_", encodeText("\x01"))
	assert.Equal(t, "\x01", decodeText("_x0001_"))
}

func TestEncodeTextPreservesTabNewlineCR(t *testing.T) {
	in := "a\tb\nc\rd"
	assert.Equal(t, in, encodeText(in))
}

func TestEncodeTextXMLMetachars(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt; c &gt; d", encodeText("a & b < c > d"))
}
