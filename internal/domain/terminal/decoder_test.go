package terminal

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestDecoderSplitRune(t *testing.T) {
	var dec utf8Decoder
	euro := []byte("€") // e2 82 ac

	assert.Equal(t, "price: ", dec.Decode(append([]byte("price: "), euro[:2]...)))
	assert.Equal(t, "€5", dec.Decode(append(euro[2:], '5')))
	assert.Equal(t, "", dec.Flush())
}

func TestDecoderInvalidBytes(t *testing.T) {
	var dec utf8Decoder

	assert.Equal(t, "a\uFFFDb", dec.Decode([]byte{'a', 0xff, 'b'}))
	// A truncated rune followed by ASCII cannot complete.
	assert.Equal(t, "", dec.Decode([]byte{0xe2, 0x82}))
	assert.Equal(t, "\uFFFDx", dec.Decode([]byte{'x'}))
}

func TestDecoderFlushTruncated(t *testing.T) {
	var dec utf8Decoder

	assert.Equal(t, "ok", dec.Decode([]byte{'o', 'k', 0xf0, 0x9f}))
	assert.Equal(t, "\uFFFD", dec.Flush())
	assert.Equal(t, "", dec.Flush())
}

func TestProperty_DecoderRoundTripsValidText(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.String().Draw(rt, "text")
		data := []byte(text)

		var dec utf8Decoder
		var out strings.Builder
		for len(data) > 0 {
			n := rapid.IntRange(1, len(data)).Draw(rt, "chunk")
			out.WriteString(dec.Decode(data[:n]))
			data = data[n:]
		}
		out.WriteString(dec.Flush())

		if out.String() != text {
			rt.Fatalf("decoded %q, want %q", out.String(), text)
		}
	})
}

func TestProperty_DecoderAlwaysEmitsValidUTF8(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		chunks := rapid.SliceOf(rapid.SliceOfN(rapid.Byte(), 1, 16)).Draw(rt, "chunks")

		var dec utf8Decoder
		for _, chunk := range chunks {
			if s := dec.Decode(chunk); !utf8.ValidString(s) {
				rt.Fatalf("invalid output %q", s)
			}
		}
		if s := dec.Flush(); !utf8.ValidString(s) {
			rt.Fatalf("invalid flush %q", s)
		}
	})
}
