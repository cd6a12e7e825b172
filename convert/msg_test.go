package convert

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

func TestDecodeUTF16LE(t *testing.T) {
	tests := []struct{ in string }{
		{"Quarterly report"},
		{"résumé"},
		{"日本語"},
		{""},
	}
	for _, tt := range tests {
		if got := decodeUTF16LE(encodeUTF16LE(tt.in)); got != tt.in {
			t.Errorf("decodeUTF16LE round trip = %q, want %q", got, tt.in)
		}
	}

	// Trailing NUL padding from fixed-size property streams is stripped.
	padded := append(encodeUTF16LE("subject"), 0, 0, 0, 0)
	if got := decodeUTF16LE(padded); got != "subject" {
		t.Errorf("decodeUTF16LE with padding = %q, want subject", got)
	}

	// Odd-length input must not panic.
	if got := decodeUTF16LE([]byte{0x41}); got != "" {
		t.Errorf("decodeUTF16LE(odd) = %q, want empty", got)
	}
}
