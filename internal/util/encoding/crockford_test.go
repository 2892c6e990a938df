package encoding_test

import (
	"strings"
	"testing"

	"github.com/reelspro/reelspro/internal/util/encoding"
)

func TestEncodeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "empty input", input: []byte{}, want: ""},
		{name: "single byte", input: []byte{0xF5}, want: "ym"},
		{name: "two bytes", input: []byte{0xF5, 0x3A}, want: "ymx0"},
		{name: "three bytes", input: []byte{0xF5, 0x3A, 0x58}, want: "ymx5g"},
		{name: "five zero bytes", input: make([]byte, 5), want: "00000000"},
		{name: "five max bytes", input: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, want: "zzzzzzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := encoding.EncodeCrockfordB32LC(tt.input); got != tt.want {
				t.Errorf("EncodeCrockfordB32LC() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "YMX5G", want: "ymx5g"},
		{input: "ymx 5g", want: "ymx5g"},
		{input: "01ab-cdef", want: "01abcdef"},
		{input: "OIL", want: "011"},
		{input: "oil", want: "011"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := encoding.NormalizeCrockfordB32LC(tt.input); got != tt.want {
				t.Errorf("NormalizeCrockfordB32LC(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsCrockfordB32LC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "encoded output", input: encoding.EncodeCrockfordB32LC([]byte("trace")), want: true},
		{name: "empty", input: "", want: false},
		{name: "uppercase", input: "YMX5G", want: false},
		{name: "excluded letter", input: "ymu5g", want: false},
		{name: "header injection", input: "abc\r\nset-cookie", want: false},
		{name: "too long", input: strings.Repeat("a", encoding.MaxTraceIDLength+1), want: false},
		{name: "max length", input: strings.Repeat("a", encoding.MaxTraceIDLength), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := encoding.IsCrockfordB32LC(tt.input); got != tt.want {
				t.Errorf("IsCrockfordB32LC(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
