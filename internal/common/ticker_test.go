package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTicker(t *testing.T) {
	originalDefault := DefaultExchange
	DefaultExchange = "IDX"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		// Exchange-qualified format with colon separator
		{"IDX:BBCA", "IDX", "BBCA", "IDX:BBCA", "BBCA.JK"},
		{"ASX:GNP", "ASX", "GNP", "ASX:GNP", "GNP.AU"},

		// Provider suffix format
		{"BBRI.JK", "IDX", "BBRI", "IDX:BBRI", "BBRI.JK"},
		{"tlkm.jk", "IDX", "TLKM", "IDX:TLKM", "TLKM.JK"},

		// Bare code defaults to IDX
		{"ASII", "IDX", "ASII", "IDX:ASII", "ASII.JK"},
		{"bmri", "IDX", "BMRI", "IDX:BMRI", "BMRI.JK"},

		// Whitespace handling
		{"  IDX:GOTO  ", "IDX", "GOTO", "IDX:GOTO", "GOTO.JK"},

		// Unknown exchange falls back to the default suffix
		{"XYZ:ABCD", "XYZ", "ABCD", "XYZ:ABCD", "ABCD.JK"},

		// Empty input
		{"", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseTicker(tt.input)

			assert.Equal(t, tt.wantExchange, result.Exchange)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantString, result.String())
			assert.Equal(t, tt.wantEODHD, result.EODHDSymbol())
		})
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"BBCA", true},
		{"GOTO", true},
		{"IDX30", true},
		{"", false},
		{"bbca", false},
		{"BB-CA", false},
		{"TOOLONGX", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidCode(tt.code))
		})
	}
}
