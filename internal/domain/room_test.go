package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 500; i++ {
		code := GenerateRoomCode()
		require.Len(t, code, RoomCodeLength)
		require.True(t, ValidRoomCode(code), "generated %q", code)
		for j := 0; j < len(code); j++ {
			seen[code[j]] = true
		}
	}
	// 3000 uniform draws over 36 symbols leave nothing unseen in practice.
	assert.Len(t, seen, len(roomCodeAlphabet))
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeRoomCode("  ab12cd "))
	assert.Equal(t, "", NormalizeRoomCode("   "))
}

func TestValidRoomCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"000000", true},
		{"abc123", false},
		{"ABC12", false},
		{"ABC1234", false},
		{"ABC-12", false},
		{strings.Repeat("Z", RoomCodeLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRoomCode(tt.code))
		})
	}
}
