// ABOUTME: Tests for display-name extraction
// ABOUTME: Covers keyword matching, punctuation trimming and acceptance rules

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Oi, eu sou Alice!", "Alice"},
		{"me chamo Bruno.", "Bruno"},
		{"Nome: Carla", ""},
		{"nome Carla, prazer", "Carla"},
		{"SOU João", "João"},
		{"eu sou", ""},
		{"bom dia", ""},
		{"sou eu, sou Ana", "eu"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractName(tt.msg))
		})
	}
}

func TestAcceptName(t *testing.T) {
	assert.True(t, acceptName("Alice", "Usuário"))
	assert.False(t, acceptName("", "Usuário"))
	assert.False(t, acceptName("Alice", "Alice"))
	assert.False(t, acceptName("Al", "Usuário"))
	assert.True(t, acceptName("Zoë", "Usuário"))
	assert.False(t, acceptName(AnonymousName, "Alice"))
}
