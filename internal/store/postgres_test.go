package store

import (
	"testing"

	"insurance-agents/internal/embeddings"
)

func TestVectorToString(t *testing.T) {
	tests := []struct {
		name string
		in   embeddings.Vector
		want string
	}{
		{"empty", nil, "[]"},
		{"single", embeddings.Vector{0.5}, "[0.5]"},
		{"multiple", embeddings.Vector{0.1, -0.2, 1}, "[0.1,-0.2,1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vectorToString(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{-0.3, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := clampScore(tt.in); got != tt.want {
			t.Errorf("clampScore(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
