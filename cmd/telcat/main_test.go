package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"bare host args default to run", []string{"example.com", "9000"}, []string{"run", "example.com", "9000"}},
		{"explicit run untouched", []string{"run", "example.com"}, []string{"run", "example.com"}},
		{"rebuild untouched", []string{"rebuild", "example.com"}, []string{"rebuild", "example.com"}},
		{"build with flag untouched", []string{"build", "--force"}, []string{"build", "--force"}},
		{"help flag addresses the launcher", []string{"--help"}, []string{"--help"}},
		{"version flag addresses the launcher", []string{"--version"}, []string{"--version"}},
		{"help command untouched", []string{"help", "run"}, []string{"help", "run"}},
		{"completion untouched", []string{"completion", "bash"}, []string{"completion", "bash"}},
		{"no args show usage", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.in))
		})
	}
}
