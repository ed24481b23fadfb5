package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{name: "three of five", completed: 3, total: 5, want: 60},
		{name: "none completed", completed: 0, total: 5, want: 0},
		{name: "all completed", completed: 5, total: 5, want: 100},
		{name: "empty course", completed: 0, total: 0, want: 0},
		{name: "rounds up", completed: 1, total: 3, want: 33},
		{name: "rounds half up", completed: 1, total: 8, want: 13},
		{name: "two of three", completed: 2, total: 3, want: 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tt.completed, tt.total))
		})
	}
}
