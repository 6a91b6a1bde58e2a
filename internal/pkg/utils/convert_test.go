package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 3, 3, true},
		{"json number", json.Number("40"), 40, true},
		{"numeric string", " 25 ", 25, true},
		{"bad string", "abc", 0, false},
		{"inf string", "Inf", 0, false},
		{"nan string", "NaN", 0, false},
		{"inf float", math.Inf(-1), 0, false},
		{"nan json number", json.Number("NaN"), 0, false},
		{"nil", nil, 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, IsTruthy(true))
	assert.True(t, IsTruthy(1.0))
	assert.True(t, IsTruthy("yes"))
	assert.False(t, IsTruthy(nil))
	assert.False(t, IsTruthy(false))
	assert.False(t, IsTruthy(0.0))
	assert.False(t, IsTruthy(""))
	assert.False(t, IsTruthy("false"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "300", FormatNumber(300))
	assert.Equal(t, "0.25", FormatNumber(0.25))
}
