package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkMinutes(t *testing.T) {
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		out   time.Time
		lunch int
		want  int
	}{
		{"standard day with lunch", in.Add(9 * time.Hour), 30, 510},
		{"no lunch", in.Add(8 * time.Hour), 0, 480},
		{"lunch exceeds shift", in.Add(20 * time.Minute), 60, 0},
		{"zero length shift", in, 0, 0},
		{"seconds truncate down", in.Add(8*time.Hour + 59*time.Second), 0, 480},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, workMinutes(in, tc.out, tc.lunch))
		})
	}
}

func TestOvertimeMinutes(t *testing.T) {
	assert.Equal(t, 0, overtimeMinutes(480, 480))
	assert.Equal(t, 0, overtimeMinutes(300, 480))
	assert.Equal(t, 30, overtimeMinutes(510, 480))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "8.50", FormatHours(510))
	assert.Equal(t, "8.00", FormatHours(480))
	assert.Equal(t, "0.00", FormatHours(0))
	assert.Equal(t, "0.02", FormatHours(1))
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 8.5, roundHours(510))
	assert.Equal(t, 0.02, roundHours(1))
	assert.Equal(t, 0.0, roundHours(0))
}
