package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		tag   string
		month time.Month
		want  string
	}{
		{tag: "", month: time.March, want: "March"},
		{tag: "en-US", month: time.January, want: "January"},
		{tag: "he-IL", month: time.January, want: "ינואר"},
		{tag: "he", month: time.December, want: "דצמבר"},
		{tag: "not a tag", month: time.May, want: "May"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.tag).MonthName(tt.month))
		})
	}
}

func TestMonthNameOutOfRange(t *testing.T) {
	assert.Equal(t, time.Month(13).String(), English().MonthName(13))
}
