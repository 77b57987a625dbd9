package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmortize(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  []int64
	}{
		{"even split", 120, 3, []int64{40, 40, 40}},
		{"remainder on last", 100, 3, []int64{33, 33, 34}},
		{"single installment", 100, 1, []int64{100}},
		{"amount smaller than count", 5, 12, []int64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5}},
		{"large remainder", 111, 10, []int64{11, 11, 11, 11, 11, 11, 11, 11, 11, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := amortize(tt.total, tt.count)
			assert.Equal(t, tt.want, got)

			var sum int64
			for _, amount := range got {
				sum += amount
			}
			assert.Equal(t, tt.total, sum)
		})
	}
}
