package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShare(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		percent     int
		want        int64
	}{
		{name: "full", amountCents: 4900, percent: 100, want: 4900},
		{name: "half", amountCents: 4900, percent: 50, want: 2450},
		{name: "zero percent", amountCents: 4900, percent: 0, want: 0},
		{name: "rounds half up", amountCents: 101, percent: 50, want: 51},
		{name: "rounds down below half", amountCents: 1001, percent: 33, want: 330},
		{name: "zero amount", amountCents: 0, percent: 70, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Share(tt.amountCents, tt.percent))
		})
	}
}

func TestSplitByAllocations(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		percents    []int
		want        []int64
	}{
		{name: "even split", amountCents: 1000, percents: []int{50, 50}, want: []int64{500, 500}},
		{name: "uneven split", amountCents: 4900, percents: []int{70, 30}, want: []int64{3430, 1470}},
		{name: "remainder goes to last", amountCents: 100, percents: []int{33, 33, 34}, want: []int64{33, 33, 34}},
		{name: "partial allocation", amountCents: 1000, percents: []int{60}, want: []int64{600}},
		{name: "empty", amountCents: 1000, percents: nil, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitByAllocations(tt.amountCents, tt.percents)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitByAllocationsSumsToAllocatedPortion(t *testing.T) {
	amounts := []int64{1, 99, 101, 4900, 123457}
	splits := [][]int{{50, 50}, {33, 33, 34}, {70, 30}, {10, 20, 30, 40}, {60}}

	for _, amount := range amounts {
		for _, percents := range splits {
			total := 0
			for _, p := range percents {
				total += p
			}
			var sum int64
			for _, share := range SplitByAllocations(amount, percents) {
				sum += share
			}
			assert.Equal(t, Share(amount, total), sum, "amount=%d percents=%v", amount, percents)
		}
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1234.50", FormatCents(123450))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "0.09", FormatCents(9))
	assert.Equal(t, "-12.34", FormatCents(-1234))
}

func TestFormatEUR(t *testing.T) {
	assert.Equal(t, "49.00 EUR", FormatEUR(4900))
}
