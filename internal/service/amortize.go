package service

// amortize splits total into count equal amounts using integer division;
// the final installment absorbs the remainder so the sum is exact.
// Callers guarantee total > 0 and 1 <= count <= 12.
func amortize(total int64, count int) []int64 {
	per := total / int64(count)
	amounts := make([]int64, count)
	for i := range amounts {
		amounts[i] = per
	}
	amounts[count-1] += total % int64(count)
	return amounts
}
