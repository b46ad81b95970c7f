package dto

import "cmp"

// Metric pairs an observed value with the limit it is checked against.
type Metric[T cmp.Ordered] struct {
	Name      string `json:"name"`
	Value     T      `json:"value"`
	Threshold T      `json:"threshold"`
}

// Breached reports whether the value meets or exceeds the threshold.
func (m Metric[T]) Breached() bool {
	return m.Value >= m.Threshold
}
