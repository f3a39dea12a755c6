// Package indicators computes technical indicators over price slices.
//
// Every function returns a Series aligned with its input: Values[i] belongs
// to input bar i and is only meaningful from Start onwards. Nothing looks
// ahead of the bar it is reported for.
package indicators

// Series is an indicator output aligned with the input bars.
type Series struct {
	Values []float64
	Start  int // first index with a defined value
}

// notReady returns a Series of length n with no defined values.
func notReady(n int) Series {
	return Series{Values: make([]float64, n), Start: n}
}

// At returns the value at index i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if i < s.Start || i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Last returns the value for the final bar.
func (s Series) Last() (float64, bool) {
	return s.At(len(s.Values) - 1)
}

// Defined reports how many values are defined.
func (s Series) Defined() int {
	if s.Start >= len(s.Values) {
		return 0
	}
	return len(s.Values) - s.Start
}
