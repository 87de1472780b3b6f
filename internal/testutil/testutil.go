package testutil

import (
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	alwaysEqual       = cmp.Comparer(func(_, _ interface{}) bool { return true })
	defaultCmpOptions = []cmp.Option{
		// NaNs compare equal
		cmp.FilterValues(func(x, y float64) bool {
			return math.IsNaN(x) && math.IsNaN(y)
		}, alwaysEqual),
		// Millisecond conversions are compared with a tolerance.
		cmpopts.EquateApprox(0, 1e-9),
	}
)

// Diff returns a human readable diff between a and b, or an empty string if
// they are equal.
func Diff(a, b interface{}, opts ...cmp.Option) string {
	opts = append(opts, defaultCmpOptions...)
	return cmp.Diff(a, b, opts...)
}

// DiffIgnoreEmpty is like Diff but treats nil and empty slices and maps as equal.
func DiffIgnoreEmpty(a, b interface{}, opts ...cmp.Option) string {
	return Diff(a, b, append(opts, cmpopts.EquateEmpty())...)
}
