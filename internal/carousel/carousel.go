// Package carousel implements the index arithmetic for the detail page's
// image carousel. The detail template links "previous" and "next" back to
// itself with a new index, so the wrap-around rules live here rather than
// in client script.
package carousel

// Clamp normalises an index into [0, n-1]. Out-of-range or negative values
// (a hand-edited query string, a listing whose images changed since the
// link was rendered) fall back to the first image. For n <= 0 there is no
// valid index and Clamp returns 0; callers render a placeholder instead of
// controls in that case.
func Clamp(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// Next returns the index after i, wrapping from the last image to the first.
func Next(i, n int) int {
	if n <= 0 {
		return 0
	}
	i = Clamp(i, n)
	if i == n-1 {
		return 0
	}
	return i + 1
}

// Prev returns the index before i, wrapping from the first image to the last.
func Prev(i, n int) int {
	if n <= 0 {
		return 0
	}
	i = Clamp(i, n)
	if i == 0 {
		return n - 1
	}
	return i - 1
}
