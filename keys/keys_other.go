//go:build !windows

package keys

// layoutQuery has no portable equivalent off Windows; callers fall back to
// the fixed letter/digit code points.
func layoutQuery(r rune) (Code, bool) {
	return 0, false
}
