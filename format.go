package subcipher

// foldLetter reports whether r is an ASCII Latin letter and, if so, returns its
// lowercase byte and whether r was uppercase. Every other rune, including
// non-ASCII letters whose case folding lands in a..z, is a passthrough character.
func foldLetter(r rune) (lower byte, upper bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r), false, true
	case r >= 'A' && r <= 'Z':
		return byte(r - 'A' + 'a'), true, true
	default:
		return 0, false, false
	}
}

// restoreCase returns the lowercase letter c in the case recorded by foldLetter.
func restoreCase(c byte, upper bool) rune {
	if upper {
		return rune(c - 'a' + 'A')
	}
	return rune(c)
}

// IsPassthrough reports whether r is left unchanged by substitution.
func IsPassthrough(r rune) bool {
	_, _, ok := foldLetter(r)
	return !ok
}

