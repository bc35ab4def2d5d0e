package core

// NeutralColor is the fallback hint when a stored color string is unusable.
// Presentation falls back silently; a bad color is never an error.
const NeutralColor = "#FF888888"

// ColorOrNeutral returns s when it looks like a #RRGGBB or #AARRGGBB hex
// string, otherwise the neutral gray fallback.
func ColorOrNeutral(s string) string {
	if len(s) != 7 && len(s) != 9 {
		return NeutralColor
	}
	if s[0] != '#' {
		return NeutralColor
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return NeutralColor
		}
	}
	return s
}
