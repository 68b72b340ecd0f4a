package render

// Half block characters let one terminal cell show two display rows.
const (
	FullBlock  = '█'
	UpperHalf  = '▀'
	LowerHalf  = '▄'
	EmptyBlock = ' '
)

// GetHalfBlockChar returns the character for a cell whose top and bottom
// halves show the given pixels.
func GetHalfBlockChar(top, bottom bool) rune {
	switch {
	case top && bottom:
		return FullBlock
	case top:
		return UpperHalf
	case bottom:
		return LowerHalf
	default:
		return EmptyBlock
	}
}

// Truncate shortens s to width runes, marking the cut with an ellipsis when
// there is room for one.
func Truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(runes) <= width {
		return s
	}
	if width > 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}
