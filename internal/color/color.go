// Package color provides basic color definitions for a chess game
package color

// Color represent a chess color
type Color string

// Possible color variations in a chess game
const (
	White Color = "w"
	Black Color = "b"
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}

// Name returns the display name of a color, e.g. "White".
func (c Color) Name() string {
	if c == White {
		return "White"
	}

	return "Black"
}
