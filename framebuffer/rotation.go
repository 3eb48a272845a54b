package framebuffer

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// SwapsAxes reports if the logical width and height are exchanged.
func (r Rotation) SwapsAxes() bool {
	r %= 4
	return r == Rotate90 || r == Rotate270
}

// ParseRotation parses a rotation as accepted on command lines and in configuration files.
func ParseRotation(s string) (Rotation, bool) {
	switch s {
	case "", "no", "0", "0°":
		return NoRotation, true
	case "90", "90°", "right", "cw":
		return Rotate90, true
	case "180", "180°", "flip":
		return Rotate180, true
	case "270", "270°", "left", "ccw":
		return Rotate270, true
	default:
		return NoRotation, false
	}
}
