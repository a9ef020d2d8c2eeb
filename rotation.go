package pdfmerger

import "fmt"

// Rotation is a clockwise page rotation in degrees, always one of 0, 90, 180 or 270.
type Rotation int

// Valid rotations.
const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// NormalizeRotation maps any multiple of 90 (negative included) onto 0..270.
func NormalizeRotation(degrees int) (Rotation, error) {
	if degrees%90 != 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidRotation, degrees)
	}
	return Rotation(((degrees % 360) + 360) % 360), nil
}

// Add returns r turned by a further delta degrees.
// delta must be a multiple of 90.
func (r Rotation) Add(delta int) (Rotation, error) {
	return NormalizeRotation(int(r) + delta)
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}
