package audio

import "math"

// volumeToPower maps a 0.0-1.0 linear volume onto beep's exponential scale
// (Base 2). Unity gain is 0; true silence is handled by the Silent flag
// rather than a large negative exponent.
func volumeToPower(vol float64) float64 {
	if vol <= 0.01 {
		return -10
	}
	return math.Log2(vol)
}
