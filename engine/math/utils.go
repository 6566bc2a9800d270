package math

import "golang.org/x/exp/constraints"

const Pi32 float32 = 3.14159265359

func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// DegToRad converts degrees to radians.
func DegToRad(degrees float32) float32 {
	return degrees * (Pi32 / 180.0)
}
