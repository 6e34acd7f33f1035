package utils

// Clamp limits value to [min, max].
func Clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// StepClamped adds step to value and clamps the result.
func StepClamped(value, step, min, max int) int {
	return Clamp(value+step, min, max)
}

// NextIndex returns the index after i in a list of n items, wrapping to 0.
func NextIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i + 1) % n
}
