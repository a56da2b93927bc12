// Maybe use package slices instead

package slice

func Map[T any, U any](input []T, pred func(T) U) []U {
	result := make([]U, len(input))
	for i, v := range input {
		result[i] = pred(v)
	}
	return result
}

// Last returns the final element, or the zero value and false for an empty slice.
func Last[T any](input []T) (T, bool) {
	if len(input) == 0 {
		var zero T
		return zero, false
	}
	return input[len(input)-1], true
}
