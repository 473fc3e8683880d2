package util

func MakeMatrix2D[T any](a int, b int) [][]T {
	matrix := make([][]T, a)
	for i := range matrix {
		matrix[i] = make([]T, b)
	}
	return matrix
}

// CloneMatrix2D deep copies a jagged 2D slice.
func CloneMatrix2D[T any](m [][]T) [][]T {
	c := make([][]T, len(m))
	for i := range m {
		c[i] = append([]T(nil), m[i]...)
	}
	return c
}
