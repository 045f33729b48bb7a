package helpers

// IfElse returns valueIfTrue or valueIfFalse depending on isTrue.
func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

// CopyOf returns a shallow copy of a slice. A nil slice stays nil.
func CopyOf[V any](s []V) []V {
	if s == nil {
		return nil
	}
	return append(make([]V, 0, len(s)), s...)
}

// FirstNonEmpty returns the first element of values that is not the zero value, or
// defaultValue if there is none.
func FirstNonEmpty[V comparable](defaultValue V, values ...V) V {
	var zero V
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return defaultValue
}
