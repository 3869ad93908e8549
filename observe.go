package tea

// FilterListener forwards only the states for which keep returns true.
func FilterListener[S any](keep func(S) bool, listener func(S)) func(S) {
	return func(s S) {
		if keep(s) {
			listener(s)
		}
	}
}

// MapListener projects each state before forwarding it, typically to hand a
// view only the slice of state it renders.
func MapListener[S, T any](project func(S) T, listener func(T)) func(S) {
	return func(s S) {
		listener(project(s))
	}
}

// DistinctListener drops values equal to the previously forwarded one. The
// first value is always forwarded.
//
// The returned listener keeps the last value and is meant for a single
// subscription; notifications for one subscription are delivered
// sequentially, so no locking is needed.
func DistinctListener[T any](equal func(a, b T) bool, listener func(T)) func(T) {
	var (
		last T
		seen bool
	)
	return func(v T) {
		if seen && equal(last, v) {
			return
		}
		last, seen = v, true
		listener(v)
	}
}

// Distinct is DistinctListener for comparable values.
func Distinct[T comparable](listener func(T)) func(T) {
	return DistinctListener(func(a, b T) bool { return a == b }, listener)
}
