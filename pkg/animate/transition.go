// Package animate defines the time-interpolatable layout model produced by the
// layout pipeline and consumed by renderers.
//
// Every animatable attribute is a [Transition]: the value it had before the
// latest layout pass, the value it has now, and the time window over which a
// renderer should move from one to the other. The layout pipeline never bakes
// interpolation into concrete values; renderers call [Transition.At] (or the
// [Transition.Progress] primitive) with their own time cursor.
//
// Times are integer milliseconds on a clock chosen by the caller.
package animate

// Transition is an animated value moving from Old to New between OldTime and
// OldTime+Duration.
type Transition[T any] struct {
	Old      T     `json:"old"`
	New      T     `json:"new"`
	OldTime  int64 `json:"old_time"`
	Duration int64 `json:"duration"`
}

// Plain returns a transition that is not animating: Old and New are both v and
// the time window is empty.
func Plain[T any](v T) Transition[T] {
	return Transition[T]{Old: v, New: v}
}

// Animate returns a transition from old to new starting at now.
func Animate[T any](old, new T, now, duration int64) Transition[T] {
	return Transition[T]{Old: old, New: new, OldTime: now, Duration: duration}
}

// Progress returns how far the transition has advanced at now, clamped to
// [0, 1]. Transitions with a non-positive duration are always complete.
func (t Transition[T]) Progress(now int64) float64 {
	if t.Duration <= 0 {
		return 1
	}
	p := float64(now-t.OldTime) / float64(t.Duration)
	return max(0, min(1, p))
}

// Settled reports whether the transition has finished at now.
func (t Transition[T]) Settled(now int64) bool {
	return t.Progress(now) >= 1
}

// At interpolates the transition at now using lerp.
func (t Transition[T]) At(now int64, lerp func(a, b T, p float64) T) T {
	p := t.Progress(now)
	switch p {
	case 0:
		return t.Old
	case 1:
		return t.New
	}
	return lerp(t.Old, t.New, p)
}

// Retarget moves an existing transition towards next. If next equals the
// current target the transition is returned unchanged while it is still in
// flight and collapsed to Plain once settled. Otherwise the new transition
// starts from the value prev has at now, so an interrupted animation continues
// smoothly instead of jumping back to its old value.
func Retarget[T any](prev Transition[T], next T, now, duration int64, lerp func(a, b T, p float64) T, equal func(a, b T) bool) Transition[T] {
	if equal(prev.New, next) {
		if prev.Settled(now) {
			return Plain(next)
		}
		return prev
	}
	return Animate(prev.At(now, lerp), next, now, duration)
}

// LerpFloat linearly interpolates between two floats.
func LerpFloat(a, b, p float64) float64 { return a + (b-a)*p }

// EqualFloat compares floats at the same precision as [Point.Key].
func EqualFloat(a, b float64) bool { return round(a) == round(b) }

// RetargetFloat is Retarget for float64 values.
func RetargetFloat(prev Transition[float64], next float64, now, duration int64) Transition[float64] {
	return Retarget(prev, next, now, duration, LerpFloat, EqualFloat)
}

// RetargetPoint is Retarget for points.
func RetargetPoint(prev Transition[Point], next Point, now, duration int64) Transition[Point] {
	return Retarget(prev, next, now, duration, LerpPoint, Point.Equal)
}
