package domain

// Result holds either a constructed value or a non-empty list of issues.
type Result[T any] struct {
	value  T
	issues Issues
}

// Ok wraps a valid value
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail builds a failed result. At least one issue is required.
func Fail[T any](first Issue, rest ...Issue) Result[T] {
	issues := make(Issues, 0, 1+len(rest))
	issues = append(issues, first)
	issues = append(issues, rest...)
	return Result[T]{issues: issues}
}

// failWith builds a failed result from an already collected list.
func failWith[T any](issues Issues) Result[T] {
	return Result[T]{issues: issues}
}

// IsOk reports whether the result carries a value
func (r Result[T]) IsOk() bool {
	return len(r.issues) == 0
}

// Value returns the wrapped value. It is the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Issues returns the failures, nil on success
func (r Result[T]) Issues() Issues {
	return r.issues
}

// Get returns the value and the issues in one call.
func (r Result[T]) Get() (T, Issues) {
	return r.value, r.issues
}

// Bind runs fn on the value of a successful result. A failed result is
// propagated unchanged, so fn only sees values that passed the first step.
func Bind[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.IsOk() {
		return failWith[U](r.issues)
	}
	return fn(r.value)
}

// Collector accumulates issues from several independent results.
type Collector struct {
	issues Issues
}

// Take returns the value of r and records its issues, if any.
func Take[T any](c *Collector, r Result[T]) T {
	c.issues = append(c.issues, r.issues...)
	return r.value
}

// Issues returns everything collected so far
func (c *Collector) Issues() Issues {
	return c.issues
}

// Failed reports whether any collected result failed
func (c *Collector) Failed() bool {
	return len(c.issues) > 0
}
