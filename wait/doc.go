// Package wait provides a bounded polling helper for asserting on state that
// settles asynchronously, such as a page that re-renders after a form submit.
//
// A check function performs one observation and reports one of three outcomes:
//
//   - nil: the condition holds; [Waiter.Until] returns immediately
//   - a [Pending] error: the condition is not true yet; the check is retried
//     after the configured interval until the timeout elapses
//   - any other error: the failure is fatal and returned immediately
//
// Only errors explicitly marked with [Pending] (or [Pendingf]) are retried.
// When the timeout elapses the most recent pending error is returned as-is,
// so callers see the original description of what was expected.
//
// Example:
//
//	w, _ := wait.New(wait.WithTimeout(5*time.Second), wait.WithInterval(500*time.Millisecond))
//	err := w.Until(ctx, func(ctx context.Context) error {
//	    rows, err := fetchRows(ctx)
//	    if err != nil {
//	        return err // fatal
//	    }
//	    if !slices.Contains(rows, "1: Buy peacock feathers") {
//	        return wait.Pendingf("row not present yet, got %q", rows)
//	    }
//	    return nil
//	})
package wait
