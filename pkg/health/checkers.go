package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck fails when the process exceeds threshold goroutines,
// a cheap proxy for leaks in the resolver's fire-and-forget paths.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return fmt.Errorf("too many goroutines: %d > %d", count, threshold)
		}
		return nil
	}
}
