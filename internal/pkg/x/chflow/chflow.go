// Package chflow provides context-aware helpers for receiving from and
// sending to Go channels.
package chflow

import "context"

// Receive waits to receive a value from ch or for ctx to be canceled.
// It returns the value (zero value if canceled or closed) and whether the
// receive was successful.
func Receive[T any](ctx context.Context, ch <-chan T) (T, bool) {
	var data T
	select {
	case <-ctx.Done():
		return data, false
	case data, ok := <-ch:
		return data, ok
	}
}

// Send sends data to ch unless ctx is canceled first.
// It returns true if the value was sent.
func Send[T any](ctx context.Context, ch chan<- T, data T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- data:
		return true
	}
}

// TrySend sends data to ch only if it can be done without blocking.
// It returns false when the channel buffer is full.
func TrySend[T any](ch chan<- T, data T) bool {
	select {
	case ch <- data:
		return true
	default:
		return false
	}
}

// Forward copies values from in to out until in is closed, ctx is canceled
// or a send fails. It reports whether it stopped because in was closed.
//
// out is never closed by Forward.
func Forward[T any](ctx context.Context, in <-chan T, out chan<- T) bool {
	for {
		data, ok := Receive(ctx, in)
		if !ok {
			return ctx.Err() == nil
		}

		if !Send(ctx, out, data) {
			return false
		}
	}
}
