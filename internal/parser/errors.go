package parser

import "fmt"

// StreamError reports a failure of the underlying source, including a
// cancelled context.
type StreamError struct {
	Path string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
