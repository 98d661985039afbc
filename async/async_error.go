package async

// AsyncError is a value that will eventually hold an error, similar to a
// future. SetValue completes it; TryGetValue reads it once completed.
type AsyncError struct {
	errCh     chan error
	val       error
	completed bool
	notify    chan<- struct{}
}

func newAsyncError(notify chan<- struct{}) *AsyncError {
	return &AsyncError{
		errCh:  make(chan error, 1),
		notify: notify,
	}
}

// SetValue completes the AsyncError. It must be called exactly once; a second
// call panics.
func (e *AsyncError) SetValue(err error) {
	e.errCh <- err
	close(e.errCh)
	if e.notify != nil {
		select {
		case e.notify <- struct{}{}:
		default:
		}
	}
}

// TryGetValue returns true and the stored value if the AsyncError is
// completed, or false and nil if it is still pending.
func (e *AsyncError) TryGetValue() (bool, error) {
	if e.completed {
		return true, e.val
	}
	select {
	case err := <-e.errCh:
		e.val = err
		e.completed = true
		return true, err
	default:
		return false, nil
	}
}
