package async

// Mailbox tracks AsyncErrors together with the callbacks to run once they
// complete. Work runs in its own goroutine and completes an AsyncError; the
// owner of the Mailbox later calls ProcessMessages, which invokes every ready
// callback on the owner's goroutine, one at a time.
//
// A Mailbox is not safe for concurrent use. Only AsyncError.SetValue may be
// called from other goroutines.
type Mailbox struct {
	msgs  []message
	ready chan struct{}
}

// AsyncErrorResponseHandler is invoked with the value an AsyncError completed with.
type AsyncErrorResponseHandler func(error)

type message struct {
	Err      *AsyncError
	callback AsyncErrorResponseHandler
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		msgs:  make([]message, 0),
		ready: make(chan struct{}, 1),
	}
}

// Count is the number of AsyncErrors whose callbacks have not run yet.
func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// Ready receives a value after at least one AsyncError completed since the
// last receive. Owners select on it to avoid polling ProcessMessages.
func (bx *Mailbox) Ready() <-chan struct{} {
	return bx.ready
}

// NewAsyncError returns an AsyncError whose completion schedules cb for the
// next ProcessMessages call.
func (bx *Mailbox) NewAsyncError(cb AsyncErrorResponseHandler) *AsyncError {
	msg := message{Err: newAsyncError(bx.ready), callback: cb}
	bx.msgs = append(bx.msgs, msg)
	return msg.Err
}

// ProcessMessages invokes the callbacks of completed AsyncErrors in the order
// they were created and drops them from the mailbox.
func (bx *Mailbox) ProcessMessages() {
	var pending []message
	for _, msg := range bx.msgs {
		if ok, err := msg.Err.TryGetValue(); ok {
			msg.callback(err)
		} else {
			pending = append(pending, msg)
		}
	}
	bx.msgs = pending
}
