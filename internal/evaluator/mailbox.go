package evaluator

import (
	"sync"
	"time"
)

// mailbox is an unbounded FIFO queue with an explicit closed flag. Closing
// is terminal: sends fail afterwards, queued messages stay drainable until
// the queue empties, then receives fail too.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Object
	closed bool
}

func newMailbox() *mailbox {
	mb := &mailbox{}
	mb.cond = sync.NewCond(&mb.mu)
	return mb
}

func (mb *mailbox) send(values ...Object) *Error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return newError(ERR_CHANNEL_CLOSED, "mailbox is closed")
	}
	mb.queue = append(mb.queue, values...)
	mb.cond.Broadcast()
	return nil
}

func (mb *mailbox) recv() (Object, *Error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for len(mb.queue) == 0 && !mb.closed {
		mb.cond.Wait()
	}
	return mb.popLocked()
}

func (mb *mailbox) tryRecv() (Object, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.queue) == 0 {
		return nil, false
	}
	value := mb.queue[0]
	mb.queue = mb.queue[1:]
	return value, true
}

func (mb *mailbox) recvTimeout(d time.Duration) (Object, *Error) {
	deadline := time.Now().Add(d)
	timer := time.AfterFunc(d, func() {
		mb.mu.Lock()
		mb.cond.Broadcast()
		mb.mu.Unlock()
	})
	defer timer.Stop()

	mb.mu.Lock()
	defer mb.mu.Unlock()
	for len(mb.queue) == 0 && !mb.closed {
		if !time.Now().Before(deadline) {
			return nil, newError(ERR_TIMEOUT, "mailbox receive timed out")
		}
		mb.cond.Wait()
	}
	return mb.popLocked()
}

// recvBatch blocks for the first message, then takes up to limit-1 more
// without blocking.
func (mb *mailbox) recvBatch(limit int) ([]Object, *Error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for len(mb.queue) == 0 && !mb.closed {
		mb.cond.Wait()
	}
	if len(mb.queue) == 0 {
		return nil, newError(ERR_CHANNEL_CLOSED, "mailbox is closed and empty")
	}
	n := limit
	if n > len(mb.queue) {
		n = len(mb.queue)
	}
	batch := make([]Object, n)
	copy(batch, mb.queue[:n])
	mb.queue = mb.queue[n:]
	return batch, nil
}

func (mb *mailbox) drain() []Object {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	drained := mb.queue
	mb.queue = nil
	return drained
}

func (mb *mailbox) popLocked() (Object, *Error) {
	if len(mb.queue) == 0 {
		return nil, newError(ERR_CHANNEL_CLOSED, "mailbox is closed and empty")
	}
	value := mb.queue[0]
	mb.queue = mb.queue[1:]
	return value, nil
}

func (mb *mailbox) closeBox() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return false
	}
	mb.closed = true
	mb.cond.Broadcast()
	return true
}

func (mb *mailbox) stats() (int, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue), mb.closed
}

func (rt *Runtime) newMailboxHandle() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	id := rt.nextMailbox
	rt.nextMailbox++
	rt.mailboxes[id] = newMailbox()
	return id
}

func (rt *Runtime) mailbox(handle uint64) (*mailbox, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	mb, ok := rt.mailboxes[handle]
	return mb, ok
}

func requireMailbox(rt *Runtime, name string, args []Object, idx int) (*mailbox, *Error) {
	handle, err := argHandle(name, args, idx)
	if err != nil {
		return nil, err
	}
	mb, ok := rt.mailbox(handle)
	if !ok {
		return nil, newRuntimeError("%s: unknown mailbox handle", name)
	}
	return mb, nil
}

func mailboxCreate(rt *Runtime, _ []Object) Object {
	return handleObject(rt.newMailboxHandle())
}

func mailboxSend(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_send", args, 0)
	if err != nil {
		return err
	}
	if serr := mb.send(args[1]); serr != nil {
		return serr
	}
	return TRUE
}

// mailboxSendBatch pushes a whole tuple of values under one lock hold, so
// no receiver observes a partial batch.
func mailboxSendBatch(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_send_batch", args, 0)
	if err != nil {
		return err
	}
	payloads, err := argTuple("task.mailbox_send_batch", args, 1)
	if err != nil {
		return err
	}
	if serr := mb.send(payloads...); serr != nil {
		return serr
	}
	return NewInteger(int64(len(payloads)))
}

func mailboxRecv(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_recv", args, 0)
	if err != nil {
		return err
	}
	value, rerr := mb.recv()
	if rerr != nil {
		return rerr
	}
	return value
}

func mailboxTryRecv(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_try_recv", args, 0)
	if err != nil {
		return err
	}
	if value, ok := mb.tryRecv(); ok {
		return &Tuple{Elements: []Object{TRUE, value}}
	}
	return &Tuple{Elements: []Object{FALSE, FALSE}}
}

func mailboxRecvTimeout(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_recv_timeout", args, 0)
	if err != nil {
		return err
	}
	millis, err := argInt64("task.mailbox_recv_timeout", args, 1)
	if err != nil {
		return err
	}
	if millis < 0 {
		return newTypeError("task.mailbox_recv_timeout expects a non-negative timeout")
	}
	value, rerr := mb.recvTimeout(time.Duration(millis) * time.Millisecond)
	if rerr != nil {
		return rerr
	}
	return value
}

// mailboxRecvAny polls every listed mailbox until one yields a message,
// returning it tagged with the source handle. Fails once every listed
// mailbox is closed and empty.
func mailboxRecvAny(rt *Runtime, args []Object) Object {
	type entry struct {
		handle uint64
		mb     *mailbox
	}
	entries := make([]entry, len(args))
	for i := range args {
		handle, err := argHandle("task.mailbox_recv_any", args, i)
		if err != nil {
			return err
		}
		mb, ok := rt.mailbox(handle)
		if !ok {
			return newRuntimeError("task.mailbox_recv_any: unknown mailbox handle")
		}
		entries[i] = entry{handle: handle, mb: mb}
	}
	for {
		live := false
		for _, e := range entries {
			if value, ok := e.mb.tryRecv(); ok {
				return &Tuple{Elements: []Object{handleObject(e.handle), value}}
			}
			if pending, closed := e.mb.stats(); !closed || pending > 0 {
				live = true
			}
		}
		if !live {
			return newError(ERR_CHANNEL_CLOSED, "all mailboxes are closed")
		}
		time.Sleep(time.Millisecond)
	}
}

func mailboxRecvBatch(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_recv_batch", args, 0)
	if err != nil {
		return err
	}
	limit, err := argUsize("task.mailbox_recv_batch", args, 1)
	if err != nil {
		return err
	}
	if limit == 0 {
		return newTypeError("task.mailbox_recv_batch expects a positive batch length")
	}
	batch, rerr := mb.recvBatch(limit)
	if rerr != nil {
		return rerr
	}
	return &Tuple{Elements: batch}
}

func mailboxDrain(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_drain", args, 0)
	if err != nil {
		return err
	}
	return &Tuple{Elements: mb.drain()}
}

// mailboxForward moves every queued message from source to target in one
// atomic step. Both locks are taken in handle order to avoid deadlock with
// a concurrent forward in the other direction.
func mailboxForward(rt *Runtime, args []Object) Object {
	srcHandle, err := argHandle("task.mailbox_forward", args, 0)
	if err != nil {
		return err
	}
	dstHandle, err := argHandle("task.mailbox_forward", args, 1)
	if err != nil {
		return err
	}
	if srcHandle == dstHandle {
		return NewInteger(0)
	}
	src, ok := rt.mailbox(srcHandle)
	if !ok {
		return newRuntimeError("task.mailbox_forward: unknown source mailbox handle")
	}
	dst, ok := rt.mailbox(dstHandle)
	if !ok {
		return newRuntimeError("task.mailbox_forward: unknown target mailbox handle")
	}

	first, second := src, dst
	if dstHandle < srcHandle {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if dst.closed {
		return newError(ERR_CHANNEL_CLOSED, "target mailbox is closed")
	}
	moved := len(src.queue)
	dst.queue = append(dst.queue, src.queue...)
	src.queue = nil
	dst.cond.Broadcast()
	return NewInteger(int64(moved))
}

func mailboxClose(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_close", args, 0)
	if err != nil {
		return err
	}
	return nativeBoolToBooleanObject(mb.closeBox())
}

// mailboxFlush drains all queued messages and closes the box in one call,
// returning (drained, closed).
func mailboxFlush(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_flush", args, 0)
	if err != nil {
		return err
	}
	drained := mb.drain()
	closed := mb.closeBox()
	return &Tuple{Elements: []Object{
		&Tuple{Elements: drained},
		nativeBoolToBooleanObject(closed),
	}}
}

func mailboxLen(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_len", args, 0)
	if err != nil {
		return err
	}
	pending, _ := mb.stats()
	return NewInteger(int64(pending))
}

func mailboxIsClosed(rt *Runtime, args []Object) Object {
	mb, err := requireMailbox(rt, "task.mailbox_is_closed", args, 0)
	if err != nil {
		return err
	}
	_, closed := mb.stats()
	return nativeBoolToBooleanObject(closed)
}

func mailboxStats(rt *Runtime, args []Object) Object {
	handle, err := argHandle("task.mailbox_stats", args, 0)
	if err != nil {
		return err
	}
	mb, ok := rt.mailbox(handle)
	if !ok {
		// unknown handles report as closed and empty rather than failing
		return &Tuple{Elements: []Object{NewInteger(0), TRUE}}
	}
	pending, closed := mb.stats()
	return &Tuple{Elements: []Object{NewInteger(int64(pending)), nativeBoolToBooleanObject(closed)}}
}
