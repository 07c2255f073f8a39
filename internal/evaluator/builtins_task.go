package evaluator

import (
	"math/big"
	"runtime"
	"time"
)

// taskModule provides background task execution plus mailboxes for passing
// values between the evaluator and workers.
func taskModule() map[string]*Builtin {
	return map[string]*Builtin{
		"spawn":     {Name: "task.spawn", Arity: 1, Variadic: true, Fn: taskSpawn},
		"join":      {Name: "task.join", Arity: 1, Fn: taskJoin},
		"join_all":  {Name: "task.join_all", Arity: 0, Variadic: true, Fn: taskJoinAll},
		"cancel":    {Name: "task.cancel", Arity: 1, Fn: taskCancel},
		"pending":   {Name: "task.pending", Arity: 0, Fn: taskPending},
		"yield_now": {Name: "task.yield_now", Arity: 0, Fn: taskYieldNow},
		"sleep_ms":  {Name: "task.sleep_ms", Arity: 1, Fn: taskSleepMs},

		"mailbox_create":       {Name: "task.mailbox_create", Arity: 0, Fn: mailboxCreate},
		"mailbox_send":         {Name: "task.mailbox_send", Arity: 2, Fn: mailboxSend},
		"mailbox_send_batch":   {Name: "task.mailbox_send_batch", Arity: 2, Fn: mailboxSendBatch},
		"mailbox_recv":         {Name: "task.mailbox_recv", Arity: 1, Fn: mailboxRecv},
		"mailbox_try_recv":     {Name: "task.mailbox_try_recv", Arity: 1, Fn: mailboxTryRecv},
		"mailbox_recv_timeout": {Name: "task.mailbox_recv_timeout", Arity: 2, Fn: mailboxRecvTimeout},
		"mailbox_recv_any":     {Name: "task.mailbox_recv_any", Arity: 1, Variadic: true, Fn: mailboxRecvAny},
		"mailbox_recv_batch":   {Name: "task.mailbox_recv_batch", Arity: 2, Fn: mailboxRecvBatch},
		"mailbox_drain":        {Name: "task.mailbox_drain", Arity: 1, Fn: mailboxDrain},
		"mailbox_forward":      {Name: "task.mailbox_forward", Arity: 2, Fn: mailboxForward},
		"mailbox_close":        {Name: "task.mailbox_close", Arity: 1, Fn: mailboxClose},
		"mailbox_flush":        {Name: "task.mailbox_flush", Arity: 1, Fn: mailboxFlush},
		"mailbox_len":          {Name: "task.mailbox_len", Arity: 1, Fn: mailboxLen},
		"mailbox_is_closed":    {Name: "task.mailbox_is_closed", Arity: 1, Fn: mailboxIsClosed},
		"mailbox_stats":        {Name: "task.mailbox_stats", Arity: 1, Fn: mailboxStats},
	}
}

// task is one background unit of work. The worker goroutine writes result
// exactly once before closing done.
type task struct {
	done   chan struct{}
	result Object
}

func (rt *Runtime) startTask(compute func() Object) uint64 {
	t := &task{done: make(chan struct{})}
	rt.mu.Lock()
	id := rt.nextTask
	rt.nextTask++
	rt.tasks[id] = t
	rt.mu.Unlock()
	go func() {
		t.result = compute()
		close(t.done)
	}()
	return id
}

// takeTask removes a task from the registry. Joining and cancelling both
// consume the handle, so double joins fail.
func (rt *Runtime) takeTask(id uint64) (*task, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	t, ok := rt.tasks[id]
	delete(rt.tasks, id)
	return t, ok
}

func taskSpawn(rt *Runtime, args []Object) Object {
	kind, err := argText("task.spawn", args, 0)
	if err != nil {
		return err
	}
	payload := Object(NewInteger(0))
	if len(args) > 1 {
		payload = args[1]
	}
	n, nerr := taskPayload(kind, payload)
	if nerr != nil {
		return nerr
	}
	var compute func() Object
	switch kind {
	case "sum":
		compute = func() Object { return &Integer{Value: sumUpTo(n)} }
	case "factorial":
		compute = func() Object { return &Integer{Value: factorial(n)} }
	case "prime_count":
		compute = func() Object { return NewInteger(countPrimes(n)) }
	case "fibonacci":
		compute = func() Object { return &Integer{Value: fibonacci(n)} }
	case "sleep_ms":
		millis := n
		compute = func() Object {
			time.Sleep(time.Duration(millis) * time.Millisecond)
			return NewInteger(millis)
		}
	default:
		return newRuntimeError("unknown task kind %q", kind)
	}
	return NewInteger(int64(rt.startTask(compute)))
}

func taskPayload(kind string, payload Object) (int64, *Error) {
	v, ok := payload.(*Integer)
	if !ok {
		return 0, newTypeError("%s task expects an integer payload", kind)
	}
	if !v.Value.IsInt64() || v.Value.Sign() < 0 {
		return 0, newTypeError("%s task expects a non-negative integer payload", kind)
	}
	return v.Value.Int64(), nil
}

func taskJoin(rt *Runtime, args []Object) Object {
	id, err := argInt64("task.join", args, 0)
	if err != nil {
		return err
	}
	if id < 0 {
		return newTypeError("task.join expects a non-negative task handle")
	}
	t, ok := rt.takeTask(uint64(id))
	if !ok {
		return newRuntimeError("task.join: unknown task handle")
	}
	<-t.done
	return t.result
}

// taskJoinAll claims every handle up front so an unknown handle fails
// before any blocking, then waits in argument order.
func taskJoinAll(rt *Runtime, args []Object) Object {
	claimed := make([]*task, 0, len(args))
	for i := range args {
		id, err := argInt64("task.join_all", args, i)
		if err != nil {
			return err
		}
		if id < 0 {
			return newTypeError("task.join_all expects non-negative task handles")
		}
		t, ok := rt.takeTask(uint64(id))
		if !ok {
			return newRuntimeError("task.join_all: unknown task handle")
		}
		claimed = append(claimed, t)
	}
	results := make([]Object, len(claimed))
	for i, t := range claimed {
		<-t.done
		results[i] = t.result
	}
	return &Tuple{Elements: results}
}

func taskCancel(rt *Runtime, args []Object) Object {
	id, err := argInt64("task.cancel", args, 0)
	if err != nil {
		return err
	}
	if id < 0 {
		return newTypeError("task.cancel expects a non-negative task handle")
	}
	_, ok := rt.takeTask(uint64(id))
	return nativeBoolToBooleanObject(ok)
}

func taskPending(rt *Runtime, _ []Object) Object {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return NewInteger(int64(len(rt.tasks)))
}

func taskYieldNow(_ *Runtime, _ []Object) Object {
	runtime.Gosched()
	return TRUE
}

func taskSleepMs(_ *Runtime, args []Object) Object {
	millis, err := argInt64("task.sleep_ms", args, 0)
	if err != nil {
		return err
	}
	if millis < 0 {
		return newTypeError("task.sleep_ms expects a non-negative integer")
	}
	time.Sleep(time.Duration(millis) * time.Millisecond)
	return TRUE
}

func sumUpTo(n int64) *big.Int {
	value := big.NewInt(n)
	next := new(big.Int).Add(value, big.NewInt(1))
	value.Mul(value, next)
	return value.Quo(value, big.NewInt(2))
}

func factorial(n int64) *big.Int {
	acc := big.NewInt(1)
	for i := int64(2); i <= n; i++ {
		acc.Mul(acc, big.NewInt(i))
	}
	return acc
}

func countPrimes(limit int64) int64 {
	if limit < 2 {
		return 0
	}
	sieve := make([]bool, limit+1)
	for p := int64(2); p*p <= limit; p++ {
		if !sieve[p] {
			for multiple := p * p; multiple <= limit; multiple += p {
				sieve[multiple] = true
			}
		}
	}
	var count int64
	for i := int64(2); i <= limit; i++ {
		if !sieve[i] {
			count++
		}
	}
	return count
}

func fibonacci(n int64) *big.Int {
	if n == 0 {
		return big.NewInt(0)
	}
	a, b := big.NewInt(0), big.NewInt(1)
	for i := int64(1); i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return b
}
