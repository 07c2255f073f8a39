package evaluator

import (
	"sync"
)

// Runtime owns every native-module table for one evaluator instance:
// the buffer arena, the smart-pointer table, tasks, mailboxes and signal
// counters. Nothing here is package-level state, so independent runtimes
// never share handles.
type Runtime struct {
	mu sync.Mutex

	nextBuffer uint64
	buffers    map[uint64][]byte

	nextSmart uint64
	smart     map[uint64]*smartCell

	nextTask uint64
	tasks    map[uint64]*task

	nextMailbox uint64
	mailboxes   map[uint64]*mailbox

	signals map[string]int64

	modules map[string]map[string]*Builtin
}

type smartCell struct {
	value Object
	refs  int
}

func NewRuntime() *Runtime {
	return &Runtime{
		buffers:   make(map[uint64][]byte),
		smart:     make(map[uint64]*smartCell),
		tasks:     make(map[uint64]*task),
		mailboxes: make(map[uint64]*mailbox),
		signals:   make(map[string]int64),
		modules:   defaultModules(),
	}
}

// Reset drops every table. Running tasks are detached, open mailboxes
// are closed so blocked receivers wake up with ChannelClosed.
func (rt *Runtime) Reset() {
	rt.mu.Lock()
	boxes := make([]*mailbox, 0, len(rt.mailboxes))
	for _, mb := range rt.mailboxes {
		boxes = append(boxes, mb)
	}
	rt.buffers = make(map[uint64][]byte)
	rt.smart = make(map[uint64]*smartCell)
	rt.tasks = make(map[uint64]*task)
	rt.mailboxes = make(map[uint64]*mailbox)
	rt.signals = make(map[string]int64)
	rt.mu.Unlock()

	for _, mb := range boxes {
		mb.closeBox()
	}
}

// buffer returns the live byte slice for a handle. Callers hold rt.mu.
func (rt *Runtime) buffer(handle uint64) ([]byte, bool) {
	buf, ok := rt.buffers[handle]
	return buf, ok
}

func (rt *Runtime) allocBuffer(size int) uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	handle := rt.nextBuffer
	rt.nextBuffer++
	rt.buffers[handle] = make([]byte, size)
	return handle
}

func (rt *Runtime) freeBuffer(handle uint64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.buffers[handle]
	delete(rt.buffers, handle)
	return ok
}

// Smart pointer handles are never reused within a runtime lifetime, so a
// stale handle can only ever fail, never alias a newer value.

func (rt *Runtime) smartNew(value Object) uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	handle := rt.nextSmart
	rt.nextSmart++
	rt.smart[handle] = &smartCell{value: value, refs: 1}
	return handle
}

func (rt *Runtime) smartGet(handle uint64) (Object, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cell, ok := rt.smart[handle]
	if !ok {
		return nil, false
	}
	return cell.value, true
}

func (rt *Runtime) smartSet(handle uint64, value Object) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cell, ok := rt.smart[handle]
	if !ok {
		return false
	}
	cell.value = value
	return true
}

func (rt *Runtime) smartClone(handle uint64) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cell, ok := rt.smart[handle]
	if !ok {
		return false
	}
	cell.refs++
	return true
}

// smartFree decrements the reference count and evicts at zero. The second
// result reports whether the slot survived the drop.
func (rt *Runtime) smartFree(handle uint64) (ok, alive bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cell, found := rt.smart[handle]
	if !found {
		return false, false
	}
	cell.refs--
	if cell.refs <= 0 {
		delete(rt.smart, handle)
		return true, false
	}
	return true, true
}

// signalRegister adds a counter at zero and reports whether the name was new.
func (rt *Runtime) signalRegister(name string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, exists := rt.signals[name]
	rt.signals[name] = 0
	return !exists
}

func (rt *Runtime) signalEmit(name string) int64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.signals[name]++
	return rt.signals[name]
}

func (rt *Runtime) signalCount(name string) int64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.signals[name]
}

func (rt *Runtime) signalTracked() int64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return int64(len(rt.signals))
}

// signalReset zeroes a known counter; unknown names report false and stay
// untracked.
func (rt *Runtime) signalReset(name string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.signals[name]; !exists {
		return false
	}
	rt.signals[name] = 0
	return true
}
