package negotio

import (
	"sync"
)

// lockerMutex pairs a mutex with a closure-scoped lock helper, used by
// the session table's shards, whose critical sections have a single exit
// path where a defer at every call site would be boilerplate.
type lockerMutex struct {
	sync.Mutex
}

func (locker *lockerMutex) LockDo(fn func()) {
	locker.Lock()
	defer locker.Unlock()

	fn()
}
