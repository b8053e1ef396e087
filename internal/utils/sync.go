package utils

import (
	"sync"
)

// OptionalMutex is a sync.Mutex that can be switched off for objects created as
// externally synchronized, in which case Lock and Unlock do nothing.
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}
