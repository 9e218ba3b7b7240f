package service

import "sync"

// LockManager hands out named mutual-exclusion handles. Challenge creation
// acquires both participants' handles in a fixed lexicographic order so two
// opposite-direction challenges can never deadlock or both slip past
// validation.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

func (m *LockManager) handle(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Lock acquires a single handle and returns its unlock function.
func (m *LockManager) Lock(id string) func() {
	l := m.handle(id)
	l.Lock()
	return l.Unlock
}

// LockPair acquires both handles in lexicographic order and returns an
// unlock function releasing them in reverse.
func (m *LockManager) LockPair(a, b string) func() {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	l1 := m.handle(first)
	l2 := m.handle(second)
	l1.Lock()
	l2.Lock()
	return func() {
		l2.Unlock()
		l1.Unlock()
	}
}

// Size reports how many handles are currently registered.
func (m *LockManager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// ReleaseExcept drops handles for identities not in the keep set, so lock
// state does not grow without bound. Only handles that can be acquired
// immediately are dropped; a contended handle is by definition still in use
// and stays registered.
func (m *LockManager) ReleaseExcept(keep map[string]bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	released := 0
	for id, l := range m.locks {
		if keep[id] {
			continue
		}
		if l.TryLock() {
			delete(m.locks, id)
			l.Unlock()
			released++
		}
	}
	return released
}
