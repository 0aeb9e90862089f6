package gateway

import "sync"

// customerLocks serializes order handling per customer phone number so the
// repeat-customer lookup and the customer record update happen together.
type customerLocks struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until phone is free and returns its unlock function. Orders
// without a phone number are not serialized.
func (l *customerLocks) lock(phone string) func() {
	if phone == "" {
		return func() {}
	}

	mu := l.lockFor(phone)
	mu.Lock()

	return mu.Unlock
}

// lockFor returns the existing mutex for phone or lazily creates one.
func (l *customerLocks) lockFor(phone string) *sync.Mutex {
	l.mu.RLock()
	mu, ok := l.locks[phone]
	l.mu.RUnlock()
	if ok {
		return mu
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if mu, ok = l.locks[phone]; ok {
		return mu
	}

	mu = &sync.Mutex{}
	l.locks[phone] = mu
	return mu
}

func (l *customerLocks) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.locks)
}
