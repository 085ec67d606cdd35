package tui

import (
	"sync"
	"time"
)

// flash holds transient notification messages for the status bar.
type flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

func (f *flash) set(msg string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = time.Now().Add(d)
}

func (f *flash) get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return ""
	}
	return f.message
}
