package room

import (
	"sync"

	"github.com/tobyv/guesswho/internal/model"
)

// lockTable hands out one mutex per room code so that intents for the same
// room serialize while unrelated rooms never contend. The sweeper takes
// the same mutex before evicting, which is what keeps an eviction from
// racing an in-flight join.
type lockTable struct {
	mu    sync.Mutex
	locks map[model.RoomCode]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{
		locks: make(map[model.RoomCode]*sync.Mutex),
	}
}

// get returns the mutex for a code, creating it on first use
func (t *lockTable) get(code model.RoomCode) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.locks[code]
	if !ok {
		m = &sync.Mutex{}
		t.locks[code] = m
	}
	return m
}

// forget drops the mutex for a deleted room. A goroutine still blocked on
// the old mutex proceeds harmlessly; its storage lookup will miss.
func (t *lockTable) forget(code model.RoomCode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, code)
}
