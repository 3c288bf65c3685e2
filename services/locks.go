package services

import "sync"

// TournamentLocks serializes mutating operations per tournament so two
// concurrent generate calls cannot interleave their writes. Reads stay
// lock-free.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *TournamentLocks) Lock(tournamentID int) func() {
	l.mu.Lock()
	lock, ok := l.locks[tournamentID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tournamentID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
