package app

import (
	"sort"
	"sync"
	"time"

	"animal-quiz-service/internal/domain"
)

// ScoreboardHub tracks a live best-score board per quiz and fans snapshots
// out to subscribers. Boards live for the process lifetime; the persistent
// truth stays in the user repository.
type ScoreboardHub struct {
	mu     sync.RWMutex
	now    func() time.Time
	boards map[string]*board
}

func NewScoreboardHub() *ScoreboardHub {
	return &ScoreboardHub{now: time.Now, boards: make(map[string]*board)}
}

// NewScoreboardHubWithClock is test-only for deterministic timestamps.
func NewScoreboardHubWithClock(now func() time.Time) *ScoreboardHub {
	return &ScoreboardHub{now: now, boards: make(map[string]*board)}
}

// Record registers a new best score and broadcasts the updated board.
func (h *ScoreboardHub) Record(quizID, userID, name string, bestScore int) domain.Scoreboard {
	return h.getOrCreate(quizID).record(userID, name, bestScore)
}

// Subscribe returns a channel that receives scoreboard updates for a quiz,
// starting with the current snapshot. The caller must invoke the returned
// cancel function to avoid leaks.
func (h *ScoreboardHub) Subscribe(quizID string) (<-chan domain.Scoreboard, func()) {
	return h.getOrCreate(quizID).subscribe()
}

func (h *ScoreboardHub) getOrCreate(quizID string) *board {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.boards[quizID]; ok {
		return b
	}
	b := &board{
		quizID:      quizID,
		now:         h.now,
		entries:     make(map[string]*boardEntry),
		subscribers: make(map[chan domain.Scoreboard]struct{}),
	}
	h.boards[quizID] = b
	return b
}

type boardEntry struct {
	name      string
	bestScore int
}

type board struct {
	quizID      string
	now         func() time.Time
	mu          sync.RWMutex
	entries     map[string]*boardEntry
	subscribers map[chan domain.Scoreboard]struct{}
}

func (b *board) record(userID, name string, bestScore int) domain.Scoreboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry, ok := b.entries[userID]; ok {
		entry.name = name
		if bestScore > entry.bestScore {
			entry.bestScore = bestScore
		}
	} else {
		b.entries[userID] = &boardEntry{name: name, bestScore: bestScore}
	}
	return b.broadcastLocked()
}

func (b *board) subscribe() (<-chan domain.Scoreboard, func()) {
	ch := make(chan domain.Scoreboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *board) broadcastLocked() domain.Scoreboard {
	snapshot := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Slow subscribers drop the stale snapshot and take the fresh one.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

func (b *board) snapshotLocked() domain.Scoreboard {
	entries := make([]domain.ScoreboardEntry, 0, len(b.entries))
	for userID, entry := range b.entries {
		entries = append(entries, domain.ScoreboardEntry{
			UserID:    userID,
			Name:      entry.name,
			BestScore: entry.bestScore,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestScore != entries[j].BestScore {
			return entries[i].BestScore > entries[j].BestScore
		}
		return entries[i].Name < entries[j].Name
	})

	return domain.Scoreboard{
		QuizID:    b.quizID,
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
