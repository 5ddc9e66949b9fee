package matching

import (
	"sync"
	"time"

	"github.com/dottenv/dating-bot/internal/domain/enums"
	"github.com/dottenv/dating-bot/internal/domain/model"
)

// Queue is the in-memory waiting pool, one FIFO bucket per rating tier.
// Every method is safe for concurrent use; the pair claim is atomic so
// two matchers can never hand out the same candidate.
type Queue struct {
	mu    sync.Mutex
	tiers map[enums.Tier][]model.QueueEntry
	index map[int64]enums.Tier

	now func() time.Time
}

func NewQueue() *Queue {
	return &Queue{
		tiers: make(map[enums.Tier][]model.QueueEntry),
		index: make(map[int64]enums.Tier),
		now:   time.Now,
	}
}

// Enqueue adds the user to their tier bucket. A user already waiting is
// left untouched and the call reports false.
func (q *Queue) Enqueue(userID int64, tier enums.Tier) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, waiting := q.index[userID]; waiting {
		return false
	}

	q.tiers[tier] = append(q.tiers[tier], model.QueueEntry{
		UserID:     userID,
		Tier:       tier,
		EnqueuedAt: q.now(),
	})
	q.index[userID] = tier
	return true
}

// Cancel removes the user from the pool. The first call wins; repeats
// report false.
func (q *Queue) Cancel(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.removeLocked(userID)
	return ok
}

func (q *Queue) Contains(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, waiting := q.index[userID]
	return waiting
}

func (q *Queue) Entry(userID int64) (model.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tier, waiting := q.index[userID]
	if !waiting {
		return model.QueueEntry{}, false
	}
	for _, entry := range q.tiers[tier] {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return model.QueueEntry{}, false
}

// Candidates snapshots the waiting users in the given tier order,
// FIFO inside each tier, skipping exclude. The snapshot is advisory:
// callers must re-validate through ClaimPair before committing.
func (q *Queue) Candidates(order []enums.Tier, exclude int64) []model.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []model.QueueEntry
	for _, tier := range order {
		for _, entry := range q.tiers[tier] {
			if entry.UserID == exclude {
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

// ClaimPair atomically removes both users from the pool. The partner
// must still be waiting or nothing happens. With requireClaimant set the
// claimer must be waiting too, so a cancel that already removed them
// beats the claim. Returned entries are zero-valued when the user was
// absent.
func (q *Queue) ClaimPair(userID, partnerID int64, requireClaimant bool) (model.QueueEntry, model.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, waiting := q.index[partnerID]; !waiting {
		return model.QueueEntry{}, model.QueueEntry{}, false
	}
	if requireClaimant {
		if _, waiting := q.index[userID]; !waiting {
			return model.QueueEntry{}, model.QueueEntry{}, false
		}
	}

	partnerEntry, _ := q.removeLocked(partnerID)
	userEntry, _ := q.removeLocked(userID)
	return userEntry, partnerEntry, true
}

// Restore puts a previously claimed entry back, keeping its original
// enqueue time so the user does not lose their FIFO age.
func (q *Queue) Restore(entry model.QueueEntry) bool {
	if entry.UserID <= 0 {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, waiting := q.index[entry.UserID]; waiting {
		return false
	}

	q.tiers[entry.Tier] = append(q.tiers[entry.Tier], entry)
	q.index[entry.UserID] = entry.Tier
	return true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.index)
}

func (q *Queue) TierCounts() map[enums.Tier]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	counts := make(map[enums.Tier]int, len(q.tiers))
	for tier, entries := range q.tiers {
		if len(entries) > 0 {
			counts[tier] = len(entries)
		}
	}
	return counts
}

func (q *Queue) removeLocked(userID int64) (model.QueueEntry, bool) {
	tier, waiting := q.index[userID]
	if !waiting {
		return model.QueueEntry{}, false
	}

	entries := q.tiers[tier]
	for i, entry := range entries {
		if entry.UserID == userID {
			q.tiers[tier] = append(entries[:i:i], entries[i+1:]...)
			delete(q.index, userID)
			return entry, true
		}
	}

	delete(q.index, userID)
	return model.QueueEntry{}, false
}
