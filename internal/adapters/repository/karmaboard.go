package repository

import (
	"context"
	"math/rand"
	"sync"

	"github.com/plotcrowd/fairval/pkg/metrics"
)

// Treap-backed, in-memory Board implementation.
//
// Ordering: karma DESC, then userID ASC (deterministic). The BST comparator
// treats "less" as "ranks earlier", so an in-order traversal yields the
// leaderboard from best to worst. Karma is an integer, so no fixed-point
// scaling is needed.

// treap node
type node struct {
	id    string
	karma int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aKarma, aID) ranks earlier than (bKarma, bID).
func less(aKarma int, aID string, bKarma int, bID string) bool {
	if aKarma != bKarma {
		return aKarma > bKarma
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, karma int) *node {
	if n == nil {
		return &node{id: id, karma: karma, prio: rand.Uint64(), size: 1}
	}
	if less(karma, id, n.karma, n.id) {
		n.left = insert(n.left, id, karma)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, karma)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, karma int) *node {
	if n == nil {
		return nil
	}
	switch {
	case karma == n.karma && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, karma)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, karma)
		}
	case less(karma, id, n.karma, n.id):
		n.left = remove(n.left, id, karma)
	default:
		n.right = remove(n.right, id, karma)
	}
	fix(n)
	return n
}

// countEarlier counts the nodes ranking strictly earlier than (karma, id)
// using subtree sizes, in O(log n) expected time.
func countEarlier(n *node, karma int, id string) int {
	if n == nil {
		return 0
	}
	if less(n.karma, n.id, karma, id) {
		return nsize(n.left) + 1 + countEarlier(n.right, karma, id)
	}
	return countEarlier(n.left, karma, id)
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{UserID: n.id, Karma: n.karma})
	}
	collectTopN(n.right, limit, out)
}

// assignRanks fills in competition ranks over a descending-sorted slice:
// equal karma shares a rank, the rank below a tie group accounts for its
// size.
func assignRanks(entries []Entry, offset int) {
	for i := range entries {
		if i > 0 && entries[i].Karma == entries[i-1].Karma {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = offset + i + 1
	}
}

// KarmaBoard implements Board over a treap.
type KarmaBoard struct {
	mu   sync.RWMutex
	root *node
	byID map[string]int
}

// NewKarmaBoard constructs an empty karma leaderboard.
func NewKarmaBoard() *KarmaBoard {
	return &KarmaBoard{byID: make(map[string]int)}
}

// SetScore upserts a user's karma score in O(log n) expected time.
func (b *KarmaBoard) SetScore(_ context.Context, userID string, karma int) error {
	b.mu.Lock()
	if old, ok := b.byID[userID]; ok {
		if old == karma {
			b.mu.Unlock()
			return nil
		}
		b.root = remove(b.root, userID, old)
	}
	b.byID[userID] = karma
	b.root = insert(b.root, userID, karma)
	count := len(b.byID)
	b.mu.Unlock()

	metrics.RecordKarmaBoardUpdate()
	metrics.UpdateTrackedUsers(count)
	return nil
}

// Score returns a user's karma, defaulting to 0 for unknown users: a user
// who never had a guess resolved weighs like a fresh account.
func (b *KarmaBoard) Score(_ context.Context, userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.byID[userID]
}

// Rank returns the competition rank for a user: one more than the number of
// users with strictly higher karma, so ties share a rank.
func (b *KarmaBoard) Rank(_ context.Context, userID string) (Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	karma, ok := b.byID[userID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	// An empty userID sorts before every real ID, so countEarlier sees only
	// strictly higher karma.
	higher := countEarlier(b.root, karma, "")
	return Entry{Rank: higher + 1, UserID: userID, Karma: karma}, nil
}

// TopN returns the top N entries ordered by karma desc.
func (b *KarmaBoard) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, n)
	collectTopN(b.root, n, &out)
	assignRanks(out, 0)

	// Competition ranking: a tie group straddling the cut still shares the
	// rank of its first member, which assignRanks already guarantees.
	return out, nil
}

// Count returns the number of users tracked on the board.
func (b *KarmaBoard) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byID)
}
