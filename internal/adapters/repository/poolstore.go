package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/propedge/propedge/internal/domain/model"
)

// Treap-based, in-memory PoolStore implementation.
//
// Ordering: confidence DESC, then proposition id ASC (deterministic).
// The comparator treats "less" as "ranks earlier", so an in-order
// traversal yields the pool from most to least confident. Node priorities
// are hashed from the proposition id, which keeps the treap balanced and
// the structure reproducible across runs.

// treapNode is one pool entry in the treap.
type treapNode struct {
	id         string
	confidence int
	prio       uint64
	left       *treapNode
	right      *treapNode
	size       int
}

func nodeSize(n *treapNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fixSize(n *treapNode) {
	if n != nil {
		n.size = 1 + nodeSize(n.left) + nodeSize(n.right)
	}
}

// ranksEarlier reports whether (aConf, aID) appears before (bConf, bID)
// in pool order.
func ranksEarlier(aConf int, aID string, bConf int, bID string) bool {
	if aConf != bConf {
		return aConf > bConf // higher confidence ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *treapNode) *treapNode {
	x := y.left
	y.left = x.right
	x.right = y
	fixSize(y)
	fixSize(x)
	return x
}

func rotateLeft(x *treapNode) *treapNode {
	y := x.right
	x.right = y.left
	y.left = x
	fixSize(x)
	fixSize(y)
	return y
}

func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insertNode(n *treapNode, id string, confidence int) *treapNode {
	if n == nil {
		return &treapNode{id: id, confidence: confidence, prio: idPriority(id), size: 1}
	}
	if ranksEarlier(confidence, id, n.confidence, n.id) {
		n.left = insertNode(n.left, id, confidence)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insertNode(n.right, id, confidence)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fixSize(n)
	return n
}

func deleteNode(n *treapNode, id string, confidence int) *treapNode {
	if n == nil {
		return nil
	}
	if confidence == n.confidence && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, confidence)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, confidence)
		}
	} else if ranksEarlier(confidence, id, n.confidence, n.id) {
		n.left = deleteNode(n.left, id, confidence)
	} else {
		n.right = deleteNode(n.right, id, confidence)
	}
	fixSize(n)
	return n
}

// collectTopN appends up to limit ids in rank order.
func collectTopN(n *treapNode, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
		collectTopN(n.right, limit, out)
	}
}

// TreapPool implements PoolStore with a treap over confidence rank and a
// map for O(1) lookups by id.
type TreapPool struct {
	mu   sync.RWMutex
	root *treapNode
	byID map[string]model.ScoredProposition
}

// NewTreapPool creates an empty ranked pool.
func NewTreapPool(_ context.Context) *TreapPool {
	return &TreapPool{byID: make(map[string]model.ScoredProposition)}
}

// Put inserts or replaces a scored proposition, re-ranking it by its new
// confidence.
func (p *TreapPool) Put(_ context.Context, sp model.ScoredProposition) error {
	id := sp.Proposition.ID
	if id == "" {
		return model.ErrInvalidProposition
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.byID[id]; ok {
		p.root = deleteNode(p.root, id, prev.Confidence)
	}
	p.root = insertNode(p.root, id, sp.Confidence)
	p.byID[id] = sp
	return nil
}

// Get returns the scored proposition for an id.
func (p *TreapPool) Get(_ context.Context, id string) (model.ScoredProposition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sp, ok := p.byID[id]
	if !ok {
		return model.ScoredProposition{}, ErrNotFound
	}
	return sp, nil
}

// TopN returns the n highest-confidence propositions in rank order.
func (p *TreapPool) TopN(_ context.Context, n int) ([]model.ScoredProposition, error) {
	if n <= 0 {
		return nil, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, n)
	collectTopN(p.root, n, &ids)
	out := make([]model.ScoredProposition, len(ids))
	for i, id := range ids {
		out[i] = p.byID[id]
	}
	return out, nil
}

// Count returns the number of propositions in the pool.
func (p *TreapPool) Count(_ context.Context) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byID)
}

// Clear empties the pool.
func (p *TreapPool) Clear(_ context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = nil
	p.byID = make(map[string]model.ScoredProposition)
}
