package sensor

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/zeusync/flightcore/pkg/sequence"
)

// NoExpiry keeps a board entry until it is overwritten or expired by hand.
var NoExpiry = math.Inf(1)

const defaultBoardShards = 16

// Board is the relay through which bodies share contacts under string tags.
//
// Writes are staged and become visible to readers only after Commit, so
// every pack in a tick reads the same snapshot regardless of tick order.
// Entries expire a fixed time after they were published.
type Board struct {
	shards []boardShard
}

type boardEntry struct {
	tag       string
	body      Body
	info      *Contact
	expiresAt float64
	remove    bool
	// queued is the entry's slot in the shard's expiry queue, once committed.
	queued *sequence.Item[*boardEntry]
}

type boardShard struct {
	mx        sync.RWMutex
	committed map[string]map[uuid.UUID]*boardEntry
	staged    map[string]map[uuid.UUID]*boardEntry
	expiry    *sequence.PriorityQueue[*boardEntry]
}

func NewBoard() *Board {
	b := &Board{shards: make([]boardShard, defaultBoardShards)}
	for i := range b.shards {
		b.shards[i].committed = make(map[string]map[uuid.UUID]*boardEntry)
		b.shards[i].staged = make(map[string]map[uuid.UUID]*boardEntry)
		b.shards[i].expiry = sequence.NewPriorityQueue(func(a, b *boardEntry) bool {
			return a.expiresAt < b.expiresAt
		})
	}
	return b
}

func (b *Board) shard(tag string) *boardShard {
	return &b.shards[xxhash.Sum64String(tag)%uint64(len(b.shards))]
}

func stage(m map[string]map[uuid.UUID]*boardEntry, e *boardEntry) {
	byBody := m[e.tag]
	if byBody == nil {
		byBody = make(map[uuid.UUID]*boardEntry)
		m[e.tag] = byBody
	}
	byBody[e.body.ID()] = e
}

// Publish stages info about body under tag, to expire expire seconds after
// now. A later publish for the same tag and body in the same tick wins.
func (b *Board) Publish(tag string, body Body, info *Contact, expire, now float64) {
	s := b.shard(tag)
	s.mx.Lock()
	defer s.mx.Unlock()
	stage(s.staged, &boardEntry{tag: tag, body: body, info: info.Clone(), expiresAt: now + expire})
}

// Expire removes the entry for body under tag at the next Commit.
func (b *Board) Expire(tag string, body Body) {
	s := b.shard(tag)
	s.mx.Lock()
	defer s.mx.Unlock()
	stage(s.staged, &boardEntry{tag: tag, body: body, remove: true})
}

// Lookup returns a copy of the committed info for body under tag, or nil.
func (b *Board) Lookup(tag string, id uuid.UUID, now float64) *Contact {
	s := b.shard(tag)
	s.mx.RLock()
	defer s.mx.RUnlock()
	e := s.committed[tag][id]
	if e == nil || e.expiresAt <= now {
		return nil
	}
	return e.info.Clone()
}

// Peek is Lookup that also sees writes staged in the current tick. Writers
// use it to merge into what they or others already published.
func (b *Board) Peek(tag string, id uuid.UUID, now float64) *Contact {
	s := b.shard(tag)
	s.mx.RLock()
	e, ok := s.staged[tag][id]
	s.mx.RUnlock()
	if !ok {
		return b.Lookup(tag, id, now)
	}
	if e.remove || e.expiresAt <= now {
		return nil
	}
	return e.info.Clone()
}

// Bodies lists the bodies with live committed entries under tag, by name.
func (b *Board) Bodies(tag string, now float64) []Body {
	s := b.shard(tag)
	s.mx.RLock()
	defer s.mx.RUnlock()
	var out []Body
	for _, e := range s.committed[tag] {
		if e.expiresAt > now {
			out = append(out, e.body)
		}
	}
	slices.SortFunc(out, func(a, b Body) int { return cmp.Compare(a.Name(), b.Name()) })
	return out
}

// Commit makes staged writes visible and drops entries expired at now.
func (b *Board) Commit(now float64) {
	for i := range b.shards {
		b.shards[i].commit(now)
	}
}

func (s *boardShard) commit(now float64) {
	s.mx.Lock()
	defer s.mx.Unlock()
	for tag, byBody := range s.staged {
		for id, e := range byBody {
			old := s.committed[tag][id]
			if e.remove {
				delete(s.committed[tag], id)
				continue
			}
			stage(s.committed, e)
			if old != nil && old.queued != nil {
				// Reuse the superseded entry's slot.
				e.queued, old.queued = old.queued, nil
				s.expiry.Update(e.queued, e)
			} else {
				e.queued = s.expiry.Enqueue(e)
			}
		}
		delete(s.staged, tag)
	}
	for !s.expiry.IsEmpty() {
		e, _ := s.expiry.Peek()
		if e.expiresAt > now {
			break
		}
		s.expiry.Dequeue()
		e.queued = nil
		// Removed entries are left in the queue and skipped here.
		if byBody := s.committed[e.tag]; byBody[e.body.ID()] == e {
			delete(byBody, e.body.ID())
			if len(byBody) == 0 {
				delete(s.committed, e.tag)
			}
		}
	}
}

// queued reports how many entries wait in the expiry queues.
func (b *Board) queued() int {
	n := 0
	for i := range b.shards {
		s := &b.shards[i]
		s.mx.RLock()
		n += s.expiry.Len()
		s.mx.RUnlock()
	}
	return n
}

// Len counts live committed entries under tag.
func (b *Board) Len(tag string, now float64) int {
	return len(b.Bodies(tag, now))
}

