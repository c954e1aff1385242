package purgequeue

import (
	"container/list"

	"github.com/distfs/purgequeue/intent"
)

// inFlightEntry is one intent currently executing against the
// object-store client, keyed by the journal offset just past its
// record (expireTo, per the GLOSSARY).
type inFlightEntry struct {
	expireTo uint64
	intent   intent.Intent
	cost     uint32

	advanceTo uint64 // furthest later offset that completed while this entry was pending
}

// inFlightMap is the core's InFlightMap (§3, §9): an ordered mapping
// from expireTo to the intent executing at that offset, whose smallest
// key is the oldest uncompleted intent and therefore the only entry
// whose completion may advance expiry.
//
// Per §5, append order equals journal offset order equals consumption
// order — every entry is inserted in strictly increasing offset order.
// That means insertion order already equals offset order, so a plain
// FIFO list gives the required "smallest key" semantics for free: the
// front of the list is always the oldest in-flight offset, independent
// of which entries complete (and get removed) out of order. A sorted
// tree would answer the same question at higher cost for no benefit
// here.
type inFlightMap struct {
	order *list.List
	index map[uint64]*list.Element
}

func newInFlightMap() *inFlightMap {
	return &inFlightMap{
		order: list.New(),
		index: make(map[uint64]*list.Element),
	}
}

func (m *inFlightMap) insert(expireTo uint64, it intent.Intent, cost uint32) {
	el := m.order.PushBack(&inFlightEntry{expireTo: expireTo, intent: it, cost: cost})
	m.index[expireTo] = el
}

func (m *inFlightMap) get(expireTo uint64) (*inFlightEntry, bool) {
	el, ok := m.index[expireTo]
	if !ok {
		return nil, false
	}
	return el.Value.(*inFlightEntry), true
}

func (m *inFlightMap) remove(expireTo uint64) {
	el, ok := m.index[expireTo]
	if !ok {
		return
	}
	m.order.Remove(el)
	delete(m.index, expireTo)
}

func (m *inFlightMap) len() int {
	return m.order.Len()
}

func (m *inFlightMap) isEmpty() bool {
	return m.order.Len() == 0
}

// isSmallest reports whether expireTo is the oldest in-flight offset —
// the only condition under which a completion may advance expire_pos.
func (m *inFlightMap) isSmallest(expireTo uint64) bool {
	front := m.order.Front()
	if front == nil {
		return false
	}
	return front.Value.(*inFlightEntry).expireTo == expireTo
}
