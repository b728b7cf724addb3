package lexicon

import (
	"errors"
	"reflect"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A SKIP INDEX?
// ═══════════════════════════════════════════════════════════════════════════════
// A skip index is a skip list: a sorted linked list with "express lanes" stacked
// on top of it. Every node lives on lane 0; each higher lane holds roughly half
// the nodes of the lane below it.
//
// VISUAL REPRESENTATION:
// ----------------------
//
//	Lane 2: HEAD ---------------------------> [ciao] -----------------> nil
//	Lane 1: HEAD ------------> [bye] -------> [ciao] ------> [hola] --> nil
//	Lane 0: HEAD --> [aloha] -> [bye] -> [ca] -> [ciao] -> [hi] -> [hola] -> nil
//
// A lookup starts on the highest lane in use, runs right while the next key is
// smaller than the target, drops one lane, and repeats. Insert follows the same
// path and splices the new node in at every lane it was given.
//
// ARENA LAYOUT:
// -------------
// Nodes are not linked with pointers. They live in a single slice (the arena)
// and refer to each other by arena index, with noNode (-1) meaning "end of
// lane". A lane head is just an index too. Rewiring a link is an integer store,
// and dropping the whole structure is dropping one slice.
//
//	heads: [0, 1, 3]            arena[0] = {key: aloha, next: [1]}
//	                            arena[1] = {key: bye,   next: [2, 3]}
//	                            arena[3] = {key: ciao,  next: [4, 5, -1]}
//
// COMPARATOR CONTRACT:
// --------------------
// The comparator must be a total order and must be the same function for the
// whole life of the index. Swapping comparators between the population phase
// and the query phase gives meaningless lookup results; this is not detected.
// ═══════════════════════════════════════════════════════════════════════════════

// noNode marks an empty link or an empty lane head.
const noNode = -1

// DefaultMaxHeight is the lane count used when callers have no better estimate.
// 2^16 words keep an expected log2(n) = 16 lanes busy.
const DefaultMaxHeight = 16

// Errors returned by skip index operations.
var (
	ErrInvalidHeight = errors.New("invalid max height")
	ErrNilComparator = errors.New("comparator is nil")
	ErrNilKey        = errors.New("key is nil or empty")
	ErrDestroyed     = errors.New("skip index has been destroyed")
)

// Comparator orders two keys: negative if a < b, zero if equal, positive if a > b.
type Comparator[K any] func(a, b K) int

// node is a single keyed entry with one forward link per lane it belongs to.
// len(next) is the node's level count.
type node[K any] struct {
	key  K
	next []int
}

// SkipIndex is an ordered collection of keys supporting insert and exact lookup
// in expected O(log n).
//
// A SkipIndex is not safe for concurrent mutation. Once populated, concurrent
// Lookup calls are fine because Lookup never writes.
type SkipIndex[K any] struct {
	nodes     []node[K] // arena; nodes are appended and never moved logically
	heads     []int     // lane heads, one per possible lane
	maxHeight int       // fixed lane capacity
	level     int       // highest level count among inserted nodes (0 when empty)
	compare   Comparator[K]

	chooser   LevelChooser
	validate  func(K) bool
	release   func(K)
	destroyed bool
}

// Option configures a SkipIndex at construction time.
type Option[K any] func(*SkipIndex[K])

// WithLevelChooser replaces the default process-seeded coin flipper.
func WithLevelChooser[K any](c LevelChooser) Option[K] {
	return func(s *SkipIndex[K]) {
		if c != nil {
			s.chooser = c
		}
	}
}

// WithKeyValidator replaces the nil/empty key check applied by Insert and Lookup.
// The function reports whether a key is acceptable.
func WithKeyValidator[K any](valid func(K) bool) Option[K] {
	return func(s *SkipIndex[K]) {
		if valid != nil {
			s.validate = valid
		}
	}
}

// WithReleaseHook registers a function called once for every node released by
// Destroy, in lane-0 order.
func WithReleaseHook[K any](release func(K)) Option[K] {
	return func(s *SkipIndex[K]) {
		s.release = release
	}
}

// New creates an empty skip index with maxHeight lanes ordered by compare.
func New[K any](maxHeight int, compare Comparator[K], opts ...Option[K]) (*SkipIndex[K], error) {
	if maxHeight <= 0 {
		return nil, ErrInvalidHeight
	}
	if compare == nil {
		return nil, ErrNilComparator
	}

	s := &SkipIndex[K]{
		heads:     newLinks(maxHeight),
		maxHeight: maxHeight,
		compare:   compare,
		chooser:   NewRandomLevelChooser(),
		validate:  isPresent[K],
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// newLinks returns a link array of the given size with every slot empty.
func newLinks(size int) []int {
	links := make([]int, size)
	for i := range links {
		links[i] = noNode
	}
	return links
}

// isPresent is the default key check: nil pointers, maps, slices, channels,
// funcs and interfaces are rejected, and so is the empty string.
func isPresent[K any](key K) bool {
	v := reflect.ValueOf(any(key))
	if !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return !v.IsNil()
	case reflect.String:
		return v.Len() > 0
	}
	return true
}

// ═══════════════════════════════════════════════════════════════════════════════
// CURSOR HELPERS
// ═══════════════════════════════════════════════════════════════════════════════
// A cursor is either noNode (standing on the lane heads) or an arena index.
// These two helpers hide that distinction from the search loops.
// ═══════════════════════════════════════════════════════════════════════════════

func (s *SkipIndex[K]) nextOf(cursor, lane int) int {
	if cursor == noNode {
		return s.heads[lane]
	}
	return s.nodes[cursor].next[lane]
}

func (s *SkipIndex[K]) setNext(cursor, lane, target int) {
	if cursor == noNode {
		s.heads[lane] = target
		return
	}
	s.nodes[cursor].next[lane] = target
}

// ═══════════════════════════════════════════════════════════════════════════════
// INSERT
// ═══════════════════════════════════════════════════════════════════════════════
// Inserting "ca" with level count 2 into:
//
//	Lane 1: HEAD ------------> [bye] -------> [ciao]
//	Lane 0: HEAD --> [aloha] -> [bye] -------> [ciao]
//
// Lane 1: advance to bye (bye <= ca), stop before ciao. Splice.
// Lane 0: continue from bye, stop before ciao. Splice.
//
//	Lane 1: HEAD ------------> [bye] -> [ca] -> [ciao]
//	Lane 0: HEAD --> [aloha] -> [bye] -> [ca] -> [ciao]
//
// DUPLICATES:
// -----------
// The cursor walks past keys that compare equal, so a duplicate lands after
// every existing equal key. Equal keys stay in insertion order.
// ═══════════════════════════════════════════════════════════════════════════════

// Insert adds key to the index. It returns ErrNilKey (and changes nothing) when
// the key fails validation, and ErrDestroyed after Destroy.
func (s *SkipIndex[K]) Insert(key K) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if !s.validate(key) {
		return ErrNilKey
	}

	height := clampLevel(s.chooser.ChooseLevel(s.maxHeight), s.maxHeight)

	// The node is fully allocated before any existing link is touched.
	id := len(s.nodes)
	s.nodes = append(s.nodes, node[K]{key: key, next: newLinks(height)})

	if height > s.level {
		s.level = height
	}

	cursor := noNode
	for lane := s.level - 1; lane >= 0; lane-- {
		cursor = s.advance(cursor, lane, key, true)

		if lane < height {
			s.nodes[id].next[lane] = s.nextOf(cursor, lane)
			s.setNext(cursor, lane, id)
		}
	}

	return nil
}

// advance moves the cursor right along one lane. With inclusive set it also
// walks past keys equal to target (insert); otherwise it stops in front of them
// (lookup).
func (s *SkipIndex[K]) advance(cursor, lane int, target K, inclusive bool) int {
	for next := s.nextOf(cursor, lane); next != noNode; next = s.nextOf(cursor, lane) {
		c := s.compare(s.nodes[next].key, target)
		if c > 0 || (c == 0 && !inclusive) {
			break
		}
		cursor = next
	}
	return cursor
}

// ═══════════════════════════════════════════════════════════════════════════════
// LOOKUP
// ═══════════════════════════════════════════════════════════════════════════════

// Lookup searches for key. It returns the stored key (not the argument) and true
// when an equal key is present, or the zero value and false when it is absent.
// Absence is not an error; errors are reserved for caller mistakes.
func (s *SkipIndex[K]) Lookup(key K) (K, bool, error) {
	var zero K
	if s.destroyed {
		return zero, false, ErrDestroyed
	}
	if !s.validate(key) {
		return zero, false, ErrNilKey
	}

	cursor := noNode
	for lane := s.level - 1; lane >= 0; lane-- {
		cursor = s.advance(cursor, lane, key, false)
	}

	candidate := s.nextOf(cursor, 0)
	if candidate != noNode && s.compare(s.nodes[candidate].key, key) == 0 {
		return s.nodes[candidate].key, true, nil
	}

	return zero, false, nil
}

// Contains reports whether a key equal to key is present. Caller errors read
// as absent.
func (s *SkipIndex[K]) Contains(key K) bool {
	_, found, err := s.Lookup(key)
	return err == nil && found
}

// ═══════════════════════════════════════════════════════════════════════════════
// DESTROY
// ═══════════════════════════════════════════════════════════════════════════════
// Every node has at least one level, so walking lane 0 visits each node exactly
// once no matter how tall its tower is.
// ═══════════════════════════════════════════════════════════════════════════════

// Destroy releases every node and the lane heads, returning the number of nodes
// released. The index cannot be used afterwards; a second call returns 0.
func (s *SkipIndex[K]) Destroy() int {
	if s.destroyed {
		return 0
	}

	var zero K
	released := 0
	for id := s.heads[0]; id != noNode; {
		n := &s.nodes[id]
		next := n.next[0]

		if s.release != nil {
			s.release(n.key)
		}
		n.key = zero
		n.next = nil
		released++

		id = next
	}

	s.nodes = nil
	s.heads = nil
	s.level = 0
	s.destroyed = true

	return released
}

// Len returns the number of keys inserted.
func (s *SkipIndex[K]) Len() int {
	return len(s.nodes)
}

// Level returns the highest level count among inserted nodes, 0 when empty.
func (s *SkipIndex[K]) Level() int {
	return s.level
}

// MaxHeight returns the lane capacity fixed at construction.
func (s *SkipIndex[K]) MaxHeight() int {
	return s.maxHeight
}

// ═══════════════════════════════════════════════════════════════════════════════
// ITERATOR
// ═══════════════════════════════════════════════════════════════════════════════
// Lane 0 holds every key in order, so iteration never looks at the upper lanes.
//
//	it := idx.Iterator()
//	for it.Next() {
//	    fmt.Println(it.Key())
//	}
// ═══════════════════════════════════════════════════════════════════════════════

// Iterator walks the keys of a SkipIndex in ascending order.
type Iterator[K any] struct {
	index   *SkipIndex[K]
	current int
	started bool
}

// Iterator returns an iterator positioned before the first key.
func (s *SkipIndex[K]) Iterator() *Iterator[K] {
	return &Iterator[K]{index: s, current: noNode}
}

// Next advances to the next key and reports whether there is one.
func (it *Iterator[K]) Next() bool {
	if it.index.destroyed {
		return false
	}

	if !it.started {
		it.started = true
		it.current = it.index.heads[0]
	} else if it.current != noNode {
		it.current = it.index.nodes[it.current].next[0]
	}

	return it.current != noNode
}

// Key returns the key under the iterator. It is only valid after Next returned true.
func (it *Iterator[K]) Key() K {
	return it.index.nodes[it.current].key
}
