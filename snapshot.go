package lexicon

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SNAPSHOTS: Saving and Loading a Skip Index
// ═══════════════════════════════════════════════════════════════════════════════
// Loading a large word list means one randomized insert per word. A snapshot
// stores the finished structure, towers included, so loading it is a single
// linear read with no comparisons on the hot path beyond validation.
//
// BINARY FORMAT (little endian):
// ------------------------------
//
//	[magic: "LXSI"][version: uint16]
//	[maxHeight: uint32][level: uint32][count: uint32]
//	for each node, in lane-0 order:
//	    [keyLength: uint32][key: bytes]
//	    [height: uint16][link: uint32] × height
//	[head: uint32] × maxHeight
//
// Links are node numbers, not arena slots: node n is the n-th node on lane 0,
// counting from 1, and 0 means "end of lane". Arena slots depend on insertion
// order; lane-0 numbers only depend on the structure.
//
// Decoding checks that every lane is a strictly increasing walk over node
// numbers, that it holds exactly the nodes tall enough for it, and that lane 0
// is ordered under the comparator. A snapshot that passes is a valid index.
// ═══════════════════════════════════════════════════════════════════════════════

var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// MaxSnapshotHeight is the largest lane capacity a snapshot can hold. Encode
// refuses taller indexes, so every snapshot it writes can be decoded.
const MaxSnapshotHeight = 1 << 10

const (
	snapshotVersion = 1
	maxSnapshotKey  = maxLineBytes
)

var (
	indexMagic      = [4]byte{'L', 'X', 'S', 'I'}
	dictionaryMagic = [4]byte{'L', 'X', 'D', 'C'}
)

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}

// Encode writes the index, tower structure included, to w. encodeKey turns a
// key into bytes; decodeKey given to DecodeSkipIndex must invert it.
func (s *SkipIndex[K]) Encode(w io.Writer, encodeKey func(K) ([]byte, error)) error {
	if s.destroyed {
		return ErrDestroyed
	}
	if s.maxHeight > MaxSnapshotHeight {
		return fmt.Errorf("%w: %d lanes, snapshots hold at most %d", ErrInvalidHeight, s.maxHeight, MaxSnapshotHeight)
	}

	numbers := s.laneZeroNumbers()
	bw := bufio.NewWriter(w)
	enc := &snapshotEncoder{w: bw}

	enc.write(indexMagic)
	enc.write(uint16(snapshotVersion))
	enc.write(uint32(s.maxHeight))
	enc.write(uint32(s.level))
	enc.write(uint32(len(s.nodes)))

	for id := s.heads[0]; id != noNode && enc.err == nil; id = s.nodes[id].next[0] {
		n := &s.nodes[id]

		data, err := encodeKey(n.key)
		if err != nil {
			return fmt.Errorf("encoding key: %w", err)
		}
		enc.writeBytes(data)

		enc.write(uint16(len(n.next)))
		for _, link := range n.next {
			enc.write(toNumber(numbers, link))
		}
	}

	for _, head := range s.heads {
		enc.write(toNumber(numbers, head))
	}

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

// laneZeroNumbers maps arena slot → 1-based lane-0 position.
func (s *SkipIndex[K]) laneZeroNumbers() []uint32 {
	numbers := make([]uint32, len(s.nodes))
	next := uint32(1)
	for id := s.heads[0]; id != noNode; id = s.nodes[id].next[0] {
		numbers[id] = next
		next++
	}
	return numbers
}

func toNumber(numbers []uint32, id int) uint32 {
	if id == noNode {
		return 0
	}
	return numbers[id]
}

// snapshotEncoder remembers the first write error so the encode loop stays flat.
type snapshotEncoder struct {
	w   io.Writer
	err error
}

func (e *snapshotEncoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *snapshotEncoder) writeBytes(data []byte) {
	e.write(uint32(len(data)))
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(data)
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECODING
// ═══════════════════════════════════════════════════════════════════════════════

// DecodeSkipIndex reads a snapshot written by Encode. The lane capacity comes
// from the snapshot; opts apply as they do for New (a level chooser only
// matters for inserts made after loading).
func DecodeSkipIndex[K any](r io.Reader, compare Comparator[K], decodeKey func([]byte) (K, error), opts ...Option[K]) (*SkipIndex[K], error) {
	dec := &snapshotDecoder{r: bufio.NewReader(r)}

	var magic [4]byte
	var version uint16
	var maxHeight, level, count uint32
	dec.read(&magic)
	dec.read(&version)
	dec.read(&maxHeight)
	dec.read(&level)
	dec.read(&count)
	if dec.err != nil {
		return nil, dec.err
	}

	if magic != indexMagic {
		return nil, corrupt("bad magic %q", magic[:])
	}
	if version != snapshotVersion {
		return nil, corrupt("unsupported version %d", version)
	}
	if maxHeight == 0 || maxHeight > MaxSnapshotHeight {
		return nil, corrupt("max height %d out of range", maxHeight)
	}
	if level > maxHeight {
		return nil, corrupt("level %d exceeds max height %d", level, maxHeight)
	}

	s, err := New(int(maxHeight), compare, opts...)
	if err != nil {
		return nil, err
	}

	// Nodes are decoded in lane-0 order, so node number n lands in arena slot n-1.
	for i := uint32(0); i < count; i++ {
		data := dec.readBytes()
		var height uint16
		dec.read(&height)
		if dec.err != nil {
			return nil, dec.err
		}
		if height == 0 || uint32(height) > maxHeight {
			return nil, corrupt("node %d: height %d out of range", i+1, height)
		}

		key, err := decodeKey(data)
		if err != nil {
			return nil, fmt.Errorf("decoding key of node %d: %w", i+1, err)
		}

		next := make([]int, height)
		for lane := range next {
			next[lane], err = dec.readLink(count)
			if err != nil {
				return nil, err
			}
		}
		s.nodes = append(s.nodes, node[K]{key: key, next: next})
	}

	for lane := range s.heads {
		if s.heads[lane], err = dec.readLink(count); err != nil {
			return nil, err
		}
	}

	s.level = int(level)
	if err := s.verify(); err != nil {
		return nil, err
	}

	slog.Debug("skip index decoded", slog.Int("nodes", len(s.nodes)), slog.Int("level", s.level))
	return s, nil
}

// verify checks the structural invariants of a freshly decoded index.
func (s *SkipIndex[K]) verify() error {
	tallest := 0
	for _, n := range s.nodes {
		tallest = max(tallest, len(n.next))
	}
	if tallest != s.level {
		return corrupt("level %d, tallest node %d", s.level, tallest)
	}

	for lane := 0; lane < s.maxHeight; lane++ {
		expected := 0
		for _, n := range s.nodes {
			if len(n.next) > lane {
				expected++
			}
		}

		walked := 0
		prev := noNode
		for id := s.heads[lane]; id != noNode; id = s.nodes[id].next[lane] {
			if id <= prev {
				return corrupt("lane %d is not increasing at node %d", lane, id+1)
			}
			if lane == 0 && id != prev+1 {
				return corrupt("lane 0 skips from node %d to %d", prev+1, id+1)
			}
			if len(s.nodes[id].next) <= lane {
				return corrupt("lane %d reaches node %d of height %d", lane, id+1, len(s.nodes[id].next))
			}
			if lane == 0 && prev != noNode && s.compare(s.nodes[prev].key, s.nodes[id].key) > 0 {
				return corrupt("keys out of order at node %d", id+1)
			}
			prev = id
			walked++
		}

		if walked != expected {
			return corrupt("lane %d links %d of %d nodes", lane, walked, expected)
		}
	}

	return nil
}

type snapshotDecoder struct {
	r   io.Reader
	err error
}

func (d *snapshotDecoder) read(v any) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.err = truncated(err)
	}
}

func (d *snapshotDecoder) readBytes() []byte {
	var length uint32
	d.read(&length)
	if d.err != nil {
		return nil
	}
	if length > maxSnapshotKey {
		d.err = corrupt("key length %d too large", length)
		return nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(d.r, data); err != nil {
		d.err = truncated(err)
		return nil
	}
	return data
}

// readLink reads a 1-based node number and converts it to an arena slot.
func (d *snapshotDecoder) readLink(count uint32) (int, error) {
	var number uint32
	d.read(&number)
	if d.err != nil {
		return noNode, d.err
	}
	if number > count {
		return noNode, corrupt("link to node %d, only %d nodes", number, count)
	}
	return int(number) - 1, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return corrupt("truncated")
	}
	return err
}

// ═══════════════════════════════════════════════════════════════════════════════
// DICTIONARY SNAPSHOTS
// ═══════════════════════════════════════════════════════════════════════════════
// A dictionary snapshot is a small header followed by the word index. Stems are
// not stored; they are recomputed on load when stemming is requested.
// ═══════════════════════════════════════════════════════════════════════════════

// Save writes the dictionary's word index to w.
func (d *Dictionary) Save(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.words.maxHeight > MaxSnapshotHeight {
		return fmt.Errorf("%w: %d lanes, snapshots hold at most %d", ErrInvalidHeight, d.words.maxHeight, MaxSnapshotHeight)
	}
	if _, err := w.Write(dictionaryMagic[:]); err != nil {
		return err
	}
	return d.words.Encode(w, func(word string) ([]byte, error) {
		return []byte(word), nil
	})
}

// LoadDictionary reads a snapshot written by Save. The lane capacity stored in
// the snapshot wins over config.MaxHeight.
func LoadDictionary(r io.Reader, config DictionaryConfig) (*Dictionary, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, truncated(err)
	}
	if magic != dictionaryMagic {
		return nil, corrupt("not a dictionary snapshot")
	}

	words, err := DecodeSkipIndex(br, CompareFold, func(data []byte) (string, error) {
		if len(data) == 0 {
			return "", ErrEmptyWord
		}
		return string(data), nil
	}, WithLevelChooser[string](config.Chooser))
	if err != nil {
		return nil, err
	}

	config.MaxHeight = words.MaxHeight()
	d := &Dictionary{words: words, config: config}

	if config.EnableStemming {
		d.stems, err = New(config.MaxHeight, CompareStrings, WithLevelChooser[string](config.Chooser))
		if err != nil {
			return nil, err
		}
		for it := words.Iterator(); it.Next(); {
			if stem := Stem(it.Key()); stem != "" {
				if err := d.stems.Insert(stem); err != nil {
					return nil, err
				}
			}
		}
	}

	slog.Info("dictionary snapshot loaded", slog.Int("words", words.Len()), slog.Int("level", words.Level()))
	return d, nil
}
