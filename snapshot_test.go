package lexicon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func encodeInt(v int) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, uint64(v)), nil
}

func decodeInt(data []byte) (int, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("int key of %d bytes", len(data))
	}
	return int(binary.LittleEndian.Uint64(data)), nil
}

func encodeString(s string) ([]byte, error) { return []byte(s), nil }

func decodeString(data []byte) (string, error) { return string(data), nil }

func encodeIndex(t *testing.T, s *SkipIndex[int]) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := s.Encode(&buf, encodeInt); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return buf.Bytes()
}

// rawNode is a node as laid out in a snapshot: links are 1-based node numbers.
type rawNode struct {
	key   string
	links []uint32
}

// rawSnapshot assembles a string-keyed snapshot field by field, so tests can
// describe broken structures directly.
func rawSnapshot(maxHeight, level uint32, nodes []rawNode, heads []uint32) []byte {
	var buf bytes.Buffer
	write := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	write(indexMagic)
	write(uint16(snapshotVersion))
	write(maxHeight)
	write(level)
	write(uint32(len(nodes)))
	for _, n := range nodes {
		write(uint32(len(n.key)))
		buf.WriteString(n.key)
		write(uint16(len(n.links)))
		for _, link := range n.links {
			write(link)
		}
	}
	for _, head := range heads {
		write(head)
	}
	return buf.Bytes()
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

// ═══════════════════════════════════════════════════════════════════════════════
// ROUND TRIP TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestSnapshot_RoundTripPreservesTowers(t *testing.T) {
	s := mustNew(t, 8, CompareOrdered[int], WithLevelChooser[int](NewSeededLevelChooser(7)))
	for i := 0; i < 500; i++ {
		if err := s.Insert((i * 37) % 211); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	decoded, err := DecodeSkipIndex(bytes.NewReader(encodeIndex(t, s)), CompareOrdered[int], decodeInt)
	if err != nil {
		t.Fatalf("DecodeSkipIndex() error = %v", err)
	}

	if decoded.Len() != s.Len() || decoded.Level() != s.Level() || decoded.MaxHeight() != s.MaxHeight() {
		t.Fatalf("decoded Len/Level/MaxHeight = %d/%d/%d, want %d/%d/%d",
			decoded.Len(), decoded.Level(), decoded.MaxHeight(), s.Len(), s.Level(), s.MaxHeight())
	}
	for lane := 0; lane < s.MaxHeight(); lane++ {
		want, got := laneKeys(s, lane), laneKeys(decoded, lane)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("lane %d = %v, want %v", lane, got, want)
		}
	}

	for _, key := range []int{0, 37, 210} {
		if !decoded.Contains(key) {
			t.Errorf("Contains(%d) = false after decode", key)
		}
	}
	if decoded.Contains(211) {
		t.Error("Contains(211) = true, want false")
	}
}

func TestSnapshot_DecodedIndexAcceptsInserts(t *testing.T) {
	s := mustNew(t, 4, CompareStrings, WithLevelChooser[string](FixedLevels(1, 3, 2)))
	for _, w := range []string{"delta", "alpha", "charlie"} {
		s.Insert(w)
	}

	var buf bytes.Buffer
	if err := s.Encode(&buf, encodeString); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := DecodeSkipIndex(&buf, CompareStrings, decodeString, WithLevelChooser[string](FixedLevels(4)))
	if err != nil {
		t.Fatalf("DecodeSkipIndex() error = %v", err)
	}

	if err := decoded.Insert("bravo"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if decoded.Level() != 4 {
		t.Errorf("Level() = %d, want 4", decoded.Level())
	}
	if got := strings.Join(laneKeys(decoded, 0), ","); got != "alpha,bravo,charlie,delta" {
		t.Errorf("lane 0 = %s, want alpha,bravo,charlie,delta", got)
	}
	checkLanes(t, decoded)
}

func TestSnapshot_Empty(t *testing.T) {
	s := mustNew(t, 3, CompareOrdered[int])

	decoded, err := DecodeSkipIndex(bytes.NewReader(encodeIndex(t, s)), CompareOrdered[int], decodeInt)
	if err != nil {
		t.Fatalf("DecodeSkipIndex() error = %v", err)
	}
	if decoded.Len() != 0 || decoded.Level() != 0 || decoded.MaxHeight() != 3 {
		t.Errorf("decoded Len/Level/MaxHeight = %d/%d/%d, want 0/0/3",
			decoded.Len(), decoded.Level(), decoded.MaxHeight())
	}
}

func TestSnapshot_EncodeErrors(t *testing.T) {
	t.Run("Destroyed", func(t *testing.T) {
		s := mustNew(t, 3, CompareOrdered[int])
		s.Insert(1)
		s.Destroy()

		if err := s.Encode(&bytes.Buffer{}, encodeInt); !errors.Is(err, ErrDestroyed) {
			t.Errorf("Encode() error = %v, want %v", err, ErrDestroyed)
		}
	})

	t.Run("Key encoder", func(t *testing.T) {
		s := mustNew(t, 3, CompareOrdered[int])
		s.Insert(1)
		bad := errors.New("bad key")

		err := s.Encode(&bytes.Buffer{}, func(int) ([]byte, error) { return nil, bad })
		if !errors.Is(err, bad) {
			t.Errorf("Encode() error = %v, want %v", err, bad)
		}
	})

	t.Run("Writer", func(t *testing.T) {
		s := mustNew(t, 3, CompareOrdered[int])
		s.Insert(1)
		disk := errors.New("disk full")

		if err := s.Encode(failingWriter{disk}, encodeInt); !errors.Is(err, disk) {
			t.Errorf("Encode() error = %v, want %v", err, disk)
		}
	})
}

func TestSnapshot_HeightLimit(t *testing.T) {
	tallest := mustNew(t, MaxSnapshotHeight, CompareOrdered[int], WithLevelChooser[int](FixedLevels(MaxSnapshotHeight)))
	tallest.Insert(1)

	decoded, err := DecodeSkipIndex(bytes.NewReader(encodeIndex(t, tallest)), CompareOrdered[int], decodeInt)
	if err != nil {
		t.Fatalf("DecodeSkipIndex() error = %v", err)
	}
	if decoded.MaxHeight() != MaxSnapshotHeight || decoded.Level() != MaxSnapshotHeight {
		t.Errorf("decoded MaxHeight/Level = %d/%d, want %d/%d",
			decoded.MaxHeight(), decoded.Level(), MaxSnapshotHeight, MaxSnapshotHeight)
	}

	tooTall := mustNew(t, MaxSnapshotHeight+1, CompareOrdered[int])
	tooTall.Insert(1)

	var buf bytes.Buffer
	if err := tooTall.Encode(&buf, encodeInt); !errors.Is(err, ErrInvalidHeight) {
		t.Errorf("Encode() error = %v, want %v", err, ErrInvalidHeight)
	}
	if buf.Len() != 0 {
		t.Errorf("Encode() wrote %d bytes before failing, want 0", buf.Len())
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// CORRUPTION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestDecodeSkipIndex_RawSnapshot(t *testing.T) {
	data := rawSnapshot(2, 2, []rawNode{
		{"a", []uint32{2, 2}},
		{"b", []uint32{0, 0}},
	}, []uint32{1, 1})

	s, err := DecodeSkipIndex(bytes.NewReader(data), CompareStrings, decodeString)
	if err != nil {
		t.Fatalf("DecodeSkipIndex() error = %v", err)
	}
	if got := strings.Join(laneKeys(s, 1), ","); got != "a,b" {
		t.Errorf("lane 1 = %s, want a,b", got)
	}
}

func TestDecodeSkipIndex_Corrupt(t *testing.T) {
	valid := rawSnapshot(2, 2, []rawNode{
		{"a", []uint32{2, 2}},
		{"b", []uint32{0, 0}},
	}, []uint32{1, 1})

	badMagic := bytes.Clone(valid)
	badMagic[0] = 'X'

	badVersion := bytes.Clone(valid)
	badVersion[4] = 9

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty input", nil},
		{"Bad magic", badMagic},
		{"Bad version", badVersion},
		{"Truncated", valid[:len(valid)-3]},
		{"Zero max height", rawSnapshot(0, 0, nil, nil)},
		{"Huge max height", rawSnapshot(MaxSnapshotHeight+1, 0, nil, nil)},
		{"Level above max height", rawSnapshot(2, 3, nil, []uint32{0, 0})},
		{"Level below tallest node", rawSnapshot(2, 1, []rawNode{
			{"a", []uint32{2, 2}},
			{"b", []uint32{0, 0}},
		}, []uint32{1, 1})},
		{"Zero height node", rawSnapshot(2, 0, []rawNode{{"a", nil}}, []uint32{1, 0})},
		{"Link past last node", rawSnapshot(2, 1, []rawNode{{"a", []uint32{5}}}, []uint32{1, 0})},
		{"Keys out of order", rawSnapshot(2, 1, []rawNode{
			{"b", []uint32{2}},
			{"a", []uint32{0}},
		}, []uint32{1, 0})},
		{"Self loop", rawSnapshot(2, 1, []rawNode{{"a", []uint32{1}}}, []uint32{1, 0})},
		{"Lane 0 skips a node", rawSnapshot(2, 1, []rawNode{
			{"a", []uint32{3}},
			{"b", []uint32{0}},
			{"c", []uint32{0}},
		}, []uint32{1, 0})},
		{"Short node on upper lane", rawSnapshot(2, 2, []rawNode{
			{"a", []uint32{2}},
			{"b", []uint32{0, 0}},
		}, []uint32{1, 1})},
		{"Tall node missing from upper lane", rawSnapshot(2, 2, []rawNode{
			{"a", []uint32{2, 0}},
			{"b", []uint32{0, 0}},
		}, []uint32{1, 1})},
		{"Unreachable node", rawSnapshot(2, 1, []rawNode{
			{"a", []uint32{0}},
			{"b", []uint32{0}},
		}, []uint32{1, 0})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSkipIndex(bytes.NewReader(tt.data), CompareStrings, decodeString)
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("DecodeSkipIndex() error = %v, want %v", err, ErrCorruptSnapshot)
			}
		})
	}
}

func TestDecodeSkipIndex_KeyDecoderError(t *testing.T) {
	data := rawSnapshot(1, 1, []rawNode{{"abc", []uint32{0}}}, []uint32{1})

	_, err := DecodeSkipIndex(bytes.NewReader(data), CompareOrdered[int], decodeInt)
	if err == nil || errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("DecodeSkipIndex() error = %v, want key decoding error", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// DICTIONARY SNAPSHOT TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestDictionary_SaveAndLoad(t *testing.T) {
	d := newTestDictionary(t, DefaultDictionaryConfig(), "ciao", "Hello", "mondo", "run", "hola")

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	config := DefaultDictionaryConfig()
	config.MaxHeight = 4
	config.EnableStemming = true
	loaded, err := LoadDictionary(&buf, config)
	if err != nil {
		t.Fatalf("LoadDictionary() error = %v", err)
	}

	if loaded.Len() != 5 {
		t.Errorf("Len() = %d, want 5", loaded.Len())
	}
	if loaded.config.MaxHeight != DefaultMaxHeight {
		t.Errorf("MaxHeight = %d, want the snapshot's %d", loaded.config.MaxHeight, DefaultMaxHeight)
	}
	if got, found := loaded.Lookup("HELLO"); !found || got != "Hello" {
		t.Errorf("Lookup(HELLO) = (%q, %v), want (Hello, true)", got, found)
	}
	if !loaded.Contains("running") {
		t.Error("Contains(running) = false, want true through the rebuilt stems")
	}
	if loaded.Contains("mundo") {
		t.Error("Contains(mundo) = true, want false")
	}

	if err := loaded.Add("world"); err != nil {
		t.Fatalf("Add() after load error = %v", err)
	}
	if !loaded.Contains("World") {
		t.Error("Contains(World) = false after Add")
	}
}

func TestDictionary_Save_TooTall(t *testing.T) {
	d, err := NewDictionary(DictionaryConfig{MaxHeight: 2000})
	if err != nil {
		t.Fatalf("NewDictionary() error = %v", err)
	}
	d.Add("ciao")

	var buf bytes.Buffer
	if err := d.Save(&buf); !errors.Is(err, ErrInvalidHeight) {
		t.Fatalf("Save() error = %v, want %v", err, ErrInvalidHeight)
	}
	if buf.Len() != 0 {
		t.Errorf("Save() wrote %d bytes before failing, want 0", buf.Len())
	}
}

func TestLoadDictionary_Errors(t *testing.T) {
	index := mustNew(t, 2, CompareStrings)
	index.Insert("a")
	var indexOnly bytes.Buffer
	if err := index.Encode(&indexOnly, encodeString); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty input", nil},
		{"Index without dictionary header", indexOnly.Bytes()},
		{"Header only", dictionaryMagic[:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDictionary(bytes.NewReader(tt.data), DefaultDictionaryConfig())
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("LoadDictionary() error = %v, want %v", err, ErrCorruptSnapshot)
			}
		})
	}
}

func TestLoadDictionary_EmptyWord(t *testing.T) {
	data := append(dictionaryMagic[:], rawSnapshot(1, 1, []rawNode{{"", []uint32{0}}}, []uint32{1})...)

	_, err := LoadDictionary(bytes.NewReader(data), DefaultDictionaryConfig())
	if !errors.Is(err, ErrEmptyWord) {
		t.Errorf("LoadDictionary() error = %v, want %v", err, ErrEmptyWord)
	}
}
