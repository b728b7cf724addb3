package lexicon

import (
	"math/rand/v2"

	"github.com/taylorza/go-lfsr"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RANDOM LEVEL GENERATION
// ═══════════════════════════════════════════════════════════════════════════════
// THE COIN FLIP ALGORITHM:
// -------------------------
// Start at level 1 and flip a fair coin:
// - Heads: go up one level, flip again
// - Tails: stop
//
//	Level 1: 50%    Level 2: 25%    Level 3: 12.5%    Level 4: 6.25% ...
//
// With N keys, lane i holds about N/2^i of them, which is what gives the
// expected O(log N) search path.
//
// The randomness lives outside the index so tests can swap in a fixed sequence.
// ═══════════════════════════════════════════════════════════════════════════════

// LevelChooser picks the level count for a new node. Results outside
// [1, maxHeight] are clamped by the index.
type LevelChooser interface {
	ChooseLevel(maxHeight int) int
}

// LevelChooserFunc adapts a plain function to LevelChooser.
type LevelChooserFunc func(maxHeight int) int

// ChooseLevel calls f(maxHeight).
func (f LevelChooserFunc) ChooseLevel(maxHeight int) int {
	return f(maxHeight)
}

// clampLevel forces level into [1, maxHeight].
func clampLevel(level, maxHeight int) int {
	if level < 1 {
		return 1
	}
	if level > maxHeight {
		return maxHeight
	}
	return level
}

// flipLevels runs the coin flip loop against any source of fair coins.
func flipLevels(maxHeight int, heads func() bool) int {
	level := 1
	for level < maxHeight && heads() {
		level++
	}
	return level
}

type randomChooser struct{}

// NewRandomLevelChooser returns the default chooser. It draws from the
// process-seeded math/rand/v2 source and is safe for concurrent use.
func NewRandomLevelChooser() LevelChooser {
	return randomChooser{}
}

func (randomChooser) ChooseLevel(maxHeight int) int {
	return flipLevels(maxHeight, func() bool {
		return rand.Float64() < 0.5
	})
}

// seededChooser draws coins from a 32-bit linear feedback shift register, so
// the same seed always produces the same tower shapes.
type seededChooser struct {
	gen interface{ Next() (uint32, bool) }
}

// NewSeededLevelChooser returns a reproducible chooser. A zero seed would lock
// the register at zero, so it is replaced with 1. Not safe for concurrent use.
func NewSeededLevelChooser(seed uint32) LevelChooser {
	if seed == 0 {
		seed = 1
	}
	return &seededChooser{gen: lfsr.NewLfsr32(seed)}
}

func (c *seededChooser) ChooseLevel(maxHeight int) int {
	return flipLevels(maxHeight, func() bool {
		v, _ := c.gen.Next()
		return v&1 == 1
	})
}

// fixedChooser replays a fixed sequence of levels, cycling when it runs out.
type fixedChooser struct {
	levels []int
	pos    int
}

// FixedLevels returns a chooser that replays levels in order, wrapping around.
// With no levels it always answers 1, which degenerates the index into a single
// sorted linked list.
func FixedLevels(levels ...int) LevelChooser {
	if len(levels) == 0 {
		levels = []int{1}
	}
	return &fixedChooser{levels: append([]int(nil), levels...)}
}

func (c *fixedChooser) ChooseLevel(maxHeight int) int {
	level := c.levels[c.pos%len(c.levels)]
	c.pos++
	return level
}
