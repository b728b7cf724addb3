package lexicon

import (
	"cmp"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// CompareOrdered orders any built-in ordered type (ints, floats, strings).
func CompareOrdered[T cmp.Ordered](a, b T) int {
	return cmp.Compare(a, b)
}

// CompareStrings is case-sensitive byte-wise ordering.
func CompareStrings(a, b string) int {
	return strings.Compare(a, b)
}

// CompareFold orders strings after Unicode case folding, so "Ciao", "CIAO" and
// "ciao" are equal. The dictionary uses it for both loading and checking.
//
// Two ASCII strings are compared byte by byte with A-Z lowered in place, which
// gives the same order as comparing their folded forms. Anything else is folded
// with a pooled Caser.
func CompareFold(a, b string) int {
	if a == b {
		return 0
	}
	if c, ok := compareFoldASCII(a, b); ok {
		return c
	}
	return strings.Compare(Fold(a), Fold(b))
}

// compareFoldASCII reports ok=false as soon as it meets a non-ASCII byte.
func compareFoldASCII(a, b string) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := a[i], b[i]
		if ca >= utf8.RuneSelf || cb >= utf8.RuneSelf {
			return 0, false
		}
		ca, cb = lowerASCII(ca), lowerASCII(cb)
		if ca != cb {
			if ca < cb {
				return -1, true
			}
			return 1, true
		}
	}
	// The common prefix matched; the rest of the longer string must be ASCII too.
	rest := a[min(len(a), len(b)):]
	if len(b) > len(a) {
		rest = b[len(a):]
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] >= utf8.RuneSelf {
			return 0, false
		}
	}
	return cmp.Compare(len(a), len(b)), true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// A Caser keeps internal state and is not safe for concurrent use.
var foldPool = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Fold returns the case-folded form of s.
func Fold(s string) string {
	c := foldPool.Get().(*cases.Caser)
	defer foldPool.Put(c)
	return c.String(s)
}
