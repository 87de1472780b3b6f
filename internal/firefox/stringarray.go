package firefox

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
)

var ErrStringIndexOutOfRange = fmt.Errorf("%w: string index out of range", errorutil.ErrDataIntegrity)

// UniqueStringArray interns strings into a dense index space, in insertion
// order. Indexes are never reused nor evicted.
type UniqueStringArray struct {
	strings []string
	indexes map[string]int
}

func NewUniqueStringArray(strings ...string) *UniqueStringArray {
	a := &UniqueStringArray{
		strings: make([]string, 0, len(strings)),
		indexes: make(map[string]int, len(strings)),
	}
	for _, s := range strings {
		a.IndexForString(s)
	}
	return a
}

// IndexForString returns the index of s, adding it if it was never seen.
func (a *UniqueStringArray) IndexForString(s string) int {
	if i, ok := a.indexes[s]; ok {
		return i
	}
	i := len(a.strings)
	a.strings = append(a.strings, s)
	a.indexes[s] = i
	return i
}

func (a *UniqueStringArray) GetString(i int) (string, error) {
	if !a.HasIndex(i) {
		return "", fmt.Errorf("%w: %d", ErrStringIndexOutOfRange, i)
	}
	return a.strings[i], nil
}

// GetStringOr returns the string at index i, or fallback with a warning if
// the index is out of range.
func (a *UniqueStringArray) GetStringOr(i int, fallback string) string {
	s, err := a.GetString(i)
	if err != nil {
		log.Warn().Err(err).Int("index", i).Msg("string index not in string array")
		return fallback
	}
	return s
}

func (a *UniqueStringArray) HasIndex(i int) bool {
	return i >= 0 && i < len(a.strings)
}

func (a *UniqueStringArray) HasString(s string) bool {
	_, ok := a.indexes[s]
	return ok
}

func (a *UniqueStringArray) Len() int {
	return len(a.strings)
}

// Strings returns a copy of the interned strings, ordered by index.
func (a *UniqueStringArray) Strings() []string {
	s := make([]string, len(a.strings))
	copy(s, a.strings)
	return s
}
