package source

import (
	"fmt"

	"fortio.org/safecast"
)

// StringID is an interned piece of text; NoStringID is the empty string.
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings shared by every module of one compilation.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern возвращает ID строки, добавляя её при первом обращении.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// копия, чтобы не держать исходный буфер файла
	cpy := string([]byte(s))
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	id := StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Find returns the id of s without interning it.
func (i *Interner) Find(s string) (StringID, bool) {
	id, ok := i.index[s]
	return id, ok
}

func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an id this interner never produced.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("invalid string ID %d", id))
	}
	return s
}

func (i *Interner) Len() int {
	return len(i.byID)
}
