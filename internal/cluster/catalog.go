package cluster

// Entry is one distinct message shape. Entries never change after they are
// registered; Index is their identity everywhere else.
type Entry struct {
	Index  int
	Tokens []string
	Hash   uint64
}

// Text renders the entry's tokens separated by single spaces.
func (e Entry) Text() string {
	return Join(e.Tokens)
}

// Catalog is the append-only registry of message shapes in discovery order.
type Catalog struct {
	entries []Entry
	byHash  map[uint64][]int
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byHash: make(map[uint64][]int),
	}
}

// Register appends tokens as a new entry and returns its index, which is
// the catalog size before insertion. The token slice is copied.
func (c *Catalog) Register(tokens []string) int {
	owned := make([]string, len(tokens))
	copy(owned, tokens)

	idx := len(c.entries)
	h := Hash(owned)
	c.entries = append(c.entries, Entry{
		Index:  idx,
		Tokens: owned,
		Hash:   h,
	})
	c.byHash[h] = append(c.byHash[h], idx)

	return idx
}

// Entry returns the entry at index i.
func (c *Catalog) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Len returns the number of registered entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in registration order. The returned slice
// must not be modified.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// findExact returns the first entry, in registration order, whose hash is h
// and whose tokens equal tokens.
func (c *Catalog) findExact(tokens []string, h uint64) (int, bool) {
	for _, idx := range c.byHash[h] {
		if Equal(c.entries[idx].Tokens, tokens) {
			return idx, true
		}
	}
	return 0, false
}
