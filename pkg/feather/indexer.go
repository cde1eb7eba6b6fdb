package feather

// indexer hands out positional slots to variable names in first-seen order.
// Each section body gets its own indexer, so slot n of a section refers to
// element n of a list bound by that section.
type indexer struct {
	slots map[string]int
	names []string
}

func newIndexer() *indexer {
	return &indexer{slots: map[string]int{}}
}

// indexFor returns the slot for name, assigning the next free one on miss.
func (x *indexer) indexFor(name string) int {
	if i, ok := x.slots[name]; ok {
		return i
	}
	i := len(x.names)
	x.slots[name] = i
	x.names = append(x.names, name)
	return i
}

// Names returns the indexed names in slot order.
func (x *indexer) Names() []string {
	out := make([]string, len(x.names))
	copy(out, x.names)
	return out
}
