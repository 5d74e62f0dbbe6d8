package extractor

// Heuristics holds the tuning knobs of the structured search. The defaults
// match the current markup of the source site and are expected to drift.
type Heuristics struct {
	// A cache region is character-array encoded when it has more than
	// MinCharArrayEntries digit-keyed members, each at most MaxFragmentLen long.
	MinCharArrayEntries int
	MaxFragmentLen      int

	// MaxDepth bounds the listing search; nodes deeper than this are skipped.
	MaxDepth int
	// MinKeys is the fewest direct keys a candidate object may have.
	MinKeys int
	// MaxImageDepth bounds the image scan inside one candidate.
	MaxImageDepth int

	DomainWords      []string
	TransactionWords []string
	CollectionWords  []string
}

func DefaultHeuristics() Heuristics {
	return Heuristics{
		MinCharArrayEntries: 100,
		MaxFragmentLen:      2,
		MaxDepth:            10,
		MinKeys:             3,
		MaxImageDepth:       5,
		DomainWords:         []string{"apartment", "villa", "bedroom", "bathroom", "property"},
		TransactionWords:    []string{"price", "cost", "$", "dollar", "sold", "available", "reserved", "status"},
		CollectionWords:     []string{"property", "listing", "unit", "apartment", "villa", "available"},
	}
}

// withDefaults fills zero-valued knobs so a partially configured Heuristics
// still behaves.
func (h Heuristics) withDefaults() Heuristics {
	d := DefaultHeuristics()
	if h.MinCharArrayEntries <= 0 {
		h.MinCharArrayEntries = d.MinCharArrayEntries
	}
	if h.MaxFragmentLen <= 0 {
		h.MaxFragmentLen = d.MaxFragmentLen
	}
	if h.MaxDepth <= 0 {
		h.MaxDepth = d.MaxDepth
	}
	if h.MinKeys <= 0 {
		h.MinKeys = d.MinKeys
	}
	if h.MaxImageDepth <= 0 {
		h.MaxImageDepth = d.MaxImageDepth
	}
	if len(h.DomainWords) == 0 {
		h.DomainWords = d.DomainWords
	}
	if len(h.TransactionWords) == 0 {
		h.TransactionWords = d.TransactionWords
	}
	if len(h.CollectionWords) == 0 {
		h.CollectionWords = d.CollectionWords
	}
	return h
}
