package extractor

import (
	"strconv"
	"strings"

	"villagefeed/jsonv"
)

// Candidate is a subtree that looks like a listing but has not been
// validated yet.
type Candidate struct {
	Value *jsonv.Value
	Path  string
	Depth int
}

// Search walks node depth first and returns every object that looks like a
// listing, in walk order. Nodes deeper than h.MaxDepth are never visited.
func Search(node *jsonv.Value, h Heuristics) []Candidate {
	s := &searcher{
		h:    h.withDefaults(),
		seen: make(map[*jsonv.Value]bool),
	}
	s.walk(node, "", 0)
	return s.out
}

type searcher struct {
	h    Heuristics
	seen map[*jsonv.Value]bool
	out  []Candidate
}

func (s *searcher) add(v *jsonv.Value, path string, depth int) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.out = append(s.out, Candidate{Value: v, Path: path, Depth: depth})
}

func (s *searcher) walk(v *jsonv.Value, path string, depth int) {
	if v == nil || depth > s.h.MaxDepth {
		return
	}

	switch v.Kind {
	case jsonv.Array:
		for i, item := range v.Items {
			s.walk(item, indexPath(path, i), depth+1)
		}
	case jsonv.Object:
		if LooksLikeListing(v, s.h) {
			s.add(v, path, depth)
		}
		for _, m := range v.Members {
			child := keyPath(path, m.Key)
			// Arrays under collection-like keys are taken as candidates
			// directly; the validity gate filters the noise.
			if m.Value.IsArray() && IsCollectionKey(m.Key, s.h) && depth+2 <= s.h.MaxDepth {
				for i, item := range m.Value.Items {
					if item.IsObject() && len(item.Members) >= s.h.MinKeys {
						s.add(item, indexPath(child, i), depth+2)
					}
				}
			}
			s.walk(m.Value, child, depth+1)
		}
	}
}

// LooksLikeListing is the cheap classifier: enough direct keys, plus the
// serialized subtree mentions both a domain word and a transaction word.
func LooksLikeListing(v *jsonv.Value, h Heuristics) bool {
	h = h.withDefaults()
	if !v.IsObject() || len(v.Members) < h.MinKeys {
		return false
	}
	text := serializedLower(v)
	return containsAny(text, h.DomainWords) && containsAny(text, h.TransactionWords)
}

// IsCollectionKey reports whether a key name suggests it holds listings.
func IsCollectionKey(key string, h Heuristics) bool {
	h = h.withDefaults()
	return containsAny(strings.ToLower(key), h.CollectionWords)
}

// serializedLower is the whole-subtree text every substring heuristic
// matches against.
func serializedLower(v *jsonv.Value) string {
	return strings.ToLower(v.Text())
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func keyPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
