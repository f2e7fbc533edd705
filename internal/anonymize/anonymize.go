// Package anonymize replaces sensitive cell values with deterministic
// substitutes. Substitutes are stable within one (category, document) pair
// and deliberately diverge for the same value across documents, so merged
// output cannot be correlated back per file.
package anonymize

import (
	"hash/fnv"
	"sort"
	"strconv"
)

// docSalt spreads substitute numbering across documents.
const docSalt = 1000

// Entry is one audited original -> substitute assignment.
type Entry struct {
	Category   string
	Source     string
	Original   string
	Substitute string
}

// Engine holds the append-only substitution maps for one run.
type Engine struct {
	// category -> document -> original -> substitute
	maps map[string]map[string]map[string]string
	// category -> document -> next ordinal
	ordinals map[string]map[string]int
	entries  []Entry
}

func New() *Engine {
	return &Engine{
		maps:     make(map[string]map[string]map[string]string),
		ordinals: make(map[string]map[string]int),
	}
}

// Value returns the substitute for original under (category, prefix, docID),
// assigning a new one on first encounter. Blank originals pass through
// untouched.
func (e *Engine) Value(category, prefix, docID, original string) string {
	if original == "" {
		return original
	}

	byDoc, ok := e.maps[category]
	if !ok {
		byDoc = make(map[string]map[string]string)
		e.maps[category] = byDoc
		e.ordinals[category] = make(map[string]int)
	}
	byVal, ok := byDoc[docID]
	if !ok {
		byVal = make(map[string]string)
		byDoc[docID] = byVal
	}
	if sub, ok := byVal[original]; ok {
		return sub
	}

	e.ordinals[category][docID]++
	ordinal := e.ordinals[category][docID]
	sub := prefix + strconv.Itoa(hashDoc(docID)) + "_" + strconv.Itoa(ordinal)
	byVal[original] = sub
	e.entries = append(e.entries, Entry{
		Category:   category,
		Source:     docID,
		Original:   original,
		Substitute: sub,
	})
	return sub
}

// Count returns the number of assignments made so far.
func (e *Engine) Count() int { return len(e.entries) }

// Export returns the audit table, grouped by category and source document,
// insertion order preserved within each group.
func (e *Engine) Export() []Entry {
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Source < out[j].Source
	})
	return out
}

func hashDoc(docID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(docID))
	return int(h.Sum32() % docSalt)
}
