package internal

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Selector is a parsed bracket directive over a variation pool.
type Selector struct {
	// Terms are applied in order; their results concatenate
	Terms []SelectorTerm
	// Weight is the loop-nesting weight attached by a $W suffix
	Weight int
	// HasWeight is true when the selector carried an explicit weight
	HasWeight bool
}

// SelectorTerm is one comma-separated term of a selector.
type SelectorTerm struct {
	Type  TermType
	Key   string
	Index int
	Start int
	End   int
	Count int
	// Raw is the original term text, kept for error reporting
	Raw string
}

// SelectorError represents a selector parse or resolution failure.
type SelectorError struct {
	Message string
	Term    string
	Cause   error
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	if e.Term != "" {
		return e.Message + ": " + e.Term
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *SelectorError) Unwrap() error {
	return e.Cause
}

// ParseSelector parses raw selector text into terms and an optional weight.
// An empty string selects everything with the default weight.
func ParseSelector(raw string) (*Selector, error) {
	sel := &Selector{Weight: DefaultWeight}
	raw = strings.TrimSpace(raw)

	// The $W suffix weights the placeholder as a whole.
	if idx := strings.LastIndex(raw, WeightMark); idx != -1 {
		suffix := strings.TrimSpace(raw[idx+1:])
		weight, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, &SelectorError{Message: ErrMsgBadWeightSuffix, Term: raw[idx:], Cause: err}
		}
		sel.Weight = weight
		sel.HasWeight = true
		raw = strings.TrimSpace(raw[:idx])
	}

	for _, part := range strings.Split(raw, TermSeparator) {
		term, err := parseTerm(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		sel.Terms = append(sel.Terms, term)
	}

	return sel, nil
}

// parseTerm interprets a single selector term.
func parseTerm(raw string) (SelectorTerm, error) {
	term := SelectorTerm{Raw: raw}

	switch {
	case raw == "" || raw == SelectorAll:
		term.Type = TermAll

	case strings.HasPrefix(raw, RangePrefix):
		bounds := strings.SplitN(raw[len(RangePrefix):], RangeSeparator, 2)
		if len(bounds) != 2 {
			return term, &SelectorError{Message: ErrMsgBadRangeTerm, Term: raw}
		}
		start, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err1 != nil || err2 != nil || end < start {
			return term, &SelectorError{Message: ErrMsgBadRangeTerm, Term: raw}
		}
		term.Type = TermRange
		term.Start = start
		term.End = end

	case strings.HasPrefix(raw, RandomPrefix):
		count, err := strconv.Atoi(strings.TrimSpace(raw[len(RandomPrefix):]))
		if err != nil || count <= 0 {
			return term, &SelectorError{Message: ErrMsgBadRandomTerm, Term: raw, Cause: err}
		}
		term.Type = TermRandom
		term.Count = count

	default:
		if index, err := strconv.Atoi(raw); err == nil {
			term.Type = TermIndex
			term.Index = index
		} else {
			term.Type = TermKey
			term.Key = raw
		}
	}

	return term, nil
}

// ApplyConfig controls selector evaluation.
type ApplyConfig struct {
	// IndexBase is the base of numeric index terms (0 or 1)
	IndexBase int
	// Strict makes missing keys and out-of-range indices fatal; otherwise
	// the offending term is skipped
	Strict bool
	// AllowDuplicates disables the final first-occurrence dedup and lets
	// random terms re-draw already selected keys
	AllowDuplicates bool
	// Rand is the resolution-scoped random source for random terms.
	// When nil a time-seeded source is created per call.
	Rand *rand.Rand
}

// Apply evaluates the selector over pool keys in their pool order and
// returns the selected keys in application order. Random terms sample
// without replacement from keys not already selected and degrade to
// whatever remains when the pool runs short.
func (s *Selector) Apply(keys []string, cfg ApplyConfig) ([]string, error) {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	keyIndex := make(map[string]int, len(keys))
	for i, k := range keys {
		if _, ok := keyIndex[k]; !ok {
			keyIndex[k] = i
		}
	}

	var selected []string
	selectedSet := make(map[string]bool, len(keys))
	add := func(k string) {
		selected = append(selected, k)
		selectedSet[k] = true
	}

	for _, term := range s.Terms {
		switch term.Type {
		case TermAll:
			for _, k := range keys {
				add(k)
			}

		case TermKey:
			if _, ok := keyIndex[term.Key]; !ok {
				if cfg.Strict {
					return nil, &SelectorError{Message: ErrMsgUnknownKey, Term: term.Raw}
				}
				continue
			}
			add(term.Key)

		case TermIndex:
			idx := term.Index - cfg.IndexBase
			if idx < 0 || idx >= len(keys) {
				if cfg.Strict {
					return nil, &SelectorError{Message: ErrMsgIndexOutOfRange, Term: term.Raw}
				}
				continue
			}
			add(keys[idx])

		case TermRange:
			for i := term.Start; i <= term.End; i++ {
				idx := i - cfg.IndexBase
				if idx < 0 || idx >= len(keys) {
					if cfg.Strict {
						return nil, &SelectorError{Message: ErrMsgRangeOutOfRange, Term: term.Raw}
					}
					continue
				}
				add(keys[idx])
			}

		case TermRandom:
			pool := make([]string, 0, len(keys))
			for _, k := range keys {
				if cfg.AllowDuplicates || !selectedSet[k] {
					pool = append(pool, k)
				}
			}
			count := term.Count
			if count > len(pool) {
				count = len(pool)
			}
			perm := rng.Perm(len(pool))
			for i := 0; i < count; i++ {
				add(pool[perm[i]])
			}
		}
	}

	if !cfg.AllowDuplicates {
		selected = dedupeKeys(selected)
	}
	return selected, nil
}

// dedupeKeys removes duplicate keys preserving first-occurrence order.
func dedupeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
