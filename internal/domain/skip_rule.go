package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SkipRule is a predicate over the index of a period instance.
//
// Accepted forms:
//
//	none | ""            never skip
//	even                 skip even indexes
//	odd                  skip odd indexes
//	every N [offset K]   keep only indexes where (index-K) mod N == 0
//	in I,J,...           skip the listed indexes
type SkipRule struct {
	kind   string
	every  int
	offset int
	in     map[int]bool
}

// ParseSkipRule parses the textual rule stored on a template
func ParseSkipRule(s string) (SkipRule, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) == 0 {
		return SkipRule{kind: "none"}, nil
	}

	switch fields[0] {
	case "none", "even", "odd":
		if len(fields) != 1 {
			return SkipRule{}, fmt.Errorf("invalid skip rule %q", s)
		}
		return SkipRule{kind: fields[0]}, nil

	case "every":
		if len(fields) != 2 && len(fields) != 4 {
			return SkipRule{}, fmt.Errorf("invalid skip rule %q: expected every N [offset K]", s)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return SkipRule{}, fmt.Errorf("invalid skip rule %q: N must be a positive integer", s)
		}
		rule := SkipRule{kind: "every", every: n}
		if len(fields) == 4 {
			if fields[2] != "offset" {
				return SkipRule{}, fmt.Errorf("invalid skip rule %q: expected offset", s)
			}
			k, err := strconv.Atoi(fields[3])
			if err != nil || k < 0 {
				return SkipRule{}, fmt.Errorf("invalid skip rule %q: offset must be a non-negative integer", s)
			}
			rule.offset = k
		}
		return rule, nil

	case "in":
		list := strings.Join(fields[1:], "")
		if list == "" {
			return SkipRule{}, fmt.Errorf("invalid skip rule %q: empty index list", s)
		}
		rule := SkipRule{kind: "in", in: map[int]bool{}}
		for _, part := range strings.Split(list, ",") {
			n, err := strconv.Atoi(part)
			if err != nil {
				return SkipRule{}, fmt.Errorf("invalid skip rule %q: bad index %q", s, part)
			}
			rule.in[n] = true
		}
		return rule, nil
	}

	return SkipRule{}, fmt.Errorf("invalid skip rule %q", s)
}

// Skips reports whether generation is suppressed for the instance
func (r SkipRule) Skips(inst PeriodInstance) bool {
	idx := inst.Index
	switch r.kind {
	case "even":
		return idx%2 == 0
	case "odd":
		return idx%2 != 0
	case "every":
		return ((idx-r.offset)%r.every+r.every)%r.every != 0
	case "in":
		return r.in[idx]
	default:
		return false
	}
}
