// Package idalloc finds the smallest free UID/GID in a configured range,
// per SPEC_FULL.md §4.4. Allocation is a pure scan — there is no
// reservation state to compensate on rollback, since the next scan simply
// sees the id as free again.
package idalloc

import (
	"github.com/o1-security/gumd/pkg/errs"
)

// Range is an inclusive [Min, Max] id range, distinguishing system vs.
// normal account types.
type Range struct {
	Min uint32
	Max uint32
}

// Allocate returns the smallest free id in r that is not present in used.
// If preferred is non-nil and free and in range, it is honored instead of
// the smallest-free search.
func Allocate(r Range, used map[uint32]struct{}, preferred *uint32) (uint32, error) {
	if preferred != nil {
		id := *preferred
		if id >= r.Min && id <= r.Max {
			if _, taken := used[id]; !taken {
				return id, nil
			}
		}
	}
	for id := r.Min; id <= r.Max; id++ {
		if _, taken := used[id]; !taken {
			return id, nil
		}
		if id == r.Max {
			break // avoid wrapping if Max is the type's maximum value
		}
	}
	return 0, errs.IDSpaceExhausted(r.Min, r.Max)
}
