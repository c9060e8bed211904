package pruning

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/skipbench/skipbench/internal/layout"
)

// Both sentinels surface configuration bugs before any filesystem walk or
// engine call happens.
var (
	// ErrInvalidPredicateKey marks a predicate naming a key that is not one
	// of the table's partition keys.
	ErrInvalidPredicateKey = errors.New("predicate references unknown partition key")

	// ErrInvalidPredicate marks a predicate that cannot be enumerated: a
	// range over a string key, a non-integer value for an int key, or a key
	// constrained twice within one set.
	ErrInvalidPredicate = errors.New("invalid predicate")
)

// Op is the constraint form a predicate puts on one partition key.
type Op int

const (
	// OpEquals matches exactly one value.
	OpEquals Op = iota
	// OpIn matches any value from an inclusive set.
	OpIn
	// OpBetween matches every discrete value in a closed integer range.
	OpBetween
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "equals"
	case OpIn:
		return "in"
	case OpBetween:
		return "between"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Predicate is a constraint on a single partition key. Predicates are built
// once per benchmark definition and never mutated.
type Predicate struct {
	Key    string
	Op     Op
	Values []string // OpEquals (exactly one) and OpIn
	Low    int      // OpBetween, inclusive
	High   int      // OpBetween, inclusive
}

// Equals constrains key to exactly one value.
func Equals(key, value string) Predicate {
	return Predicate{Key: key, Op: OpEquals, Values: []string{value}}
}

// In constrains key to an inclusive set of values.
func In(key string, values ...string) Predicate {
	return Predicate{Key: key, Op: OpIn, Values: values}
}

// Between constrains key to the closed integer range [low, high]. An
// inverted range is legal and matches nothing.
func Between(key string, low, high int) Predicate {
	return Predicate{Key: key, Op: OpBetween, Low: low, High: high}
}

// Candidates enumerates the concrete directory values satisfying the
// predicate, canonicalized for exact comparison against directory names.
// Duplicate values collapse to one candidate so nothing is counted twice.
func (p Predicate) Candidates(key layout.Key) ([]string, error) {
	switch p.Op {
	case OpEquals, OpIn:
		if p.Op == OpEquals && len(p.Values) != 1 {
			return nil, fmt.Errorf("pruning: equality on key %q needs exactly one value: %w", p.Key, ErrInvalidPredicate)
		}
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("pruning: set predicate on key %q has no values: %w", p.Key, ErrInvalidPredicate)
		}
		seen := make(map[string]bool, len(p.Values))
		out := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			cv, err := layout.CanonicalValue(key, v)
			if err != nil {
				return nil, fmt.Errorf("pruning: key %q: %v: %w", p.Key, err, ErrInvalidPredicate)
			}
			if seen[cv] {
				continue
			}
			seen[cv] = true
			out = append(out, cv)
		}
		return out, nil
	case OpBetween:
		if key.Kind != layout.KindInt {
			return nil, fmt.Errorf("pruning: range on key %q requires an enumerable integer domain: %w", p.Key, ErrInvalidPredicate)
		}
		var out []string
		for v := p.Low; v <= p.High; v++ {
			out = append(out, strconv.Itoa(v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("pruning: unknown operation %v on key %q: %w", p.Op, p.Key, ErrInvalidPredicate)
}

// Set is a conjunction of predicates over distinct partition keys.
type Set []Predicate

// ByKey returns the predicate constraining the named key, if any.
func (s Set) ByKey(name string) (Predicate, bool) {
	for _, p := range s {
		if p.Key == name {
			return p, true
		}
	}
	return Predicate{}, false
}

// Validate fails fast on configuration bugs: a predicate for a key the
// table does not partition by, or two predicates over the same key.
func (s Set) Validate(t layout.Table) error {
	seen := make(map[string]bool, len(s))
	for _, p := range s {
		if t.KeyIndex(p.Key) < 0 {
			return fmt.Errorf("pruning: table %q has no partition key %q: %w", t.Name, p.Key, ErrInvalidPredicateKey)
		}
		if seen[p.Key] {
			return fmt.Errorf("pruning: table %q key %q is constrained twice: %w", t.Name, p.Key, ErrInvalidPredicate)
		}
		seen[p.Key] = true
	}
	return nil
}
