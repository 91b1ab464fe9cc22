package nodeflow

import (
	"reflect"
	"time"
)

// ResourceIdentifier is an opaque, totally-ordered-by-key handle for one
// typed resource a node can produce or consume. Two identifiers are equal
// iff their Key()s match; Key must be stable and total (no partial
// equality), matching spec.md's "equality and hashing are total."
//
// Concrete identifier kinds are registered with the type registry
// (registry.go) under a Tag so they round-trip through serialization;
// the engine core never constructs identifiers itself — callers and
// AtomicNode implementations do.
type ResourceIdentifier interface {
	// Tag names the registered identifier type, used as the wire "type".
	Tag() string
	// Key is the total, stable identity used for map keys and equality.
	Key() string
	// ValueType is the expected runtime Go type of this resource's value.
	ValueType() reflect.Type
}

// TypeCompatible reports whether a value carried by source may be used
// wherever target is expected: target's carried type must be assignable
// from source's carried type (spec.md §3, Flywire invariant and §7
// TypeIncompatibility).
func TypeCompatible(target, source ResourceIdentifier) bool {
	st, tt := source.ValueType(), target.ValueType()
	if st == nil || tt == nil {
		return st == tt
	}
	return st.AssignableTo(tt)
}

// Identifier is the generic ResourceIdentifier implementation used by
// demo node providers and tests: a tag plus an ordered set of string
// fields (e.g. instrument/source for the financial demo), carrying a
// declared value type.
type Identifier struct {
	tag    string
	fields map[string]string
	// order preserves field insertion order so Key() is deterministic
	// even though fields is a map (spec.md §5 byte-stability).
	order     []string
	valueType reflect.Type
}

// NewIdentifier builds a generic resource identifier. fieldPairs must be
// an even-length list of alternating key, value strings, e.g.
// NewIdentifier("Ask", reflect.TypeOf(float64(0)), "instrument", "APPLE",
// "source", "Bloomberg").
func NewIdentifier(tag string, valueType reflect.Type, fieldPairs ...string) *Identifier {
	id := &Identifier{tag: tag, fields: map[string]string{}, valueType: valueType}
	for i := 0; i+1 < len(fieldPairs); i += 2 {
		k, v := fieldPairs[i], fieldPairs[i+1]
		if _, exists := id.fields[k]; !exists {
			id.order = append(id.order, k)
		}
		id.fields[k] = v
	}
	return id
}

func (i *Identifier) Tag() string             { return i.tag }
func (i *Identifier) ValueType() reflect.Type { return i.valueType }

// Key renders "Tag<k1=v1,k2=v2>" in field-insertion order.
func (i *Identifier) Key() string {
	s := i.tag
	if len(i.order) > 0 {
		s += "<"
		for idx, k := range i.order {
			if idx > 0 {
				s += ","
			}
			s += k + "=" + i.fields[k]
		}
		s += ">"
	}
	return s
}

// Field returns a named field value and whether it was set.
func (i *Identifier) Field(name string) (string, bool) {
	v, ok := i.fields[name]
	return v, ok
}

// Fields returns field names in insertion order.
func (i *Identifier) Fields() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Snapshot is the opaque time coordinate passed through to every
// AtomicNode.compute, as specified in spec.md §3. Both timestamps are
// optional; the engine never interprets them.
type Snapshot struct {
	LogicalTimestamp  *time.Time
	PhysicalTimestamp *time.Time
}

// NewSnapshot builds a Snapshot from optional instants.
func NewSnapshot(logical, physical *time.Time) Snapshot {
	return Snapshot{LogicalTimestamp: logical, PhysicalTimestamp: physical}
}
