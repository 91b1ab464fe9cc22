package nodeflow

import "fmt"

// Builder is the mutable mirror of a node tree spec.md §3/§6 describes:
// a per-call, non-shared editing surface that reconstructs an immutable
// CalculationNode on demand via ToNode. Mutations change the builder in
// place; AddNode stores the given child builder itself and does not check
// whether it is already a child elsewhere. ToNode builds new NodeGroup
// values on every call, while atomic leaves keep their AtomicNode.
type Builder struct {
	name     string
	children *OrderedMap[string, *Builder]
	atomic   AtomicNode // non-nil for a builder mirroring an atomic leaf
	flywires []Flywire
	exports  Scope
}

// NewBuilder creates an empty group builder.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, children: NewOrderedMap[string, *Builder](), exports: ExcludeScope()}
}

// NewBuilderFromNode creates a builder mirroring an existing
// CalculationNode, recursively for groups.
func NewBuilderFromNode(n CalculationNode) *Builder {
	if a, ok := n.Atomic(); ok {
		return &Builder{name: a.Name(), atomic: a}
	}
	g, _ := n.Group()
	b := &Builder{name: g.Name(), children: NewOrderedMap[string, *Builder](), flywires: append([]Flywire{}, g.Flywires()...), exports: g.Exports()}
	for _, name := range g.Children() {
		child, _ := g.Child(name)
		b.children.Set(name, NewBuilderFromNode(child))
	}
	return b
}

// AddNode adds or replaces a child builder by name.
func (b *Builder) AddNode(child *Builder) error {
	if b.atomic != nil {
		return NewError(ConfigurationConflict, "/"+b.name, "cannot add a child to an atomic node builder", nil)
	}
	b.children.Set(child.name, child)
	return nil
}

// DeleteNode removes a named child. No-op if absent.
func (b *Builder) DeleteNode(name string) {
	if b.children == nil {
		return
	}
	b.children.Delete(name)
}

// AddFlywire appends a flywire to this group builder, validating its
// type-compatibility invariant immediately (spec.md §3).
func (b *Builder) AddFlywire(source, target ConnectionPoint) error {
	fw, err := NewFlywire(source, target)
	if err != nil {
		return err
	}
	b.flywires = append(b.flywires, fw)
	return nil
}

// DeleteFlywire removes the first flywire whose target matches
// (nodePath, rid). No-op if none match.
func (b *Builder) DeleteFlywire(target ConnectionPoint) {
	out := b.flywires[:0]
	removed := false
	for _, fw := range b.flywires {
		if !removed && fw.Target.Key() == target.Key() {
			removed = true
			continue
		}
		out = append(out, fw)
	}
	b.flywires = out
}

// SetExports replaces this group builder's export scope.
func (b *Builder) SetExports(scope Scope) {
	b.exports = scope
}

// ToNode reconstructs the current immutable CalculationNode snapshot,
// the Builder's single read operation (spec.md §6). Construction
// failures (duplicate child names, bad flywires) surface as an error.
func (b *Builder) ToNode() (CalculationNode, error) {
	if b.atomic != nil {
		return AsAtomicNode(b.atomic), nil
	}
	children := make([]CalculationNode, 0, b.children.Len())
	for _, name := range b.children.Keys() {
		cb, _ := b.children.Get(name)
		cn, err := cb.ToNode()
		if err != nil {
			return CalculationNode{}, err
		}
		children = append(children, cn)
	}
	g, err := NewNodeGroup(b.name, children, b.flywires, b.exports)
	if err != nil {
		return CalculationNode{}, err
	}
	return AsGroupNode(g), nil
}

// Name returns the builder's own name.
func (b *Builder) Name() string { return b.name }

// Child returns the named child builder.
func (b *Builder) Child(name string) (*Builder, bool) {
	if b.children == nil {
		return nil, false
	}
	return b.children.Get(name)
}

// String is a debug representation.
func (b *Builder) String() string {
	if b.atomic != nil {
		return fmt.Sprintf("Builder(atomic:%s)", b.name)
	}
	return fmt.Sprintf("Builder(group:%s, children:%d)", b.name, b.children.Len())
}
