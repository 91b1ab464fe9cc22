package nodeflow

import (
	"fmt"
	"strings"

	"github.com/cppforlife/go-patch/patch"
	"gopkg.in/yaml.v3"
)

// ApplyPatch parses a go-patch ops-file document (the same find/replace/
// remove shape BOSH ops files use, and graft's own `--prune`/gopatch
// document support parses via patch.NewOpsFromDefinitions) and applies
// each operation to this Builder. Paths address Builder children by
// name, slash-separated from this builder's own root (e.g.
// "/pricing/mid"), not go-patch's general array-index/find DSL: a
// patch.Ops normally runs against a generic interface{} document tree,
// which a Builder is not, so operations are dispatched to the matching
// Builder mutation by their parsed Type/Path rather than run through
// patch.Ops.Apply directly. Only remove (DeleteNode) and replace
// (AddNode) are handled. A replace value must be a *Builder, which a
// document parsed from YAML never holds, so a replace op in doc always
// returns an error.
func (b *Builder) ApplyPatch(doc []byte) error {
	var opdefs []patch.OpDefinition
	if err := yaml.Unmarshal(doc, &opdefs); err != nil {
		return fmt.Errorf("nodeflow: parsing patch document: %w", err)
	}
	// NewOpsFromDefinitions performs go-patch's own structural validation
	// (unknown op types, missing required fields) before we interpret the
	// definitions ourselves against the Builder tree.
	if _, err := patch.NewOpsFromDefinitions(opdefs); err != nil {
		return fmt.Errorf("nodeflow: invalid patch document: %w", err)
	}
	for _, op := range opdefs {
		if err := b.applyOpDefinition(op); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) applyOpDefinition(op patch.OpDefinition) error {
	if op.Type == nil || op.Path == nil {
		return fmt.Errorf("nodeflow: patch op missing type or path")
	}
	segments := pathSegments(*op.Path)
	parent, childName, err := b.navigateToParent(segments)
	if err != nil {
		return err
	}

	switch *op.Type {
	case "remove":
		parent.DeleteNode(childName)
		return nil
	case "replace":
		if op.Value == nil {
			return fmt.Errorf("nodeflow: replace op at %s has no value", *op.Path)
		}
		child, ok := (*op.Value).(*Builder)
		if !ok {
			return fmt.Errorf("nodeflow: replace op at %s must carry a *Builder value", *op.Path)
		}
		return parent.AddNode(child)
	default:
		return fmt.Errorf("nodeflow: unsupported patch op type %q (only remove/replace act on a node tree)", *op.Type)
	}
}

func pathSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// navigateToParent walks segments[:len-1] from b, returning the parent
// builder and the final segment (the child name being replaced/removed).
func (b *Builder) navigateToParent(segments []string) (*Builder, string, error) {
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("nodeflow: patch path must name at least one child")
	}
	cur := b
	for _, seg := range segments[:len(segments)-1] {
		child, ok := cur.Child(seg)
		if !ok {
			return nil, "", fmt.Errorf("nodeflow: patch path segment %q not found under %s", seg, cur.Name())
		}
		cur = child
	}
	return cur, segments[len(segments)-1], nil
}
