package nodeflow

import "github.com/nodeflow/nodeflow/internal/ptree"

// RootPath is the canonical path of the tree's root group.
const RootPath = "/root"

// ResolvePath implements spec.md §4.6: absolute p is normalized and
// returned; relative p is appended to base with "." / ".." collapsed.
// A path that would climb above /root is invalid.
func ResolvePath(base, p string) (string, error) {
	c, err := ptree.Resolve(ptree.Parse(base), p)
	if err != nil {
		return "", NewError(UnresolvedInput, base, err.Error(), err)
	}
	return c.String(), nil
}

// PathUnder reports whether child names a node strictly inside parent's
// subtree.
func PathUnder(child, parent string) bool {
	return ptree.Parse(child).Under(ptree.Parse(parent))
}

// PathParent returns the path of the enclosing group of p, or p itself
// if p is already /root.
func PathParent(p string) string {
	c := ptree.Parse(p)
	parent := c.Parent()
	if parent.Depth() == 0 {
		return ptree.RootPathString()
	}
	return parent.String()
}

// PathIsRoot reports whether p names the tree root.
func PathIsRoot(p string) bool {
	return p == ptree.RootPathString()
}

// PathBaseName returns the last path component.
func PathBaseName(p string) string {
	c := ptree.Parse(p)
	if c.Depth() == 0 {
		return ""
	}
	return c.Nodes[c.Depth()-1]
}

// PathJoin appends a child component to a parent path.
func PathJoin(parent, child string) string {
	c := ptree.Parse(parent)
	c.Push(child)
	return c.String()
}

// PathAncestors returns the path of the group containing p, then its
// parent, up to and including /root — the search order spec.md §4.7
// rule 3 uses for static flywire lookup ("search outward from the
// reader").
func PathAncestors(p string) []string {
	c := ptree.Parse(p)
	var out []string
	for c.Depth() > 1 {
		c = c.Parent()
		out = append(out, c.String())
	}
	if len(out) == 0 || out[len(out)-1] != ptree.RootPathString() {
		out = append(out, ptree.RootPathString())
	}
	return out
}
