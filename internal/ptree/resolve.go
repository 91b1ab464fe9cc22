package ptree

import "fmt"

// Resolve implements the path arithmetic described by the node tree's
// path resolver: if p is absolute, it is normalized and returned; else its
// components are appended to base and "." / ".." are collapsed per POSIX
// rules. A result that would climb above the tree root is an error.
func Resolve(base *Cursor, p string) (*Cursor, error) {
	var work *Cursor
	var comps []string

	if IsAbsolute(p) {
		work = &Cursor{}
		comps = splitNonEmpty(p)
	} else {
		work = base.Copy()
		comps = splitNonEmpty(p)
	}

	for _, c := range comps {
		switch c {
		case ".":
			// no-op
		case "..":
			if len(work.Nodes) == 0 {
				return nil, fmt.Errorf("path escapes tree root: %q", p)
			}
			work.Pop()
		default:
			work.Push(c)
		}
	}

	if len(work.Nodes) == 0 || work.Nodes[0] != Root {
		return nil, fmt.Errorf("path %q does not resolve under /%s", p, Root)
	}
	return work, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '/' {
			if i > start {
				seg := s[start:i]
				if seg != "" {
					out = append(out, seg)
				}
			}
			start = i + 1
		}
	}
	return out
}
