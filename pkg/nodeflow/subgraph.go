package nodeflow

// ExtractSubgraph implements C9 (spec.md §4.9): given a completed
// nodeEvaluationMap, produce the minimal CalculationNode containing
// exactly the atomic nodes evaluated at least once, every enclosing
// group needed to address them by the same path, every flywire whose
// both endpoints survive, and each surviving group's exports scope
// restricted to its surviving children.
func ExtractSubgraph(root CalculationNode, nodeEvalMap *OrderedMap[string, *NodeEvaluation]) (CalculationNode, error) {
	evaluated := make(map[string]bool, nodeEvalMap.Len())
	for _, path := range nodeEvalMap.Keys() {
		evaluated[path] = true
	}
	surviving := map[string]bool{}
	extracted, ok := extractSubgraph(RootPath, root, evaluated, surviving)
	if !ok {
		return CalculationNode{}, NewError(ConfigurationConflict, RootPath,
			"no atomic node was evaluated; nothing to extract", nil)
	}
	return extracted, nil
}

func extractSubgraph(path string, node CalculationNode, evaluated, surviving map[string]bool) (CalculationNode, bool) {
	if atomic, ok := node.Atomic(); ok {
		if !evaluated[path] {
			return CalculationNode{}, false
		}
		surviving[path] = true
		return AsAtomicNode(atomic), true
	}

	group, _ := node.Group()
	var children []CalculationNode
	survivingNames := map[string]bool{}
	for _, name := range group.Children() {
		child, _ := group.Child(name)
		childPath := PathJoin(path, name)
		if cn, ok := extractSubgraph(childPath, child, evaluated, surviving); ok {
			children = append(children, cn)
			survivingNames[name] = true
		}
	}
	if len(children) == 0 {
		return CalculationNode{}, false
	}
	surviving[path] = true

	var flywires []Flywire
	for _, fw := range group.Flywires() {
		if surviving[fw.Source.NodePath] && surviving[fw.Target.NodePath] {
			flywires = append(flywires, fw)
		}
	}

	g, err := NewNodeGroup(group.Name(), children, flywires, restrictScope(group.Exports(), survivingNames))
	if err != nil {
		return CalculationNode{}, false
	}
	return AsGroupNode(g), true
}

// restrictScope filters a group's export scope down to entries whose
// child name survived extraction, preserving the Include/Exclude
// variant.
func restrictScope(s Scope, survivingNames map[string]bool) Scope {
	var kept []ConnectionPoint
	for _, e := range s.Entries() {
		if survivingNames[e.NodePath] {
			kept = append(kept, e)
		}
	}
	if s.IsInclude() {
		return IncludeScope(kept...)
	}
	return ExcludeScope(kept...)
}
