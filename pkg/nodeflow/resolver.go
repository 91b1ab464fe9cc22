package nodeflow

import (
	"github.com/nodeflow/nodeflow/internal/cache"
	"github.com/nodeflow/nodeflow/internal/ptree"
	"github.com/nodeflow/nodeflow/log"
)

// evalContext is the shared, per-call mutable state the Resolver and
// Evaluator both operate on: the node tree, the active overrides, the
// node-evaluation map (memoized per atomic node path, per spec.md §4.8),
// and the cycle-detection DFS stack (spec.md §4.7 "Termination").
// Exactly one evalContext exists per evaluate*/evaluateForResult call.
type evalContext struct {
	root     CalculationNode
	snapshot Snapshot

	adhocOutputs  map[string]Result[Value]
	adhocInputs   map[string]Result[Value]
	adhocFlywires map[string][]Flywire // keyed by target.Key()

	nodeEval     *OrderedMap[string, *NodeEvaluation]
	nodeDone     map[string]bool
	activeFrames map[string]bool // (path,rid) frames currently being produced

	nodeCache map[string]CalculationNode // path -> node lookup memoization

	// readCache memoizes findProducers(group, rid) lookups for this
	// evaluation call only (SPEC_FULL.md §3.3); discarded with the
	// evalContext at the end of evaluate*/evaluateForResult.
	readCache *cache.ConcurrentCache

	metrics *Metrics
	cfg     EngineConfig
}

func newEvalContext(root CalculationNode, snap Snapshot, ovr *AdhocOverride, cfg EngineConfig, metrics *Metrics) *evalContext {
	ctx := &evalContext{
		root:          root,
		snapshot:      snap,
		adhocOutputs:  map[string]Result[Value]{},
		adhocInputs:   map[string]Result[Value]{},
		adhocFlywires: map[string][]Flywire{},
		nodeEval:      NewOrderedMap[string, *NodeEvaluation](),
		nodeDone:      map[string]bool{},
		activeFrames:  map[string]bool{},
		nodeCache:     map[string]CalculationNode{},
		readCache:     cache.New(cache.Config{}),
		metrics:       metrics,
		cfg:           cfg,
	}
	if ovr != nil {
		for _, e := range ovr.AdhocOutputs {
			ctx.adhocOutputs[e.Point.Key()] = e.Value
		}
		for _, e := range ovr.AdhocInputs {
			ctx.adhocInputs[e.Point.Key()] = e.Value
		}
		for _, fw := range ovr.AdhocFlywires {
			key := fw.Target.Key()
			ctx.adhocFlywires[key] = append(ctx.adhocFlywires[key], fw)
		}
	}
	return ctx
}

func pointKey(path string, rid ResourceIdentifier) string {
	return ConnectionPoint{NodePath: path, Rid: rid}.Key()
}

// nodeAt walks the tree from root to locate the node named by path.
func (ctx *evalContext) nodeAt(path string) (CalculationNode, bool) {
	if n, ok := ctx.nodeCache[path]; ok {
		return n, true
	}
	cursor := ptree.Parse(path)
	if cursor.Depth() == 0 {
		return CalculationNode{}, false
	}
	cur := ctx.root
	for _, name := range cursor.Nodes[1:] {
		g, ok := cur.Group()
		if !ok {
			return CalculationNode{}, false
		}
		child, ok := g.Child(name)
		if !ok {
			return CalculationNode{}, false
		}
		cur = child
	}
	ctx.nodeCache[path] = cur
	return cur, true
}

func (ctx *evalContext) groupAt(path string) (*NodeGroup, bool) {
	n, ok := ctx.nodeAt(path)
	if !ok {
		return nil, false
	}
	return n.Group()
}

// findProducers returns the names of group's children whose declared
// outputs include rid, in the group's child insertion order.
func findProducers(group *NodeGroup, rid ResourceIdentifier) []string {
	var out []string
	for _, name := range group.Children() {
		child, _ := group.Child(name)
		for _, out2 := range child.Outputs() {
			if out2.Key() == rid.Key() {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// cachedFindProducers wraps findProducers with ctx.readCache, keyed by
// the group's own path plus rid (NodeGroup.Children() cannot change
// mid-evaluation, so this is safe for the lifetime of one evalContext).
func (ctx *evalContext) cachedFindProducers(groupPath string, group *NodeGroup, rid ResourceIdentifier) []string {
	key := groupPath + "|" + rid.Key()
	if v, ok := ctx.readCache.Get(key); ok {
		return v.([]string)
	}
	producers := findProducers(group, rid)
	ctx.readCache.Set(key, producers)
	return producers
}

// conflictResult builds a ConfigurationConflict failure and counts it in
// the evaluation's Metrics (SPEC_FULL.md §4 item 2).
func (ctx *evalContext) conflictResult(path string, msg string, detail []string) Result[Value] {
	ctx.metrics.incConflictsDetected()
	return Err[Value](ErrorInfo{Kind: ConfigurationConflict, Message: msg, Detail: detail})
}

// resolve implements spec.md §4.7's priority-ordered read resolution for
// an input read (readerPath, rid). isDirect reflects whether rid is one
// of the reader's declared Inputs() (true), a conditionally-discovered
// dependency (false), or not meaningful (nil) for group-level recursion.
func (ctx *evalContext) resolve(readerPath string, rid ResourceIdentifier, isDirect *bool) InputResult {
	// Rule 1: adhoc output forced directly at the reader's own slot.
	if v, ok := ctx.adhocOutputs[pointKey(readerPath, rid)]; ok {
		log.TRACE("resolve %s/%s: adhoc output at reader", readerPath, rid.Key())
		return InputResult{Context: InputContext{SourceType: SourceByAdhoc, IsDirectInput: BoolPtr(true)}, Value: v}
	}

	// Rule 2: adhoc flywire targeting (readerPath, rid).
	if matches := ctx.adhocFlywires[pointKey(readerPath, rid)]; len(matches) > 0 {
		if len(matches) > 1 {
			return InputResult{Context: InputContext{SourceType: SourceByAdhocFlywire, IsDirectInput: isDirect},
				Value: ctx.conflictResult(readerPath, "multiple adhoc flywires target the same connection point", flywireTargets(matches))}
		}
		fw := matches[0]
		val := ctx.produceAt(fw.Source.NodePath, fw.Source.Rid)
		log.TRACE("resolve %s/%s: adhoc flywire from %s", readerPath, rid.Key(), fw.Source.NodePath)
		return InputResult{Context: InputContext{SourceType: SourceByAdhocFlywire, IsDirectInput: isDirect}, Value: val}
	}

	// Rule 3: nearest static flywire, searching outward from the reader.
	for _, groupPath := range PathAncestors(readerPath) {
		group, ok := ctx.groupAt(groupPath)
		if !ok {
			continue
		}
		var matches []Flywire
		for _, fw := range group.Flywires() {
			if fw.Target.NodePath == readerPath && fw.Target.Rid.Key() == rid.Key() {
				matches = append(matches, fw)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return InputResult{Context: InputContext{SourceType: SourceByFlywire, IsDirectInput: isDirect},
				Value: ctx.conflictResult(readerPath, "multiple flywires target the same connection point at "+groupPath, flywireTargets(matches))}
		}
		if !ctx.endpointExists(matches[0].Source) {
			return InputResult{Context: InputContext{SourceType: SourceByFlywire, IsDirectInput: isDirect},
				Value: ctx.conflictResult(readerPath, "flywire source does not exist: "+matches[0].Source.NodePath, nil)}
		}
		val := ctx.produceAt(matches[0].Source.NodePath, matches[0].Source.Rid)
		log.TRACE("resolve %s/%s: static flywire from %s at %s", readerPath, rid.Key(), matches[0].Source.NodePath, groupPath)
		return InputResult{Context: InputContext{SourceType: SourceByFlywire, IsDirectInput: isDirect}, Value: val}
	}

	// Rule 4: adhoc input at the reader.
	if v, ok := ctx.adhocInputs[pointKey(readerPath, rid)]; ok {
		return InputResult{Context: InputContext{SourceType: SourceByAdhoc, IsDirectInput: isDirect}, Value: v}
	}

	// Rules 5/6: sibling resolve within the innermost enclosing group,
	// else climb to the parent's own input requirements.
	if PathIsRoot(readerPath) {
		return InputResult{Context: InputContext{SourceType: SourceByResolve, IsDirectInput: isDirect},
			Value: ErrKind[Value](UnresolvedInput, "no producer for "+rid.Key()+" above tree root")}
	}
	parentPath := PathParent(readerPath)
	group, ok := ctx.groupAt(parentPath)
	if !ok {
		return InputResult{Context: InputContext{SourceType: SourceByResolve, IsDirectInput: isDirect},
			Value: ErrKind[Value](UnresolvedInput, "enclosing group not found for "+readerPath)}
	}
	producers := ctx.cachedFindProducers(parentPath, group, rid)
	switch {
	case len(producers) == 1:
		childPath := PathJoin(parentPath, producers[0])
		val := ctx.produceAt(childPath, rid)
		return InputResult{Context: InputContext{SourceType: SourceByResolve, IsDirectInput: isDirect}, Value: val}
	case len(producers) > 1:
		var paths []string
		for _, p := range producers {
			paths = append(paths, PathJoin(parentPath, p))
		}
		return InputResult{Context: InputContext{SourceType: SourceByResolve, IsDirectInput: isDirect},
			Value: ctx.conflictResult(parentPath, "multiple children produce "+rid.Key(), paths)}
	default:
		// Rule 5: the innermost enclosing group has no child that
		// produces rid, but rid is still one of that group's own
		// declared Inputs() — meaning some child statically needs it
		// from outside the group. Forward whatever the outer resolve
		// yields (spec.md §4.7 rule 5), tagged ByParentGroup rather
		// than the generic ByResolve a dynamically-discovered (not
		// statically declared) need would get in the same situation.
		if groupInputsContain(group, rid) {
			if PathIsRoot(parentPath) {
				return InputResult{Context: InputContext{SourceType: SourceByParentGroup, IsDirectInput: isDirect},
					Value: ErrKind[Value](UnresolvedInput, "no producer for "+rid.Key())}
			}
			outer := ctx.resolve(parentPath, rid, isDirect)
			return InputResult{Context: InputContext{SourceType: SourceByParentGroup, IsDirectInput: isDirect}, Value: outer.Value}
		}
		if PathIsRoot(parentPath) {
			return InputResult{Context: InputContext{SourceType: SourceByResolve, IsDirectInput: isDirect},
				Value: ErrKind[Value](UnresolvedInput, "no producer for "+rid.Key())}
		}
		return ctx.resolve(parentPath, rid, isDirect)
	}
}

// groupInputsContain reports whether rid is one of group's own declared
// Inputs() (spec.md §4.7 rule 5's precondition).
func groupInputsContain(group *NodeGroup, rid ResourceIdentifier) bool {
	for _, in := range group.Inputs() {
		if in.Key() == rid.Key() {
			return true
		}
	}
	return false
}

func flywireTargets(fws []Flywire) []string {
	var out []string
	for _, f := range fws {
		out = append(out, f.Source.NodePath)
	}
	return out
}

func (ctx *evalContext) endpointExists(cp ConnectionPoint) bool {
	_, ok := ctx.nodeAt(cp.NodePath)
	return ok
}

// produceAt makes node `path` yield a value for rid: for an atomic node
// this runs (or reuses the memoized result of) its iteration protocol;
// for a group this performs the same sibling search rule 6 describes,
// one level deeper, counting only children whose (name, rid) the group
// exports. Cycle detection (spec.md §4.7 "Termination") guards
// every call: re-entering an active (path, rid) frame returns
// Failure(CycleDetected) without recursing further.
func (ctx *evalContext) produceAt(path string, rid ResourceIdentifier) Result[Value] {
	key := pointKey(path, rid)
	if ctx.activeFrames[key] {
		log.DEBUG("cycle detected resolving %s", key)
		ctx.metrics.incCyclesDetected()
		return ErrKind[Value](CycleDetected, "cycle detected resolving "+key)
	}
	ctx.activeFrames[key] = true
	defer delete(ctx.activeFrames, key)

	node, ok := ctx.nodeAt(path)
	if !ok {
		return ErrKind[Value](ConfigurationConflict, "no node at "+path)
	}

	if v, ok := ctx.adhocOutputs[key]; ok {
		if atomic, isAtomic := node.Atomic(); isAtomic {
			ne := ctx.nodeEvaluationFor(path)
			if _, already := ne.Outputs.Get(rid.Key()); !already {
				ne.Outputs.Set(rid.Key(), OutputResult{Context: OutputContext{ResultType: OutputByAdhoc}, Value: v})
			}
			_ = atomic
		}
		return v
	}

	if atomic, isAtomic := node.Atomic(); isAtomic {
		return ctx.getOutput(path, atomic, rid)
	}

	group, _ := node.Group()
	var producers []string
	for _, name := range ctx.cachedFindProducers(path, group, rid) {
		if group.Exports().Contains(name, rid) {
			producers = append(producers, name)
		}
	}
	switch {
	case len(producers) == 1:
		return ctx.produceAt(PathJoin(path, producers[0]), rid)
	case len(producers) > 1:
		var paths []string
		for _, p := range producers {
			paths = append(paths, PathJoin(path, p))
		}
		return ctx.conflictResult(path, "multiple children produce "+rid.Key(), paths)
	default:
		return ErrKind[Value](UnresolvedInput, "no producer for "+rid.Key()+" within "+path)
	}
}

func (ctx *evalContext) nodeEvaluationFor(path string) *NodeEvaluation {
	if ne, ok := ctx.nodeEval.Get(path); ok {
		return ne
	}
	ne := NewNodeEvaluation()
	ctx.nodeEval.Set(path, ne)
	return ne
}
