package nodeflow

import (
	"fmt"
	"sort"

	"github.com/nodeflow/nodeflow/log"
)

// getOutput produces atomic node `atomic` (at path)'s value for rid,
// running its iteration protocol at most once per evaluation call and
// memoizing every output it yields in ctx.nodeEval (spec.md §4.8: "the
// first time an atomic node's output rid is demanded, run the iteration
// protocol; subsequent demands reuse the recorded OutputResult").
func (ctx *evalContext) getOutput(path string, atomic AtomicNode, rid ResourceIdentifier) Result[Value] {
	ne := ctx.nodeEvaluationFor(path)
	if existing, ok := ne.Outputs.Get(rid.Key()); ok {
		return existing.Value
	}
	if ctx.nodeDone[path] {
		// The node already ran its full iteration protocol and simply did
		// not produce rid this pass.
		return ErrKind[Value](ComputeFailure, "atomic node "+path+" did not produce "+rid.Key())
	}
	ctx.runIterationProtocol(path, atomic, ne)
	ctx.nodeDone[path] = true
	if existing, ok := ne.Outputs.Get(rid.Key()); ok {
		return existing.Value
	}
	return ErrKind[Value](ComputeFailure, "atomic node "+path+" did not produce "+rid.Key())
}

// runIterationProtocol implements spec.md §4.8's per-atomic-node loop:
// ask for the need set given what's known, resolve each unmet need,
// repeat until need is fully satisfied, then compute.
func (ctx *evalContext) runIterationProtocol(path string, atomic AtomicNode, ne *NodeEvaluation) {
	known := Values{}
	direct := map[string]bool{}
	for _, rid := range atomic.Inputs() {
		direct[rid.Key()] = true
	}

	for iterations := 0; ; iterations++ {
		if iterations > ctx.cfg.MaxResolveIterations() {
			log.WARN("iteration protocol at %s exceeded %d rounds; ResolveDependencies may not be monotone",
				path, ctx.cfg.MaxResolveIterations())
			break
		}
		need := atomic.ResolveDependencies(ctx.snapshot, known)
		var pending []ResourceIdentifier
		for _, r := range need {
			if _, ok := known[r.Key()]; !ok {
				pending = append(pending, r)
			}
		}
		if len(pending) == 0 {
			break
		}
		for _, r := range pending {
			isDirect := direct[r.Key()]
			ir := ctx.resolve(path, r, BoolPtr(isDirect))
			known[r.Key()] = ir.Value
			ne.Inputs.Set(r.Key(), ir)
			ctx.metrics.incInputsResolved()
		}
	}

	outputs, panicErr := safeCompute(atomic, ctx.snapshot, known)
	if panicErr != nil {
		log.WARN("compute panicked at %s: %v", path, panicErr)
	}
	cyclic := anyCycleDetected(known)
	for _, rid := range atomic.Outputs() {
		if _, already := ne.Outputs.Get(rid.Key()); already {
			continue
		}
		if v, ok := ctx.adhocOutputs[pointKey(path, rid)]; ok {
			ne.Outputs.Set(rid.Key(), OutputResult{Context: OutputContext{ResultType: OutputByAdhoc}, Value: v})
			continue
		}
		if res, ok := outputs[rid.Key()]; ok {
			ne.Outputs.Set(rid.Key(), OutputResult{Context: OutputContext{ResultType: OutputByEvaluation}, Value: res})
			continue
		}
		if panicErr != nil {
			ne.Outputs.Set(rid.Key(), OutputResult{Context: OutputContext{ResultType: OutputByEvaluation},
				Value: ErrKind[Value](ComputeFailure, fmt.Sprintf("panic in compute at %s: %v", path, panicErr))})
			continue
		}
		if cyclic {
			ne.Outputs.Set(rid.Key(), OutputResult{Context: OutputContext{ResultType: OutputByEvaluation},
				Value: ErrKind[Value](CycleDetected, "unproducible due to a cycle among "+path+"'s inputs")})
		}
		// else: not producible this pass; leave absent, per spec.md §4.4.
	}
	ctx.metrics.incNodesEvaluated()
}

func anyCycleDetected(known Values) bool {
	for _, v := range known {
		if info, failed := v.Error(); failed && info.Kind == CycleDetected {
			return true
		}
	}
	return false
}

// safeCompute recovers a panicking Compute call, matching graft's
// operator-call panic recovery (op_calls.go) adapted to the node
// contract: a panic never aborts the whole evaluation, only the node
// that raised it.
func safeCompute(atomic AtomicNode, snap Snapshot, known Values) (out Values, panicked interface{}) {
	defer func() {
		if r := recover(); r != nil {
			panicked = r
		}
	}()
	return atomic.Compute(snap, known), nil
}

// Evaluator drives one evaluation call end to end: resolving every
// requested resource from the root group outward and assembling the
// complete EvaluationResult (spec.md §3, §4.8's top-level entry points).
type Evaluator struct {
	cfg EngineConfig
}

// NewEvaluator builds an Evaluator with cfg.
func NewEvaluator(cfg EngineConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// EvaluateForResult resolves every rid in requested against root, under
// snap and the optional adhoc override, and returns the full provenance
// record (spec.md §4.8 evaluateForResult).
func (e *Evaluator) EvaluateForResult(root CalculationNode, snap Snapshot, requested []ResourceIdentifier, ovr *AdhocOverride, metrics *Metrics) *EvaluationResult {
	ctx := newEvalContext(root, snap, ovr, e.cfg, metrics)

	results := NewOrderedMap[string, Result[Value]]()
	group, isGroup := root.Group()
	for _, rid := range orderRequested(requested, e.cfg.DataflowOrder) {
		var val Result[Value]
		if isGroup {
			exported := false
			for _, out := range group.Outputs() {
				if out.Key() == rid.Key() {
					exported = true
					break
				}
			}
			if !exported {
				val = ErrKind[Value](UnresolvedInput, "requested resource "+rid.Key()+" is not exported by the root group")
			} else {
				val = ctx.produceAt(RootPath, rid)
			}
		} else {
			val = ctx.produceAt(RootPath, rid)
		}
		results.Set(rid.Key(), val)
		log.DEBUG("requested %s -> %v", rid.Key(), val.IsSuccess())
	}

	stats := ctx.readCache.Stats()
	ctx.metrics.addCacheStats(stats.Hits, stats.Misses)

	return &EvaluationResult{
		Snapshot:          snap,
		RequestedNodePath: RootPath,
		AdhocOverride:     ovr,
		Results:           results,
		NodeEvaluationMap: ctx.nodeEval,
		Graph:             root,
	}
}

// orderRequested controls the order EvaluationResult.Results is populated
// in for a batch of independently-requested rids (EngineConfig.
// DataflowOrder). "insertion" (the default) preserves the caller's
// requested slice order; "alphabetical" sorts by rid key, which is the
// order graft's DataflowOrder="alphabetical" imposes on its own topo-sort
// ties. The requests are resolved in the returned order, so the setting
// decides the key order of both Results and NodeEvaluationMap.
func orderRequested(requested []ResourceIdentifier, order string) []ResourceIdentifier {
	if order != "alphabetical" {
		return requested
	}
	ordered := make([]ResourceIdentifier, len(requested))
	copy(ordered, requested)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Key() < ordered[j].Key() })
	return ordered
}

// Evaluate is the narrower entry point returning only the per-rid values,
// discarding provenance (spec.md §4.8 evaluate).
func (e *Evaluator) Evaluate(root CalculationNode, snap Snapshot, requested []ResourceIdentifier) *OrderedMap[string, Result[Value]] {
	return e.EvaluateForResult(root, snap, requested, nil, NewMetrics()).Results
}
