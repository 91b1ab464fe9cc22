package nodeflow

import (
	"context"
	"sync"
	"time"

	"github.com/nodeflow/nodeflow/internal/notify"
)

// EngineConfig holds the knobs that shape one Engine's evaluation
// behavior, mirroring graft's own EngineConfig (pkg/graft/engine.go)
// generalized from merge/operator settings to dataflow settings.
type EngineConfig struct {
	// DataflowOrder controls the order EvaluationResult.Results is walked
	// for any operation that must pick one of several ties (supplemented
	// feature; SPEC_FULL.md §4): "insertion" (default) preserves the
	// caller's requested order, "alphabetical" sorts by rid key.
	DataflowOrder string

	// MaxResolveRounds bounds the per-atomic-node ResolveDependencies/
	// resolve loop (spec.md §4.8) as a non-termination guard against a
	// non-monotone AtomicNode implementation. Zero uses the default.
	MaxResolveRounds int

	// Registry is the type registry used for any Builder/serialization
	// operation issued through this Engine. Defaults to DefaultRegistry.
	Registry *Registry

	// Notifier, if set, receives a fire-and-forget completion summary
	// after every EvaluateForResult call (SPEC_FULL.md §3.10). Nil
	// disables notifications; this never affects evaluation semantics.
	Notifier *notify.Publisher
	// NotifySubject is not read by the engine: Notifier publishes to the
	// subject given to notify.Connect when it was created.
	NotifySubject string
}

const defaultMaxResolveRounds = 10000

// MaxResolveIterations returns the configured bound, or the package
// default when unset.
func (c EngineConfig) MaxResolveIterations() int {
	if c.MaxResolveRounds <= 0 {
		return defaultMaxResolveRounds
	}
	return c.MaxResolveRounds
}

// DefaultEngineConfig returns the engine's zero-config defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DataflowOrder:    "insertion",
		MaxResolveRounds: defaultMaxResolveRounds,
		Registry:         DefaultRegistry,
	}
}

// Metrics accumulates counters across one or more evaluation calls,
// modeled on graft's EngineMetrics (pkg/graft/engine.go).
type Metrics struct {
	mu                sync.Mutex
	nodesEvaluated    int64
	inputsResolved    int64
	evaluationCalls   int64
	cacheHits         int64
	cacheMisses       int64
	conflictsDetected int64
	cyclesDetected    int64
}

// NewMetrics builds a zeroed Metrics.
func NewMetrics() *Metrics { return &Metrics{} }

// NodesEvaluated returns the number of atomic nodes whose iteration
// protocol has run (across all calls sharing this Metrics).
func (m *Metrics) NodesEvaluated() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodesEvaluated
}

// InputsResolved returns the number of resolve() calls that completed.
func (m *Metrics) InputsResolved() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputsResolved
}

// EvaluationCalls returns the number of evaluate/evaluateForResult calls
// this Metrics has observed.
func (m *Metrics) EvaluationCalls() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evaluationCalls
}

// CacheHits returns the number of read-cache hits across every
// evaluation call sharing this Metrics (internal/cache's per-call
// findProducers memoization).
func (m *Metrics) CacheHits() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits
}

// CacheMisses returns the number of read-cache misses.
func (m *Metrics) CacheMisses() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheMisses
}

// ConflictsDetected returns the number of ConfigurationConflict results
// produced (multiple producers/flywires at one connection point).
func (m *Metrics) ConflictsDetected() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflictsDetected
}

// CyclesDetected returns the number of times resolution re-entered an
// already-active (path, rid) frame.
func (m *Metrics) CyclesDetected() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cyclesDetected
}

func (m *Metrics) incNodesEvaluated() {
	m.mu.Lock()
	m.nodesEvaluated++
	m.mu.Unlock()
}

func (m *Metrics) incInputsResolved() {
	m.mu.Lock()
	m.inputsResolved++
	m.mu.Unlock()
}

func (m *Metrics) addCacheStats(hits, misses uint64) {
	m.mu.Lock()
	m.cacheHits += int64(hits)
	m.cacheMisses += int64(misses)
	m.mu.Unlock()
}

func (m *Metrics) incConflictsDetected() {
	m.mu.Lock()
	m.conflictsDetected++
	m.mu.Unlock()
}

func (m *Metrics) incCyclesDetected() {
	m.mu.Lock()
	m.cyclesDetected++
	m.mu.Unlock()
}

// Engine is the public evaluation entry point (C8): a configured
// Evaluator plus the metrics its calls accumulate into.
type Engine struct {
	config  EngineConfig
	metrics *Metrics
	eval    *Evaluator
}

// NewEngine builds an Engine with cfg. A zero-value EngineConfig is
// filled in with DefaultEngineConfig's values where unset.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.DataflowOrder == "" {
		cfg.DataflowOrder = "insertion"
	}
	if cfg.MaxResolveRounds <= 0 {
		cfg.MaxResolveRounds = defaultMaxResolveRounds
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry
	}
	return &Engine{config: cfg, metrics: NewMetrics(), eval: NewEvaluator(cfg)}
}

// NewDefaultEngine builds an Engine with DefaultEngineConfig.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultEngineConfig())
}

// Metrics returns the Engine's accumulated counters.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Config returns the Engine's configuration.
func (e *Engine) Config() EngineConfig { return e.config }

// Evaluate resolves requested resources against root under snap,
// returning only the per-rid values (spec.md §4.8 evaluate). ctx
// cancellation is checked before the call begins, matching graft's own
// context handling in DefaultEngine.evaluate.
func (e *Engine) Evaluate(ctx context.Context, root CalculationNode, snap Snapshot, requested []ResourceIdentifier) (*OrderedMap[string, Result[Value]], error) {
	res, err := e.EvaluateForResult(ctx, root, snap, requested, nil)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// EvaluateForResult resolves requested resources against root under snap
// and ovr, returning the complete provenance-annotated EvaluationResult
// (spec.md §4.8 evaluateForResult).
func (e *Engine) EvaluateForResult(ctx context.Context, root CalculationNode, snap Snapshot, requested []ResourceIdentifier, ovr *AdhocOverride) (*EvaluationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.metrics.mu.Lock()
	e.metrics.evaluationCalls++
	e.metrics.mu.Unlock()

	start := time.Now()
	result := e.eval.EvaluateForResult(root, snap, requested, ovr, e.metrics)
	e.notifyCompletion(result, time.Since(start))
	return result, nil
}

// notifyCompletion publishes a Summary if e.config.Notifier is set. A
// publish failure is swallowed: notifications are a side-channel, never
// allowed to turn a successful evaluation into an error.
func (e *Engine) notifyCompletion(result *EvaluationResult, elapsed time.Duration) {
	if e.config.Notifier == nil {
		return
	}
	succeeded, failed := 0, 0
	for _, key := range result.Results.Keys() {
		v, _ := result.Results.Get(key)
		if v.IsSuccess() {
			succeeded++
		} else {
			failed++
		}
	}
	_ = e.config.Notifier.Publish(notify.Summary{
		RequestedNodePath: result.RequestedNodePath,
		Succeeded:         succeeded,
		Failed:            failed,
		Elapsed:           elapsed,
	})
}
