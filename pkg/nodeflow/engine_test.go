package nodeflow

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEngineDefaults(t *testing.T) {
	Convey("NewEngine fills in zero-value config from defaults", t, func() {
		e := NewEngine(EngineConfig{})
		So(e.Config().DataflowOrder, ShouldEqual, "insertion")
		So(e.Config().MaxResolveIterations(), ShouldEqual, defaultMaxResolveRounds)
		So(e.Config().Registry, ShouldEqual, DefaultRegistry)
	})

	Convey("NewDefaultEngine matches DefaultEngineConfig", t, func() {
		e := NewDefaultEngine()
		So(e.Config(), ShouldResemble, DefaultEngineConfig())
	})
}

func TestEngineEvaluate(t *testing.T) {
	Convey("Engine.Evaluate resolves requested resources and tracks metrics", t, func() {
		x := floatID("X")
		root := AsAtomicNode(literalNode("producer", x, 42.0))

		e := NewDefaultEngine()
		values, err := e.Evaluate(context.Background(), root, NewSnapshot(nil, nil), []ResourceIdentifier{x})
		So(err, ShouldBeNil)

		v, ok := values.Get(x.Key())
		So(ok, ShouldBeTrue)
		val, hasVal := v.Value()
		So(hasVal, ShouldBeTrue)
		So(val, ShouldEqual, 42.0)

		So(e.Metrics().EvaluationCalls(), ShouldEqual, int64(1))
	})

	Convey("Engine.EvaluateForResult rejects an already-cancelled context", t, func() {
		x := floatID("X")
		root := AsAtomicNode(literalNode("producer", x, 1.0))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		e := NewDefaultEngine()
		_, err := e.EvaluateForResult(ctx, root, NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil)
		So(err, ShouldNotBeNil)
	})

	Convey("a nil Notifier leaves EvaluateForResult a no-op side channel", t, func() {
		x := floatID("X")
		root := AsAtomicNode(literalNode("producer", x, 1.0))

		e := NewEngine(EngineConfig{Notifier: nil})
		result, err := e.EvaluateForResult(context.Background(), root, NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil)
		So(err, ShouldBeNil)
		So(result, ShouldNotBeNil)
	})

	Convey("a nil ctx defaults to context.Background", t, func() {
		x := floatID("X")
		root := AsAtomicNode(literalNode("producer", x, 1.0))

		e := NewDefaultEngine()
		result, err := e.EvaluateForResult(nil, root, NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil)
		So(err, ShouldBeNil)
		v, _ := result.Results.Get(x.Key())
		val, _ := v.Value()
		So(val, ShouldEqual, 1.0)
	})
}

func TestMetricsCounters(t *testing.T) {
	Convey("Metrics starts at zero and only grows through its inc helpers", t, func() {
		m := NewMetrics()
		So(m.NodesEvaluated(), ShouldEqual, int64(0))
		So(m.InputsResolved(), ShouldEqual, int64(0))
		So(m.EvaluationCalls(), ShouldEqual, int64(0))
		So(m.CacheHits(), ShouldEqual, int64(0))
		So(m.CacheMisses(), ShouldEqual, int64(0))
		So(m.ConflictsDetected(), ShouldEqual, int64(0))
		So(m.CyclesDetected(), ShouldEqual, int64(0))

		m.incNodesEvaluated()
		m.incInputsResolved()
		m.incInputsResolved()
		m.addCacheStats(3, 1)
		m.incConflictsDetected()
		m.incCyclesDetected()
		So(m.NodesEvaluated(), ShouldEqual, int64(1))
		So(m.InputsResolved(), ShouldEqual, int64(2))
		So(m.CacheHits(), ShouldEqual, int64(3))
		So(m.CacheMisses(), ShouldEqual, int64(1))
		So(m.ConflictsDetected(), ShouldEqual, int64(1))
		So(m.CyclesDetected(), ShouldEqual, int64(1))
	})

	Convey("a real evaluation reports conflicts and cycles it actually hit", t, func() {
		x := floatID("X")
		a := literalNode("a", x, 1.0)
		b := literalNode("b", x, 2.0)
		g, err := NewNodeGroup("root", []CalculationNode{AsAtomicNode(a), AsAtomicNode(b)}, nil, ExcludeScope())
		So(err, ShouldBeNil)

		metrics := NewMetrics()
		ev := NewEvaluator(DefaultEngineConfig())
		ev.EvaluateForResult(AsGroupNode(g), NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil, metrics)
		So(metrics.ConflictsDetected(), ShouldEqual, int64(1))
	})

	Convey("a cycle is counted once per re-entered frame", t, func() {
		a := floatID("A")
		b := floatID("B")
		nodeA := &consumerNode{name: "nodeA", in: b, out: a}
		nodeB := &consumerNode{name: "nodeB", in: a, out: b}
		g, err := NewNodeGroup("root", []CalculationNode{AsAtomicNode(nodeA), AsAtomicNode(nodeB)}, nil, ExcludeScope())
		So(err, ShouldBeNil)

		metrics := NewMetrics()
		ev := NewEvaluator(DefaultEngineConfig())
		ev.EvaluateForResult(AsGroupNode(g), NewSnapshot(nil, nil), []ResourceIdentifier{a}, nil, metrics)
		So(metrics.CyclesDetected(), ShouldBeGreaterThan, int64(0))
	})
}
