package nodeflow

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDiffNodesIdentical(t *testing.T) {
	Convey("DiffNodes reports no changes between a node and itself", t, func() {
		x := floatID("X")
		n := AsAtomicNode(literalNode("producer", x, 1.0))

		report, changed, err := DiffNodes(n, n)
		So(err, ShouldBeNil)
		So(changed, ShouldBeFalse)
		So(report, ShouldEqual, "")
	})
}

func TestDiffNodesDiffering(t *testing.T) {
	Convey("DiffNodes reports a change when a literal's value differs", t, func() {
		a := AsAtomicNode(newWireLiteralNode("producer", "X", 1.0))
		b := AsAtomicNode(newWireLiteralNode("producer", "X", 2.0))

		report, changed, err := DiffNodes(a, b)
		So(err, ShouldBeNil)
		So(changed, ShouldBeTrue)
		So(report, ShouldNotEqual, "")
	})
}

func TestDiffEvaluations(t *testing.T) {
	Convey("DiffEvaluations reports a change when a result value differs", t, func() {
		x := floatID("X")
		rootOne := AsAtomicNode(literalNode("producer", x, 1.0))
		rootTwo := AsAtomicNode(literalNode("producer", x, 2.0))

		e := NewEvaluator(DefaultEngineConfig())
		resultA := e.EvaluateForResult(rootOne, NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil, NewMetrics())
		resultB := e.EvaluateForResult(rootTwo, NewSnapshot(nil, nil), []ResourceIdentifier{x}, nil, NewMetrics())

		report, changed, err := DiffEvaluations(resultA, resultB)
		So(err, ShouldBeNil)
		So(changed, ShouldBeTrue)
		So(report, ShouldNotEqual, "")
	})
}
