package nodeflow

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOrderRequestedAlphabetical(t *testing.T) {
	Convey("orderRequested", t, func() {
		requested := []ResourceIdentifier{floatID("Zebra"), floatID("Apple"), floatID("Mango")}

		Convey("insertion (the default) preserves the caller's order", func() {
			ordered := orderRequested(requested, "insertion")
			So(ordered[0].Key(), ShouldEqual, floatID("Zebra").Key())
			So(ordered[1].Key(), ShouldEqual, floatID("Apple").Key())
			So(ordered[2].Key(), ShouldEqual, floatID("Mango").Key())
		})

		Convey("an empty order string also preserves insertion order", func() {
			ordered := orderRequested(requested, "")
			So(ordered[0].Key(), ShouldEqual, floatID("Zebra").Key())
		})

		Convey("alphabetical sorts by rid key", func() {
			ordered := orderRequested(requested, "alphabetical")
			So(ordered[0].Key(), ShouldEqual, floatID("Apple").Key())
			So(ordered[1].Key(), ShouldEqual, floatID("Mango").Key())
			So(ordered[2].Key(), ShouldEqual, floatID("Zebra").Key())
		})

		Convey("orderRequested never mutates the caller's slice", func() {
			orderRequested(requested, "alphabetical")
			So(requested[0].Key(), ShouldEqual, floatID("Zebra").Key())
		})
	})

	Convey("EvaluationResult.Results.Keys() follows the configured DataflowOrder", t, func() {
		zebra, apple, mango := floatID("Zebra"), floatID("Apple"), floatID("Mango")
		g, err := NewNodeGroup("root", []CalculationNode{
			AsAtomicNode(literalNode("zebra", zebra, 1.0)),
			AsAtomicNode(literalNode("apple", apple, 2.0)),
			AsAtomicNode(literalNode("mango", mango, 3.0)),
		}, nil, ExcludeScope())
		So(err, ShouldBeNil)

		cfg := DefaultEngineConfig()
		cfg.DataflowOrder = "alphabetical"
		ev := NewEvaluator(cfg)
		res := ev.EvaluateForResult(AsGroupNode(g), NewSnapshot(nil, nil),
			[]ResourceIdentifier{zebra, apple, mango}, nil, NewMetrics())

		keys := res.Results.Keys()
		So(keys[0], ShouldEqual, apple.Key())
		So(keys[1], ShouldEqual, mango.Key())
		So(keys[2], ShouldEqual, zebra.Key())
	})
}
