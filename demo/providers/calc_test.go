package providers

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

func TestExprAtomicNode(t *testing.T) {
	Convey("ExprAtomicNode evaluates a govaluate expression over its inputs", t, func() {
		ask := NewQuoteProvider("ask", "Ask", "APPLE", "Bloomberg", 100.0)
		bid := NewQuoteProvider("bid", "Bid", "APPLE", "Bloomberg", 98.0)
		expr, err := NewExprAtomicNode("mid", "(ask + bid) / 2",
			[]string{"ask", "bid"}, []string{"Ask", "Bid"}, "APPLE", "Bloomberg", "Mid")
		So(err, ShouldBeNil)

		g, err := nodeflow.NewNodeGroup("root",
			[]nodeflow.CalculationNode{nodeflow.AsAtomicNode(ask), nodeflow.AsAtomicNode(bid), nodeflow.AsAtomicNode(expr)},
			nil, nodeflow.ExcludeScope())
		So(err, ShouldBeNil)

		v := evalSingle(nodeflow.AsGroupNode(g), quoteIdentifier("Mid", "APPLE", "Bloomberg"))
		val, ok := v.Value()
		So(ok, ShouldBeTrue)
		So(val, ShouldEqual, 99.0)
	})

	Convey("a malformed expression fails construction", t, func() {
		_, err := NewExprAtomicNode("bad", "(((", nil, nil, "APPLE", "Bloomberg", "Mid")
		So(err, ShouldNotBeNil)
	})

	Convey("Params/construct round-trips an ExprAtomicNode", t, func() {
		original, err := NewExprAtomicNode("mid", "ask - bid",
			[]string{"ask", "bid"}, []string{"Ask", "Bid"}, "APPLE", "Bloomberg", "Mid")
		So(err, ShouldBeNil)

		back, err := constructExprAtomicNode(original.Params())
		So(err, ShouldBeNil)
		So(back.Name(), ShouldEqual, "mid")
		So(back.Outputs()[0].Key(), ShouldEqual, original.Outputs()[0].Key())
		So(len(back.Inputs()), ShouldEqual, len(original.Inputs()))
	})
}
