package nodeflow

import (
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func floatID(tag string) *Identifier {
	return NewIdentifier(tag, reflect.TypeOf(float64(0)))
}

func TestNodeGroupOutputs(t *testing.T) {
	Convey("NodeGroup.Outputs", t, func() {
		a := &FixtureNode{NodeName: "a", Out: []ResourceIdentifier{floatID("A")}}
		b := &FixtureNode{NodeName: "b", Out: []ResourceIdentifier{floatID("B")}}

		Convey("is the union of children's outputs under an Include scope", func() {
			g, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(a), AsAtomicNode(b)}, nil,
				IncludeScope(ConnectionPoint{NodePath: "a", Rid: floatID("A")}))
			So(err, ShouldBeNil)

			keys := map[string]bool{}
			for _, rid := range g.Outputs() {
				keys[rid.Key()] = true
			}
			So(keys, ShouldResemble, map[string]bool{"A": true})
		})

		Convey("Exclude scope exports everything when empty", func() {
			g, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(a), AsAtomicNode(b)}, nil, ExcludeScope())
			So(err, ShouldBeNil)
			So(len(g.Outputs()), ShouldEqual, 2)
		})

		Convey("is pure: repeated calls return equal results", func() {
			g, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(a), AsAtomicNode(b)}, nil, ExcludeScope())
			So(err, ShouldBeNil)
			first := g.Outputs()
			second := g.Outputs()
			So(len(first), ShouldEqual, len(second))
			for i := range first {
				So(first[i].Key(), ShouldEqual, second[i].Key())
			}
		})
	})
}

func TestNodeGroupInputs(t *testing.T) {
	Convey("NodeGroup.Inputs", t, func() {
		producer := &FixtureNode{NodeName: "producer", Out: []ResourceIdentifier{floatID("X")}}
		consumer := &FixtureNode{NodeName: "consumer", In: []ResourceIdentifier{floatID("X"), floatID("Y")}}

		g, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(producer), AsAtomicNode(consumer)}, nil, ExcludeScope())
		So(err, ShouldBeNil)

		Convey("excludes inputs satisfied by a sibling's output", func() {
			keys := map[string]bool{}
			for _, rid := range g.Inputs() {
				keys[rid.Key()] = true
			}
			So(keys, ShouldResemble, map[string]bool{"Y": true})
		})

		Convey("is independent of export scope", func() {
			g2, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(producer), AsAtomicNode(consumer)}, nil,
				IncludeScope())
			So(err, ShouldBeNil)
			So(len(g2.Inputs()), ShouldEqual, len(g.Inputs()))
		})
	})
}

func TestNodeGroupConstructionValidation(t *testing.T) {
	Convey("NewNodeGroup", t, func() {
		Convey("rejects duplicate child names", func() {
			a := &FixtureNode{NodeName: "dup"}
			b := &FixtureNode{NodeName: "dup"}
			_, err := NewNodeGroup("g", []CalculationNode{AsAtomicNode(a), AsAtomicNode(b)}, nil, ExcludeScope())
			So(err, ShouldNotBeNil)
			So(KindOf(err), ShouldEqual, ConfigurationConflict)
		})
	})
}

func TestFlywireTypeCheck(t *testing.T) {
	Convey("NewFlywire", t, func() {
		Convey("rejects a type-incompatible target", func() {
			source := ConnectionPoint{NodePath: "a", Rid: floatID("A")}
			target := ConnectionPoint{NodePath: "b", Rid: NewIdentifier("B", reflect.TypeOf(""))}
			_, err := NewFlywire(source, target)
			So(err, ShouldNotBeNil)
			So(KindOf(err), ShouldEqual, TypeIncompatibility)
		})

		Convey("accepts an assignable target", func() {
			source := ConnectionPoint{NodePath: "a", Rid: floatID("A")}
			target := ConnectionPoint{NodePath: "b", Rid: floatID("B")}
			fw, err := NewFlywire(source, target)
			So(err, ShouldBeNil)
			So(fw.Source.NodePath, ShouldEqual, "a")
		})
	})
}
