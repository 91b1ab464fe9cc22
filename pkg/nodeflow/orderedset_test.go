package nodeflow

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOrderedSet(t *testing.T) {
	Convey("OrderedSet preserves insertion order and ignores duplicates", t, func() {
		s := NewOrderedSet[string]()
		s.Add("b")
		s.Add("a")
		s.Add("b")

		So(s.Len(), ShouldEqual, 2)
		So(s.Items(), ShouldResemble, []string{"b", "a"})
		So(s.Contains("a"), ShouldBeTrue)
		So(s.Contains("z"), ShouldBeFalse)
	})
}

func TestOrderedMap(t *testing.T) {
	Convey("OrderedMap", t, func() {
		m := NewOrderedMap[string, int]()
		m.Set("b", 2)
		m.Set("a", 1)

		Convey("Keys preserves insertion order", func() {
			So(m.Keys(), ShouldResemble, []string{"b", "a"})
		})

		Convey("updating an existing key keeps its original position", func() {
			m.Set("b", 20)
			So(m.Keys(), ShouldResemble, []string{"b", "a"})
			v, ok := m.Get("b")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 20)
		})

		Convey("Delete removes a key and its position", func() {
			m.Delete("b")
			So(m.Keys(), ShouldResemble, []string{"a"})
			_, ok := m.Get("b")
			So(ok, ShouldBeFalse)
		})

		Convey("Clone is an independent copy", func() {
			c := m.Clone()
			c.Set("c", 3)
			So(m.Len(), ShouldEqual, 2)
			So(c.Len(), ShouldEqual, 3)
		})
	})
}
