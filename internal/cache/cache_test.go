package cache

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConcurrentCacheGetSet(t *testing.T) {
	Convey("ConcurrentCache", t, func() {
		c := New(Config{})

		Convey("Get on a missing key reports a miss", func() {
			_, found := c.Get("missing")
			So(found, ShouldBeFalse)
			So(c.Stats().Misses, ShouldEqual, uint64(1))
		})

		Convey("Set then Get reports a hit with the stored value", func() {
			c.Set("k", 42)
			v, found := c.Get("k")
			So(found, ShouldBeTrue)
			So(v, ShouldEqual, 42)
			So(c.Stats().Sets, ShouldEqual, uint64(1))
			So(c.Stats().Hits, ShouldEqual, uint64(1))
		})

		Convey("SetWithTTL expires an entry after its ttl elapses", func() {
			c.SetWithTTL("k", "v", time.Millisecond)
			time.Sleep(5 * time.Millisecond)
			_, found := c.Get("k")
			So(found, ShouldBeFalse)
		})

		Convey("a zero ttl never expires", func() {
			c.SetWithTTL("k", "v", 0)
			time.Sleep(5 * time.Millisecond)
			v, found := c.Get("k")
			So(found, ShouldBeTrue)
			So(v, ShouldEqual, "v")
		})
	})
}

func TestConcurrentCacheShardCountRoundsUpToPowerOfTwo(t *testing.T) {
	Convey("New rounds a non-power-of-two Shards count up", t, func() {
		c := New(Config{Shards: 5})
		So(len(c.shards), ShouldEqual, 8)
	})

	Convey("New defaults to 16 shards when unset", t, func() {
		c := New(Config{})
		So(len(c.shards), ShouldEqual, 16)
	})
}
