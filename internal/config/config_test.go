package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultConfig(t *testing.T) {
	Convey("DefaultConfig", t, func() {
		cfg := DefaultConfig()

		So(cfg.Engine.DataflowOrder, ShouldEqual, "insertion")
		So(cfg.Engine.MaxResolveRounds, ShouldBeGreaterThan, 0)
		So(Validate(cfg), ShouldBeNil)
	})
}

func TestLoad(t *testing.T) {
	Convey("Load", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nodeflow.yaml")

		Convey("overlays a YAML file on the default configuration", func() {
			So(os.WriteFile(path, []byte("engine:\n  dataflow_order: alphabetical\n"), 0o644), ShouldBeNil)

			cfg, err := Load(path)
			So(err, ShouldBeNil)
			So(cfg.Engine.DataflowOrder, ShouldEqual, "alphabetical")
			So(cfg.Engine.MaxResolveRounds, ShouldEqual, DefaultConfig().Engine.MaxResolveRounds)
		})

		Convey("rejects an invalid dataflow order", func() {
			So(os.WriteFile(path, []byte("engine:\n  dataflow_order: sideways\n"), 0o644), ShouldBeNil)

			_, err := Load(path)
			So(err, ShouldNotBeNil)
		})

		Convey("applies env overrides for tagged fields", func() {
			So(os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644), ShouldBeNil)
			os.Setenv("NODEFLOW_LOG_LEVEL", "debug")
			defer os.Unsetenv("NODEFLOW_LOG_LEVEL")

			cfg, err := Load(path)
			So(err, ShouldBeNil)
			So(cfg.Logging.Level, ShouldEqual, "debug")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Validate", t, func() {
		cfg := DefaultConfig()

		Convey("rejects a non-positive resolve round budget", func() {
			cfg.Engine.MaxResolveRounds = 0
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects a negative cache size", func() {
			cfg.Performance.CacheSize = -1
			So(Validate(cfg), ShouldNotBeNil)
		})

		Convey("rejects an unknown log level", func() {
			cfg.Logging.Level = "verbose"
			So(Validate(cfg), ShouldNotBeNil)
		})
	})
}
