package providers

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

func TestDemoNodesRegisteredOnDefaultRegistry(t *testing.T) {
	Convey("every demo AtomicNode tag constructs through DefaultRegistry", t, func() {
		Convey("QuoteProvider", func() {
			n, err := nodeflow.DefaultRegistry.ConstructNode("QuoteProvider", map[string]interface{}{
				"name": "ask", "ridTag": "Ask", "instrument": "APPLE", "source": "Bloomberg", "value": 100.0,
			})
			So(err, ShouldBeNil)
			So(n.Name(), ShouldEqual, "ask")
		})

		Convey("HardcodeAttributeProvider", func() {
			n, err := nodeflow.DefaultRegistry.ConstructNode("HardcodeAttributeProvider", map[string]interface{}{
				"name": "override", "ridTag": "Ask", "instrument": "APPLE", "source": "Bloomberg", "value": 120.0,
			})
			So(err, ShouldBeNil)
			So(n.Name(), ShouldEqual, "override")
		})

		Convey("MidSpreadCalculator", func() {
			n, err := nodeflow.DefaultRegistry.ConstructNode("MidSpreadCalculator", map[string]interface{}{
				"name": "mid", "instrument": "APPLE", "source": "Bloomberg",
			})
			So(err, ShouldBeNil)
			So(n.Name(), ShouldEqual, "mid")
		})

		Convey("ExprAtomicNode", func() {
			n, err := nodeflow.DefaultRegistry.ConstructNode("ExprAtomicNode", map[string]interface{}{
				"name": "mid", "expr": "ask - bid",
				"vars": []string{"ask", "bid"}, "ridTags": []string{"Ask", "Bid"},
				"instrument": "APPLE", "source": "Bloomberg", "outRidTag": "Mid",
			})
			So(err, ShouldBeNil)
			So(n.Name(), ShouldEqual, "mid")
		})

		Convey("VaultSecretNode requires a registered client", func() {
			_, err := nodeflow.DefaultRegistry.ConstructNode("VaultSecretNode", map[string]interface{}{
				"name": "db", "secretPath": "secret/db", "key": "password",
			})
			So(err, ShouldNotBeNil)
		})

		Convey("SSMParameterNode requires a registered client", func() {
			sharedSSMClient = nil
			_, err := nodeflow.DefaultRegistry.ConstructNode("SSMParameterNode", map[string]interface{}{
				"name": "p", "param": "x",
			})
			So(err, ShouldNotBeNil)
		})
	})
}
