package providers

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cloudfoundry-community/vaultkv"
)

func TestVaultSecretNodeParams(t *testing.T) {
	Convey("VaultSecretNode", t, func() {
		out := quoteIdentifier("VaultSecret", "secret/db", "password")
		node := NewVaultSecretNode("db-password", &vaultkv.KV{}, "secret/db", "password", out)

		So(node.Name(), ShouldEqual, "db-password")
		So(node.Outputs()[0].Key(), ShouldEqual, out.Key())
		So(node.Params(), ShouldResemble, map[string]interface{}{
			"name": "db-password", "secretPath": "secret/db", "key": "password",
		})
	})
}

func TestVaultSecretNodeRegistration(t *testing.T) {
	Convey("constructVaultSecretNode requires a registered client", t, func() {
		sharedVaultClient = nil
		_, err := constructVaultSecretNode(map[string]interface{}{"name": "n", "secretPath": "secret/db", "key": "password"})
		So(err, ShouldNotBeNil)

		RegisterVaultClient(&vaultkv.KV{})
		back, err := constructVaultSecretNode(map[string]interface{}{"name": "n", "secretPath": "secret/db", "key": "password"})
		So(err, ShouldBeNil)
		So(back.Name(), ShouldEqual, "n")
	})
}
