package providers

import (
	"fmt"

	"github.com/cloudfoundry-community/vaultkv"
	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

// VaultSecretNode is a leaf node whose single output is one key read out
// of a Vault KV secret, grounded on graft's vault operator
// (op_vault.go: kvClient.Get(secret, &ret, nil) into a map[string]interface{}).
type VaultSecretNode struct {
	name       string
	client     *vaultkv.KV
	secretPath string
	key        string
	out        *nodeflow.Identifier
}

// NewVaultSecretNode builds a VaultSecretNode reading key out of the
// secret at secretPath via client, producing out.
func NewVaultSecretNode(name string, client *vaultkv.KV, secretPath, key string, out *nodeflow.Identifier) *VaultSecretNode {
	return &VaultSecretNode{name: name, client: client, secretPath: secretPath, key: key, out: out}
}

func (n *VaultSecretNode) Name() string { return n.name }
func (n *VaultSecretNode) Tag() string  { return "VaultSecretNode" }

func (n *VaultSecretNode) Inputs() []nodeflow.ResourceIdentifier { return nil }

func (n *VaultSecretNode) Outputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{n.out}
}

func (n *VaultSecretNode) ResolveDependencies(nodeflow.Snapshot, nodeflow.Values) []nodeflow.ResourceIdentifier {
	return nil
}

func (n *VaultSecretNode) Compute(nodeflow.Snapshot, nodeflow.Values) nodeflow.Values {
	dest := map[string]interface{}{}
	if _, err := n.client.Get(n.secretPath, &dest, nil); err != nil {
		return nodeflow.Values{n.out.Key(): nodeflow.ErrKind[nodeflow.Value](
			nodeflow.ComputeFailure, fmt.Sprintf("vault fetch of %s failed: %v", n.secretPath, err))}
	}
	val, ok := dest[n.key]
	if !ok {
		return nodeflow.Values{n.out.Key(): nodeflow.ErrKind[nodeflow.Value](
			nodeflow.ComputeFailure, fmt.Sprintf("vault secret %s has no key %q", n.secretPath, n.key))}
	}
	return nodeflow.Values{n.out.Key(): nodeflow.Ok[nodeflow.Value](val)}
}

func (n *VaultSecretNode) Params() map[string]interface{} {
	return map[string]interface{}{"name": n.name, "secretPath": n.secretPath, "key": n.key}
}

// constructVaultSecretNode cannot reconstruct a *vaultkv.KV client from a
// JSON record alone; a secret node round-tripped through the wire format
// is rebound to the process's shared Vault client at load time by the
// caller, through the RegisterVaultClient hook below.
var sharedVaultClient *vaultkv.KV

// RegisterVaultClient installs the shared vaultkv.KV client used by
// nodes reconstructed from wire data.
func RegisterVaultClient(client *vaultkv.KV) { sharedVaultClient = client }

func constructVaultSecretNode(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	if sharedVaultClient == nil {
		return nil, fmt.Errorf("providers: no vault client registered; call RegisterVaultClient first")
	}
	name, _ := params["name"].(string)
	secretPath, _ := params["secretPath"].(string)
	key, _ := params["key"].(string)
	out := quoteIdentifier("VaultSecret", secretPath, key)
	return NewVaultSecretNode(name, sharedVaultClient, secretPath, key, out), nil
}
