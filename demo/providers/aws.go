package providers

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

// SSMParameterNode is a leaf node whose single output is one AWS SSM
// Parameter Store value, grounded on graft's aws operator (op_aws.go:
// ssm.GetParameterInput{Name, WithDecryption} / client.GetParameter).
type SSMParameterNode struct {
	name   string
	client ssmiface.SSMAPI
	param  string
	out    *nodeflow.Identifier
}

// NewSSMParameterNode builds an SSMParameterNode reading param via
// client, producing out, always requesting decryption (matching
// graft's WithDecryption: true default).
func NewSSMParameterNode(name string, client ssmiface.SSMAPI, param string, out *nodeflow.Identifier) *SSMParameterNode {
	return &SSMParameterNode{name: name, client: client, param: param, out: out}
}

func (n *SSMParameterNode) Name() string { return n.name }
func (n *SSMParameterNode) Tag() string  { return "SSMParameterNode" }

func (n *SSMParameterNode) Inputs() []nodeflow.ResourceIdentifier { return nil }

func (n *SSMParameterNode) Outputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{n.out}
}

func (n *SSMParameterNode) ResolveDependencies(nodeflow.Snapshot, nodeflow.Values) []nodeflow.ResourceIdentifier {
	return nil
}

func (n *SSMParameterNode) Compute(nodeflow.Snapshot, nodeflow.Values) nodeflow.Values {
	input := &ssm.GetParameterInput{Name: aws.String(n.param), WithDecryption: aws.Bool(true)}
	output, err := n.client.GetParameter(input)
	if err != nil {
		return nodeflow.Values{n.out.Key(): nodeflow.ErrKind[nodeflow.Value](
			nodeflow.ComputeFailure, fmt.Sprintf("ssm GetParameter %s failed: %v", n.param, err))}
	}
	return nodeflow.Values{n.out.Key(): nodeflow.Ok[nodeflow.Value](aws.StringValue(output.Parameter.Value))}
}

func (n *SSMParameterNode) Params() map[string]interface{} {
	return map[string]interface{}{"name": n.name, "param": n.param}
}

var sharedSSMClient ssmiface.SSMAPI

// RegisterSSMClient installs the shared SSM client used by nodes
// reconstructed from wire data.
func RegisterSSMClient(client ssmiface.SSMAPI) { sharedSSMClient = client }

func constructSSMParameterNode(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	if sharedSSMClient == nil {
		return nil, fmt.Errorf("providers: no SSM client registered; call RegisterSSMClient first")
	}
	name, _ := params["name"].(string)
	param, _ := params["param"].(string)
	out := quoteIdentifier("SSMParameter", param, "")
	return NewSSMParameterNode(name, sharedSSMClient, param, out), nil
}
