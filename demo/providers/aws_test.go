package providers

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

// fakeSSM embeds the SSMAPI interface so it satisfies ssmiface.SSMAPI
// without implementing every method; only GetParameter is exercised by
// SSMParameterNode.Compute.
type fakeSSM struct {
	ssmiface.SSMAPI
	output *ssm.GetParameterOutput
	err    error
}

func (f *fakeSSM) GetParameter(*ssm.GetParameterInput) (*ssm.GetParameterOutput, error) {
	return f.output, f.err
}

func TestSSMParameterNode(t *testing.T) {
	Convey("SSMParameterNode", t, func() {
		out := quoteIdentifier("SSMParameter", "my-param", "")

		Convey("produces the decrypted parameter value on success", func() {
			client := &fakeSSM{output: &ssm.GetParameterOutput{
				Parameter: &ssm.Parameter{Value: aws.String("secret-value")},
			}}
			node := NewSSMParameterNode("param", client, "my-param", out)

			values := node.Compute(nodeflow.Snapshot{}, nil)
			v, ok := values[out.Key()].Value()
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "secret-value")
		})

		Convey("surfaces a ComputeFailure when the API call errors", func() {
			client := &fakeSSM{err: errors.New("access denied")}
			node := NewSSMParameterNode("param", client, "my-param", out)

			values := node.Compute(nodeflow.Snapshot{}, nil)
			v := values[out.Key()]
			So(v.IsFailure(), ShouldBeTrue)
		})
	})
}

func TestSSMParameterNodeRegistration(t *testing.T) {
	Convey("constructSSMParameterNode requires a registered client", t, func() {
		sharedSSMClient = nil
		_, err := constructSSMParameterNode(map[string]interface{}{"name": "p", "param": "x"})
		So(err, ShouldNotBeNil)

		RegisterSSMClient(&fakeSSM{})
		back, err := constructSSMParameterNode(map[string]interface{}{"name": "p", "param": "x"})
		So(err, ShouldBeNil)
		So(back.Name(), ShouldEqual, "p")
	})
}
