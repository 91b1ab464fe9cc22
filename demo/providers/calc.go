package providers

import (
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

type exprVarBinding struct {
	varName                    string
	ridTag, instrument, source string
	rid                        *nodeflow.Identifier
}

// ExprAtomicNode computes its single output by evaluating a govaluate
// expression over its declared inputs, grounded on graft's calc operator
// (op_calc.go: NewEvaluableExpressionWithFunctions / expression.Evaluate).
type ExprAtomicNode struct {
	name      string
	expr      string
	evaluable *govaluate.EvaluableExpression
	bindings  []exprVarBinding
	outRidTag, outInstrument, outSource string
	out       *nodeflow.Identifier
}

// NewExprAtomicNode compiles expr and binds its free variables to
// finance-style quote identifiers by name (vars[i] corresponds to
// ridTags[i]/instrument/source).
func NewExprAtomicNode(name, expr string, vars, ridTags []string, instrument, source string, outRidTag string) (*ExprAtomicNode, error) {
	if len(vars) != len(ridTags) {
		return nil, fmt.Errorf("providers: ExprAtomicNode %s: %d vars but %d ridTags", name, len(vars), len(ridTags))
	}
	evaluable, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("providers: ExprAtomicNode %s: %w", name, err)
	}
	bindings := make([]exprVarBinding, len(vars))
	for i, v := range vars {
		bindings[i] = exprVarBinding{
			varName: v, ridTag: ridTags[i], instrument: instrument, source: source,
			rid: quoteIdentifier(ridTags[i], instrument, source),
		}
	}
	return &ExprAtomicNode{
		name: name, expr: expr, evaluable: evaluable, bindings: bindings,
		outRidTag: outRidTag, outInstrument: instrument, outSource: source,
		out: quoteIdentifier(outRidTag, instrument, source),
	}, nil
}

func (n *ExprAtomicNode) Name() string { return n.name }
func (n *ExprAtomicNode) Tag() string  { return "ExprAtomicNode" }

func (n *ExprAtomicNode) Inputs() []nodeflow.ResourceIdentifier {
	out := make([]nodeflow.ResourceIdentifier, len(n.bindings))
	for i, b := range n.bindings {
		out[i] = b.rid
	}
	return out
}

func (n *ExprAtomicNode) Outputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{n.out}
}

func (n *ExprAtomicNode) ResolveDependencies(_ nodeflow.Snapshot, known nodeflow.Values) []nodeflow.ResourceIdentifier {
	var need []nodeflow.ResourceIdentifier
	for _, b := range n.bindings {
		if _, ok := known[b.rid.Key()]; !ok {
			need = append(need, b.rid)
		}
	}
	return need
}

func (n *ExprAtomicNode) Compute(_ nodeflow.Snapshot, known nodeflow.Values) nodeflow.Values {
	params := make(map[string]interface{}, len(n.bindings))
	for _, b := range n.bindings {
		res, ok := known[b.rid.Key()]
		if !ok {
			return nodeflow.Values{}
		}
		val, ok := res.Value()
		if !ok {
			info, _ := res.Error()
			return nodeflow.Values{n.out.Key(): nodeflow.Err[nodeflow.Value](info)}
		}
		params[b.varName] = val
	}
	result, err := n.evaluable.Evaluate(params)
	if err != nil {
		return nodeflow.Values{n.out.Key(): nodeflow.ErrKind[nodeflow.Value](
			nodeflow.ComputeFailure, "expression evaluation failed: "+err.Error())}
	}
	return nodeflow.Values{n.out.Key(): nodeflow.Ok[nodeflow.Value](result)}
}

func (n *ExprAtomicNode) Params() map[string]interface{} {
	vars := make([]string, len(n.bindings))
	ridTags := make([]string, len(n.bindings))
	for i, b := range n.bindings {
		vars[i] = b.varName
		ridTags[i] = b.ridTag
	}
	return map[string]interface{}{
		"name": n.name, "expr": n.expr, "vars": vars, "ridTags": ridTags,
		"instrument": n.outInstrument, "source": n.outSource, "outRidTag": n.outRidTag,
	}
}

func constructExprAtomicNode(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	name, _ := params["name"].(string)
	expr, _ := params["expr"].(string)
	instrument, _ := params["instrument"].(string)
	source, _ := params["source"].(string)
	outRidTag, _ := params["outRidTag"].(string)
	vars, err := stringSlice(params["vars"])
	if err != nil {
		return nil, err
	}
	ridTags, err := stringSlice(params["ridTags"])
	if err != nil {
		return nil, err
	}
	return NewExprAtomicNode(name, expr, vars, ridTags, instrument, source, outRidTag)
}

func stringSlice(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss, nil
		}
		return nil, fmt.Errorf("providers: expected a string array, got %T", v)
	}
	out := make([]string, len(raw))
	for i, e := range raw {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("providers: expected string at index %d, got %T", i, e)
		}
		out[i] = s
	}
	return out, nil
}
