package nodeflow

import "testing"

// FixtureNode is a minimal AtomicNode for tests: it declares fixed
// inputs/outputs and returns Literal verbatim from Compute, ignoring
// whatever it actually read. Grounded on graft's own testing.go fixture
// operators (a fixed-output Operator used across its evaluator tests
// instead of hand-writing a new stub type per test file).
type FixtureNode struct {
	NodeName string
	In       []ResourceIdentifier
	Out      []ResourceIdentifier
	Literal  Values

	// DependsFn overrides ResolveDependencies when set, for tests that
	// exercise the iteration protocol's multi-round discovery.
	DependsFn func(snap Snapshot, known Values) []ResourceIdentifier
}

func (f *FixtureNode) Name() string { return f.NodeName }

func (f *FixtureNode) Tag() string { return "FixtureNode" }

func (f *FixtureNode) Inputs() []ResourceIdentifier { return f.In }

func (f *FixtureNode) Outputs() []ResourceIdentifier { return f.Out }

func (f *FixtureNode) ResolveDependencies(snap Snapshot, known Values) []ResourceIdentifier {
	if f.DependsFn != nil {
		return f.DependsFn(snap, known)
	}
	return f.In
}

func (f *FixtureNode) Compute(snap Snapshot, values Values) Values { return f.Literal }

func (f *FixtureNode) Params() map[string]interface{} {
	return map[string]interface{}{"name": f.NodeName}
}

// RequireSuccess fails t immediately if v is a Failure, else returns its
// carried value. Used throughout the resolver/evaluator tests to avoid
// repeating the Value()/ok boilerplate at every assertion site.
func RequireSuccess(t *testing.T, v Result[Value]) Value {
	t.Helper()
	val, ok := v.Value()
	if !ok {
		info, _ := v.Error()
		t.Fatalf("expected success, got failure: %s", info.Error())
	}
	return val
}

// RequireFailureKind fails t immediately if v is a Success, or if it is
// a Failure of a different ErrorKind than want.
func RequireFailureKind(t *testing.T, v Result[Value], want ErrorKind) ErrorInfo {
	t.Helper()
	info, failed := v.Error()
	if !failed {
		t.Fatalf("expected failure of kind %s, got success", want)
	}
	if info.Kind != want {
		t.Fatalf("expected failure kind %s, got %s (%s)", want, info.Kind, info.Message)
	}
	return info
}
