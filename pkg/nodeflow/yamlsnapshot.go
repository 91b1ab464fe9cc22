package nodeflow

import "gopkg.in/yaml.v3"

// ToYAMLSnapshot renders n in the same structural shape ToJSON uses, but
// as YAML rather than the canonical JSON wire form: a diagnostic-only
// view consumed by diff.go, not a round-trippable serialization (spec.md
// §4.10's round-trip contract is JSON-only).
func ToYAMLSnapshot(n CalculationNode) ([]byte, error) {
	return yaml.Marshal(nodeToWire(n))
}

// ToYAMLSnapshotResult renders an EvaluationResult the same way.
func ToYAMLSnapshotResult(r *EvaluationResult) ([]byte, error) {
	return yaml.Marshal(evaluationResultToWire(r))
}
