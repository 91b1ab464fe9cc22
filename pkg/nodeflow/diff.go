package nodeflow

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff"
)

// DiffNodes renders a and b to their YAML snapshot form (yamlsnapshot.go)
// and runs dyff.CompareInputFiles over them, giving the Sub-graph
// Extractor (C9) and idempotence tests a readable structural diff
// instead of a raw reflect.DeepEqual mismatch, grounded on graft's own
// `diff` CLI subcommand (cmd/graft/main.go: ytbx.LoadFiles +
// dyff.CompareInputFiles + dyff.HumanReport).
func DiffNodes(a, b CalculationNode) (string, bool, error) {
	aYAML, err := ToYAMLSnapshot(a)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: rendering first snapshot: %w", err)
	}
	bYAML, err := ToYAMLSnapshot(b)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: rendering second snapshot: %w", err)
	}
	return diffYAML(aYAML, bYAML)
}

// DiffEvaluations is DiffNodes's counterpart for two EvaluationResults.
func DiffEvaluations(a, b *EvaluationResult) (string, bool, error) {
	aYAML, err := ToYAMLSnapshotResult(a)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: rendering first evaluation snapshot: %w", err)
	}
	bYAML, err := ToYAMLSnapshotResult(b)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: rendering second evaluation snapshot: %w", err)
	}
	return diffYAML(aYAML, bYAML)
}

func diffYAML(aYAML, bYAML []byte) (string, bool, error) {
	aFile, err := writeTempYAML(aYAML)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(aFile)

	bFile, err := writeTempYAML(bYAML)
	if err != nil {
		return "", false, err
	}
	defer os.Remove(bFile)

	from, to, err := ytbx.LoadFiles(aFile, bFile)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: loading snapshots for diff: %w", err)
	}

	report, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", false, fmt.Errorf("nodeflow: comparing snapshots: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", false, nil
	}

	reportWriter := &dyff.HumanReport{Report: report, OmitHeader: true}
	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := reportWriter.WriteReport(out); err != nil {
		return "", false, fmt.Errorf("nodeflow: writing diff report: %w", err)
	}
	out.Flush()

	return buf.String(), len(report.Diffs) > 0, nil
}

func writeTempYAML(data []byte) (string, error) {
	f, err := os.CreateTemp("", "nodeflow-snapshot-*.yaml")
	if err != nil {
		return "", fmt.Errorf("nodeflow: creating temp snapshot file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("nodeflow: writing temp snapshot file: %w", err)
	}
	return f.Name(), nil
}
