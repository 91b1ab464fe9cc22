package providers

import "github.com/nodeflow/nodeflow/pkg/nodeflow"

// init wires every demo AtomicNode tag into the process-wide registry, the
// same register-at-import-time pattern graft's operators package uses
// for its built-in operators (operators/init.go).
func init() {
	nodeflow.DefaultRegistry.RegisterNodeType("QuoteProvider", constructQuoteProvider)
	nodeflow.DefaultRegistry.RegisterNodeType("HardcodeAttributeProvider", constructHardcodeAttributeProvider)
	nodeflow.DefaultRegistry.RegisterNodeType("MidSpreadCalculator", constructMidSpreadCalculator)
	nodeflow.DefaultRegistry.RegisterNodeType("ExprAtomicNode", constructExprAtomicNode)
	nodeflow.DefaultRegistry.RegisterNodeType("VaultSecretNode", constructVaultSecretNode)
	nodeflow.DefaultRegistry.RegisterNodeType("SSMParameterNode", constructSSMParameterNode)
}
