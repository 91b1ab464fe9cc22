// Package providers supplies a small set of AtomicNode implementations
// used by the demo fixtures and tests: simple hardcoded/derived finance
// quotes, plus nodes that exercise the expression, Vault, and AWS SSM
// domain dependencies. None of this is part of the engine core; it is
// reference node authorship in the same spirit as graft's bundled
// operators package.
package providers

import (
	"reflect"

	"github.com/nodeflow/nodeflow/pkg/nodeflow"
)

var float64Type = reflect.TypeOf(float64(0))

func quoteIdentifier(ridTag, instrument, source string) *nodeflow.Identifier {
	return nodeflow.NewIdentifier(ridTag, float64Type, "instrument", instrument, "source", source)
}

// QuoteProvider is a leaf node that always produces the same hardcoded
// numeric value for one resource identifier — the AskProvider/
// BidProvider fixtures SPEC_FULL.md's finance scenarios describe.
type QuoteProvider struct {
	name               string
	ridTag             string
	instrument, source string
	value              float64
	out                *nodeflow.Identifier
}

// NewQuoteProvider builds a QuoteProvider producing ridTag<instrument,source> = value.
func NewQuoteProvider(name, ridTag, instrument, source string, value float64) *QuoteProvider {
	return &QuoteProvider{
		name: name, ridTag: ridTag, instrument: instrument, source: source, value: value,
		out: quoteIdentifier(ridTag, instrument, source),
	}
}

func (p *QuoteProvider) Name() string { return p.name }
func (p *QuoteProvider) Tag() string  { return "QuoteProvider" }

func (p *QuoteProvider) Inputs() []nodeflow.ResourceIdentifier { return nil }

func (p *QuoteProvider) Outputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{p.out}
}

func (p *QuoteProvider) ResolveDependencies(nodeflow.Snapshot, nodeflow.Values) []nodeflow.ResourceIdentifier {
	return nil
}

func (p *QuoteProvider) Compute(nodeflow.Snapshot, nodeflow.Values) nodeflow.Values {
	return nodeflow.Values{p.out.Key(): nodeflow.Ok[nodeflow.Value](p.value)}
}

func (p *QuoteProvider) Params() map[string]interface{} {
	return map[string]interface{}{
		"name": p.name, "ridTag": p.ridTag,
		"instrument": p.instrument, "source": p.source, "value": p.value,
	}
}

func constructQuoteProvider(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	name, _ := params["name"].(string)
	ridTag, _ := params["ridTag"].(string)
	instrument, _ := params["instrument"].(string)
	source, _ := params["source"].(string)
	value, _ := params["value"].(float64)
	return NewQuoteProvider(name, ridTag, instrument, source, value), nil
}

// HardcodeAttributeProvider is identical in shape to QuoteProvider but
// registered under its own tag: a node whose sole purpose is to be
// wired in as a flywire source that overrides a static dependency
// (SPEC_FULL.md's flywire-override scenario).
type HardcodeAttributeProvider struct {
	*QuoteProvider
}

// NewHardcodeAttributeProvider builds a HardcodeAttributeProvider.
func NewHardcodeAttributeProvider(name, ridTag, instrument, source string, value float64) *HardcodeAttributeProvider {
	return &HardcodeAttributeProvider{QuoteProvider: NewQuoteProvider(name, ridTag, instrument, source, value)}
}

func (p *HardcodeAttributeProvider) Tag() string { return "HardcodeAttributeProvider" }

func constructHardcodeAttributeProvider(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	name, _ := params["name"].(string)
	ridTag, _ := params["ridTag"].(string)
	instrument, _ := params["instrument"].(string)
	source, _ := params["source"].(string)
	value, _ := params["value"].(float64)
	return NewHardcodeAttributeProvider(name, ridTag, instrument, source, value), nil
}

// MidSpreadCalculator derives Mid<instrument,source> = (Ask + Bid) / 2
// from its two declared inputs, the simplest multi-input AtomicNode the
// demo offers.
type MidSpreadCalculator struct {
	name               string
	instrument, source string
	ask, bid, out      *nodeflow.Identifier
}

// NewMidSpreadCalculator builds a MidSpreadCalculator reading
// Ask/Bid<instrument,source> and producing Mid<instrument,source>.
func NewMidSpreadCalculator(name, instrument, source string) *MidSpreadCalculator {
	return &MidSpreadCalculator{
		name: name, instrument: instrument, source: source,
		ask: quoteIdentifier("Ask", instrument, source),
		bid: quoteIdentifier("Bid", instrument, source),
		out: quoteIdentifier("Mid", instrument, source),
	}
}

func (c *MidSpreadCalculator) Name() string { return c.name }
func (c *MidSpreadCalculator) Tag() string  { return "MidSpreadCalculator" }

func (c *MidSpreadCalculator) Inputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{c.ask, c.bid}
}

func (c *MidSpreadCalculator) Outputs() []nodeflow.ResourceIdentifier {
	return []nodeflow.ResourceIdentifier{c.out}
}

func (c *MidSpreadCalculator) ResolveDependencies(_ nodeflow.Snapshot, known nodeflow.Values) []nodeflow.ResourceIdentifier {
	var need []nodeflow.ResourceIdentifier
	for _, rid := range c.Inputs() {
		if _, ok := known[rid.Key()]; !ok {
			need = append(need, rid)
		}
	}
	return need
}

func (c *MidSpreadCalculator) Compute(_ nodeflow.Snapshot, known nodeflow.Values) nodeflow.Values {
	askResult, ok := known[c.ask.Key()]
	if !ok {
		return nodeflow.Values{}
	}
	bidResult, ok := known[c.bid.Key()]
	if !ok {
		return nodeflow.Values{}
	}
	ask, askOK := askResult.Value()
	bid, bidOK := bidResult.Value()
	if !askOK {
		info, _ := askResult.Error()
		return nodeflow.Values{c.out.Key(): nodeflow.Err[nodeflow.Value](info)}
	}
	if !bidOK {
		info, _ := bidResult.Error()
		return nodeflow.Values{c.out.Key(): nodeflow.Err[nodeflow.Value](info)}
	}
	askF, _ := ask.(float64)
	bidF, _ := bid.(float64)
	return nodeflow.Values{c.out.Key(): nodeflow.Ok[nodeflow.Value]((askF + bidF) / 2)}
}

func (c *MidSpreadCalculator) Params() map[string]interface{} {
	return map[string]interface{}{"name": c.name, "instrument": c.instrument, "source": c.source}
}

func constructMidSpreadCalculator(params map[string]interface{}) (nodeflow.AtomicNode, error) {
	name, _ := params["name"].(string)
	instrument, _ := params["instrument"].(string)
	source, _ := params["source"].(string)
	return NewMidSpreadCalculator(name, instrument, source), nil
}
