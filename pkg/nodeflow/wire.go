package nodeflow

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// wire implements C10 (spec.md §4.10): a structural, self-describing
// JSON form for the node tree and evaluation results, round-tripped
// through the type Registry rather than reflection over Go structs —
// the same tag->constructor discipline registry.go uses for the node
// and identifier registries themselves.

var primitiveValueTypes = map[string]reflect.Type{
	"float64": reflect.TypeOf(float64(0)),
	"string":  reflect.TypeOf(""),
	"bool":    reflect.TypeOf(false),
	"int":     reflect.TypeOf(int(0)),
}

func valueTypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func valueTypeFromName(name string) reflect.Type {
	if name == "" {
		return nil
	}
	return primitiveValueTypes[name]
}

// ToJSON encodes a CalculationNode in the canonical wire form.
func ToJSON(n CalculationNode) ([]byte, error) {
	return json.Marshal(nodeToWire(n))
}

// FromJSON decodes a CalculationNode using reg's type registry.
func FromJSON(data []byte, reg *Registry) (CalculationNode, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return CalculationNode{}, NewError(SerializationError, "", "malformed node JSON", err)
	}
	return nodeFromWire(raw, reg)
}

func nodeToWire(n CalculationNode) map[string]interface{} {
	if atomic, ok := n.Atomic(); ok {
		return map[string]interface{}{
			"kind":   "atomic",
			"type":   atomic.Tag(),
			"params": atomic.Params(),
		}
	}
	group, _ := n.Group()
	children := make([]interface{}, 0, len(group.Children()))
	for _, name := range group.Children() {
		child, _ := group.Child(name)
		children = append(children, map[string]interface{}{
			"name": name,
			"node": nodeToWire(child),
		})
	}
	flywires := make([]interface{}, 0, len(group.Flywires()))
	for _, fw := range group.Flywires() {
		flywires = append(flywires, flywireToWire(fw))
	}
	return map[string]interface{}{
		"kind":     "group",
		"name":     group.Name(),
		"children": children,
		"flywires": flywires,
		"exports":  scopeToWire(group.Exports()),
	}
}

func nodeFromWire(raw map[string]interface{}, reg *Registry) (CalculationNode, error) {
	kind, _ := raw["kind"].(string)
	switch kind {
	case "atomic":
		tag, _ := raw["type"].(string)
		params, _ := raw["params"].(map[string]interface{})
		atomic, err := reg.ConstructNode(tag, params)
		if err != nil {
			return CalculationNode{}, err
		}
		return AsAtomicNode(atomic), nil
	case "group":
		name, _ := raw["name"].(string)
		rawChildren, _ := raw["children"].([]interface{})
		children := make([]CalculationNode, 0, len(rawChildren))
		for _, rc := range rawChildren {
			entry, ok := rc.(map[string]interface{})
			if !ok {
				return CalculationNode{}, NewError(SerializationError, "", "malformed child entry", nil)
			}
			childRaw, _ := entry["node"].(map[string]interface{})
			child, err := nodeFromWire(childRaw, reg)
			if err != nil {
				return CalculationNode{}, err
			}
			children = append(children, child)
		}
		rawFlywires, _ := raw["flywires"].([]interface{})
		flywires := make([]Flywire, 0, len(rawFlywires))
		for _, rf := range rawFlywires {
			entry, ok := rf.(map[string]interface{})
			if !ok {
				return CalculationNode{}, NewError(SerializationError, "", "malformed flywire entry", nil)
			}
			fw, err := flywireFromWire(entry, reg)
			if err != nil {
				return CalculationNode{}, err
			}
			flywires = append(flywires, fw)
		}
		rawExports, _ := raw["exports"].(map[string]interface{})
		exports, err := scopeFromWire(rawExports, reg)
		if err != nil {
			return CalculationNode{}, err
		}
		g, err := NewNodeGroup(name, children, flywires, exports)
		if err != nil {
			return CalculationNode{}, err
		}
		return AsGroupNode(g), nil
	default:
		return CalculationNode{}, NewError(SerializationError, "", fmt.Sprintf("unknown node kind %q", kind), nil)
	}
}

func connectionPointToWire(cp ConnectionPoint) map[string]interface{} {
	return map[string]interface{}{
		"path": cp.NodePath,
		"rid":  identifierToWire(cp.Rid),
	}
}

func connectionPointFromWire(raw map[string]interface{}, reg *Registry) (ConnectionPoint, error) {
	path, _ := raw["path"].(string)
	ridRaw, _ := raw["rid"].(map[string]interface{})
	rid, err := identifierFromWire(ridRaw, reg)
	if err != nil {
		return ConnectionPoint{}, err
	}
	return ConnectionPoint{NodePath: path, Rid: rid}, nil
}

func flywireToWire(fw Flywire) map[string]interface{} {
	return map[string]interface{}{
		"source": connectionPointToWire(fw.Source),
		"target": connectionPointToWire(fw.Target),
	}
}

func flywireFromWire(raw map[string]interface{}, reg *Registry) (Flywire, error) {
	sourceRaw, _ := raw["source"].(map[string]interface{})
	targetRaw, _ := raw["target"].(map[string]interface{})
	source, err := connectionPointFromWire(sourceRaw, reg)
	if err != nil {
		return Flywire{}, err
	}
	target, err := connectionPointFromWire(targetRaw, reg)
	if err != nil {
		return Flywire{}, err
	}
	return NewFlywire(source, target)
}

// identifierToWire serializes any ResourceIdentifier via its Tag; the
// *Identifier generic implementation is special-cased since it carries
// its own field/type data rather than going through a registered
// constructor closure: it is written under identifierTag, with its own
// tag stored in the data record.
func identifierToWire(rid ResourceIdentifier) map[string]interface{} {
	if id, ok := rid.(*Identifier); ok {
		fields := make([]interface{}, 0, len(id.Fields()))
		for _, k := range id.Fields() {
			v, _ := id.Field(k)
			fields = append(fields, []interface{}{k, v})
		}
		return map[string]interface{}{
			"type": identifierTag,
			"data": map[string]interface{}{
				"tag":       id.Tag(),
				"valueType": valueTypeName(id.ValueType()),
				"fields":    fields,
			},
		}
	}
	return map[string]interface{}{
		"type": rid.Tag(),
		"data": map[string]interface{}{},
	}
}

func identifierFromWire(raw map[string]interface{}, reg *Registry) (ResourceIdentifier, error) {
	tag, _ := raw["type"].(string)
	data, _ := raw["data"].(map[string]interface{})
	if tag == identifierTag {
		valueType, _ := data["valueType"].(string)
		rawFields, _ := data["fields"].([]interface{})
		pairs := make([]string, 0, len(rawFields)*2)
		for _, rf := range rawFields {
			pair, ok := rf.([]interface{})
			if !ok || len(pair) != 2 {
				continue
			}
			k, _ := pair[0].(string)
			v, _ := pair[1].(string)
			pairs = append(pairs, k, v)
		}
		idTag, _ := data["tag"].(string)
		return NewIdentifier(idTag, valueTypeFromName(valueType), pairs...), nil
	}
	return reg.ConstructIdentifier(tag, data)
}

// identifierTag is the registered tag for the generic *Identifier type.
const identifierTag = "Identifier"

func scopeToWire(s Scope) map[string]interface{} {
	kind := "include"
	if s.IsExclude() {
		kind = "exclude"
	}
	entries := make([]interface{}, 0, len(s.Entries()))
	for _, e := range s.Entries() {
		entries = append(entries, map[string]interface{}{
			"childName": e.NodePath,
			"rid":       identifierToWire(e.Rid),
		})
	}
	return map[string]interface{}{"kind": kind, "entries": entries}
}

func scopeFromWire(raw map[string]interface{}, reg *Registry) (Scope, error) {
	kind, _ := raw["kind"].(string)
	rawEntries, _ := raw["entries"].([]interface{})
	points := make([]ConnectionPoint, 0, len(rawEntries))
	for _, re := range rawEntries {
		entry, ok := re.(map[string]interface{})
		if !ok {
			continue
		}
		childName, _ := entry["childName"].(string)
		ridRaw, _ := entry["rid"].(map[string]interface{})
		rid, err := identifierFromWire(ridRaw, reg)
		if err != nil {
			return Scope{}, err
		}
		points = append(points, ConnectionPoint{NodePath: childName, Rid: rid})
	}
	if kind == "exclude" {
		return ExcludeScope(points...), nil
	}
	return IncludeScope(points...), nil
}

func resultToWire(r Result[Value]) map[string]interface{} {
	if v, ok := r.Value(); ok {
		return map[string]interface{}{"type": "Success", "data": v}
	}
	info, _ := r.Error()
	return map[string]interface{}{"type": "Failure", "error": map[string]interface{}{
		"kind": string(info.Kind), "message": info.Message, "detail": info.Detail,
	}}
}

func resultFromWire(raw map[string]interface{}) Result[Value] {
	t, _ := raw["type"].(string)
	if t == "Success" {
		return Ok[Value](raw["data"])
	}
	errRaw, _ := raw["error"].(map[string]interface{})
	kind, _ := errRaw["kind"].(string)
	message, _ := errRaw["message"].(string)
	var detail []string
	if rawDetail, ok := errRaw["detail"].([]interface{}); ok {
		for _, d := range rawDetail {
			if s, ok := d.(string); ok {
				detail = append(detail, s)
			}
		}
	}
	return Err[Value](ErrorInfo{Kind: ErrorKind(kind), Message: message, Detail: detail})
}

func snapshotToWire(s Snapshot) map[string]interface{} {
	out := map[string]interface{}{}
	if s.LogicalTimestamp != nil {
		out["logicalTimestamp"] = s.LogicalTimestamp.Format(time.RFC3339Nano)
	} else {
		out["logicalTimestamp"] = nil
	}
	if s.PhysicalTimestamp != nil {
		out["physicalTimestamp"] = s.PhysicalTimestamp.Format(time.RFC3339Nano)
	} else {
		out["physicalTimestamp"] = nil
	}
	return out
}

func snapshotFromWire(raw map[string]interface{}) (Snapshot, error) {
	parse := func(key string) (*time.Time, error) {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, NewError(SerializationError, "", "snapshot."+key+" is not a string", nil)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, NewError(SerializationError, "", "snapshot."+key+" is not RFC3339", err)
		}
		return &t, nil
	}
	logical, err := parse("logicalTimestamp")
	if err != nil {
		return Snapshot{}, err
	}
	physical, err := parse("physicalTimestamp")
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(logical, physical), nil
}

func inputContextToWire(c InputContext) map[string]interface{} {
	out := map[string]interface{}{"sourceType": c.SourceType.String()}
	if c.IsDirectInput != nil {
		out["isDirectInput"] = *c.IsDirectInput
	} else {
		out["isDirectInput"] = nil
	}
	return out
}

func adhocOverrideToWire(o *AdhocOverride) interface{} {
	if o == nil {
		return nil
	}
	entries := func(es []AdhocEntry) []interface{} {
		out := make([]interface{}, 0, len(es))
		for _, e := range es {
			out = append(out, map[string]interface{}{"point": connectionPointToWire(e.Point), "value": resultToWire(e.Value)})
		}
		return out
	}
	flywires := make([]interface{}, 0, len(o.AdhocFlywires))
	for _, fw := range o.AdhocFlywires {
		flywires = append(flywires, flywireToWire(fw))
	}
	return map[string]interface{}{
		"adhocInputs":   entries(o.AdhocInputs),
		"adhocOutputs":  entries(o.AdhocOutputs),
		"adhocFlywires": flywires,
	}
}

// ToJSONResult encodes a complete EvaluationResult in the canonical wire
// form (spec.md §4.10).
func ToJSONResult(r *EvaluationResult) ([]byte, error) {
	return json.Marshal(evaluationResultToWire(r))
}

func evaluationResultToWire(r *EvaluationResult) map[string]interface{} {
	results := make([]interface{}, 0, r.Results.Len())
	for _, k := range r.Results.Keys() {
		v, _ := r.Results.Get(k)
		results = append(results, map[string]interface{}{"key": k, "value": resultToWire(v)})
	}

	nodeEval := make([]interface{}, 0, r.NodeEvaluationMap.Len())
	for _, path := range r.NodeEvaluationMap.Keys() {
		ne, _ := r.NodeEvaluationMap.Get(path)
		inputs := make([]interface{}, 0, ne.Inputs.Len())
		for _, k := range ne.Inputs.Keys() {
			ir, _ := ne.Inputs.Get(k)
			inputs = append(inputs, map[string]interface{}{
				"rid": k, "context": inputContextToWire(ir.Context), "value": resultToWire(ir.Value),
			})
		}
		outputs := make([]interface{}, 0, ne.Outputs.Len())
		for _, k := range ne.Outputs.Keys() {
			or, _ := ne.Outputs.Get(k)
			outputs = append(outputs, map[string]interface{}{
				"rid": k, "context": map[string]interface{}{"resultType": or.Context.ResultType.String()}, "value": resultToWire(or.Value),
			})
		}
		nodeEval = append(nodeEval, map[string]interface{}{
			"path": path, "inputs": inputs, "outputs": outputs,
		})
	}

	return map[string]interface{}{
		"snapshot":          snapshotToWire(r.Snapshot),
		"requestedNodePath": r.RequestedNodePath,
		"adhocOverride":     adhocOverrideToWire(r.AdhocOverride),
		"results":           results,
		"nodeEvaluationMap": nodeEval,
		"graph":             nodeToWire(r.Graph),
	}
}

func inputSourceTypeFromString(s string) InputSourceType {
	switch s {
	case "ByParentGroup":
		return SourceByParentGroup
	case "ByResolve":
		return SourceByResolve
	case "ByFlywire":
		return SourceByFlywire
	case "ByAdhocFlywire":
		return SourceByAdhocFlywire
	case "ByAdhoc":
		return SourceByAdhoc
	default:
		return SourceByResolve
	}
}

func outputValueTypeFromString(s string) OutputValueType {
	if s == "ByAdhoc" {
		return OutputByAdhoc
	}
	return OutputByEvaluation
}

func adhocOverrideFromWire(raw interface{}, reg *Registry) (*AdhocOverride, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, NewError(SerializationError, "", "adhocOverride is not an object", nil)
	}
	entries := func(key string) ([]AdhocEntry, error) {
		rawList, _ := m[key].([]interface{})
		out := make([]AdhocEntry, 0, len(rawList))
		for _, re := range rawList {
			entry, ok := re.(map[string]interface{})
			if !ok {
				continue
			}
			pointRaw, _ := entry["point"].(map[string]interface{})
			point, err := connectionPointFromWire(pointRaw, reg)
			if err != nil {
				return nil, err
			}
			valueRaw, _ := entry["value"].(map[string]interface{})
			out = append(out, AdhocEntry{Point: point, Value: resultFromWire(valueRaw)})
		}
		return out, nil
	}
	inputs, err := entries("adhocInputs")
	if err != nil {
		return nil, err
	}
	outputs, err := entries("adhocOutputs")
	if err != nil {
		return nil, err
	}
	rawFlywires, _ := m["adhocFlywires"].([]interface{})
	flywires := make([]Flywire, 0, len(rawFlywires))
	for _, rf := range rawFlywires {
		entry, ok := rf.(map[string]interface{})
		if !ok {
			continue
		}
		fw, err := flywireFromWire(entry, reg)
		if err != nil {
			return nil, err
		}
		flywires = append(flywires, fw)
	}
	return &AdhocOverride{AdhocInputs: inputs, AdhocOutputs: outputs, AdhocFlywires: flywires}, nil
}

// FromJSONResult decodes a complete EvaluationResult using reg's type
// registry, the inverse of ToJSONResult.
func FromJSONResult(data []byte, reg *Registry) (*EvaluationResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewError(SerializationError, "", "malformed evaluation result JSON", err)
	}

	snapRaw, _ := raw["snapshot"].(map[string]interface{})
	snap, err := snapshotFromWire(snapRaw)
	if err != nil {
		return nil, err
	}

	requestedNodePath, _ := raw["requestedNodePath"].(string)

	ovr, err := adhocOverrideFromWire(raw["adhocOverride"], reg)
	if err != nil {
		return nil, err
	}

	results := NewOrderedMap[string, Result[Value]]()
	rawResults, _ := raw["results"].([]interface{})
	for _, rr := range rawResults {
		entry, ok := rr.(map[string]interface{})
		if !ok {
			continue
		}
		key, _ := entry["key"].(string)
		valueRaw, _ := entry["value"].(map[string]interface{})
		results.Set(key, resultFromWire(valueRaw))
	}

	nodeEvalMap := NewOrderedMap[string, *NodeEvaluation]()
	rawNodeEval, _ := raw["nodeEvaluationMap"].([]interface{})
	for _, rn := range rawNodeEval {
		entry, ok := rn.(map[string]interface{})
		if !ok {
			continue
		}
		path, _ := entry["path"].(string)
		ne := NewNodeEvaluation()
		rawInputs, _ := entry["inputs"].([]interface{})
		for _, ri := range rawInputs {
			ientry, ok := ri.(map[string]interface{})
			if !ok {
				continue
			}
			rid, _ := ientry["rid"].(string)
			ctxRaw, _ := ientry["context"].(map[string]interface{})
			sourceType, _ := ctxRaw["sourceType"].(string)
			var direct *bool
			if d, ok := ctxRaw["isDirectInput"].(bool); ok {
				direct = BoolPtr(d)
			}
			valueRaw, _ := ientry["value"].(map[string]interface{})
			ne.Inputs.Set(rid, InputResult{
				Context: InputContext{SourceType: inputSourceTypeFromString(sourceType), IsDirectInput: direct},
				Value:   resultFromWire(valueRaw),
			})
		}
		rawOutputs, _ := entry["outputs"].([]interface{})
		for _, ro := range rawOutputs {
			oentry, ok := ro.(map[string]interface{})
			if !ok {
				continue
			}
			rid, _ := oentry["rid"].(string)
			ctxRaw, _ := oentry["context"].(map[string]interface{})
			resultType, _ := ctxRaw["resultType"].(string)
			valueRaw, _ := oentry["value"].(map[string]interface{})
			ne.Outputs.Set(rid, OutputResult{
				Context: OutputContext{ResultType: outputValueTypeFromString(resultType)},
				Value:   resultFromWire(valueRaw),
			})
		}
		nodeEvalMap.Set(path, ne)
	}

	graphRaw, _ := raw["graph"].(map[string]interface{})
	graph, err := nodeFromWire(graphRaw, reg)
	if err != nil {
		return nil, err
	}

	return &EvaluationResult{
		Snapshot:          snap,
		RequestedNodePath: requestedNodePath,
		AdhocOverride:     ovr,
		Results:           results,
		NodeEvaluationMap: nodeEvalMap,
		Graph:             graph,
	}, nil
}
