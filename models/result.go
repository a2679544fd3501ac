package models

import (
	"bytes"
	"encoding/json"
)

type ResultShape string

const (
	ShapeComposite ResultShape = "composite"
	ShapeOpaque    ResultShape = "opaque"
)

// AnalysisResult is a normalized 2xx response body. Composite results carry a
// transcript and an analysis document; anything else is kept verbatim.
type AnalysisResult struct {
	Shape      ResultShape
	Transcript string
	Analysis   json.RawMessage
	Raw        json.RawMessage
}

func (r AnalysisResult) IsComposite() bool {
	return r.Shape == ShapeComposite
}

// ClassifyResult parses body and picks the result shape. Composite requires
// both transcript and analysis keys with truthy values.
func ClassifyResult(body []byte) (AnalysisResult, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return AnalysisResult{}, err
	}
	raw := json.RawMessage(bytes.TrimSpace(body))

	obj, ok := doc.(map[string]any)
	if !ok || !truthy(obj["transcript"]) || !truthy(obj["analysis"]) {
		return AnalysisResult{Shape: ShapeOpaque, Raw: raw}, nil
	}

	var fields struct {
		Transcript json.RawMessage `json:"transcript"`
		Analysis   json.RawMessage `json:"analysis"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return AnalysisResult{}, err
	}

	transcript, isString := obj["transcript"].(string)
	if !isString {
		transcript = string(fields.Transcript)
	}

	return AnalysisResult{
		Shape:      ShapeComposite,
		Transcript: transcript,
		Analysis:   fields.Analysis,
		Raw:        raw,
	}, nil
}

// truthy follows JSON-value truthiness: null, false, 0 and "" are false;
// objects and arrays, even empty, are true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}
