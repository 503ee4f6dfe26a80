// Package provider checks a verified, reassembled response against the
// provider parameters the claim identifier commits to: the response must
// actually contain what the prover says was extracted, and every extracted
// value must be backed by revealed (unredacted) bytes.
package provider

import (
	"encoding/json"
	"fmt"
)

// ResponseMatch is one assertion over the response body.
type ResponseMatch struct {
	// Type is "regex" or "contains". Empty defaults to "contains".
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	// Optional narrowing: evaluate the match only inside the bytes
	// selected by the XPath (HTML) or JSONPath (JSON) expression.
	XPath    string `json:"xPath,omitempty"`
	JSONPath string `json:"jsonPath,omitempty"`
	// Invert succeeds when the match does NOT occur.
	Invert bool `json:"invert,omitempty"`
}

// ResponseRedaction describes a range the prover redacted. Carried for
// completeness of the params contract; redaction itself is enforced by
// the transcript proofs, not here.
type ResponseRedaction struct {
	Regex    string `json:"regex,omitempty"`
	XPath    string `json:"xPath,omitempty"`
	JSONPath string `json:"jsonPath,omitempty"`
}

// HTTPParams is the provider parameter contract embedded (as a JSON
// string) in claimInfo.parameters.
type HTTPParams struct {
	URL                string              `json:"url"`
	Method             string              `json:"method"`
	Headers            map[string]string   `json:"headers,omitempty"`
	Body               string              `json:"body,omitempty"`
	GeoLocation        string              `json:"geoLocation,omitempty"`
	ParamValues        map[string]string   `json:"paramValues,omitempty"`
	ResponseMatches    []ResponseMatch     `json:"responseMatches,omitempty"`
	ResponseRedactions []ResponseRedaction `json:"responseRedactions,omitempty"`
}

// ParseParams decodes and schema-validates claimInfo.parameters.
func ParseParams(paramsJSON string) (*HTTPParams, error) {
	if err := ValidateParams(paramsJSON); err != nil {
		return nil, err
	}
	var p HTTPParams
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return nil, fmt.Errorf("decoding provider parameters: %w", err)
	}
	return &p, nil
}
