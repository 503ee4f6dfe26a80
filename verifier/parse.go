package verifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// proofSchema is the wire-format contract for incoming proof bundles:
// 0x-prefixed hex strings for byte fields, decimal for numeric fields.
// Structural problems are reported against the schema before any decoding,
// which gives far better diagnostics than a json.Unmarshal type error.
const proofSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["claimInfo", "signedClaim"],
	"properties": {
		"claimInfo": {
			"type": "object",
			"required": ["provider", "parameters", "context"],
			"properties": {
				"provider":   {"type": "string"},
				"parameters": {"type": "string"},
				"context":    {"type": "string"}
			}
		},
		"signedClaim": {
			"type": "object",
			"required": ["claim", "signatures"],
			"properties": {
				"claim": {
					"type": "object",
					"required": ["identifier", "owner", "timestampS", "epoch"],
					"properties": {
						"identifier": {"type": "string", "pattern": "^0x[0-9a-fA-F]{64}$"},
						"owner":      {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
						"timestampS": {"type": "integer", "minimum": 0},
						"epoch":      {"type": "integer", "minimum": 0}
					}
				},
				"signatures": {
					"type": "array",
					"items": {"type": "string", "pattern": "^0x[0-9a-fA-F]+$"}
				}
			}
		},
		"witnesses": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id":  {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
					"url": {"type": "string"}
				}
			}
		},
		"extractedParameterValues": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"reveal": {
			"type": "object",
			"required": ["cipherSuite", "ciphertext", "fixedIv", "chunks"],
			"properties": {
				"cipherSuite":  {"type": "string"},
				"ciphertext":   {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
				"fixedIv":      {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
				"recordIv":     {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
				"recordNumber": {"type": "integer", "minimum": 0},
				"chunks": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["algorithm", "proofData", "decryptedRedactedCiphertext", "redactedPlaintext", "startIdx"],
						"properties": {
							"algorithm":                   {"type": "string", "enum": ["aes-128-ctr", "aes-256-ctr", "chacha20"]},
							"proofData":                   {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
							"decryptedRedactedCiphertext": {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
							"redactedPlaintext":           {"type": "string", "pattern": "^0x[0-9a-fA-F]*$"},
							"startIdx":                    {"type": "integer", "minimum": 0}
						}
					}
				}
			}
		}
	}
}`

var (
	compiledProofSchema     *gojsonschema.Schema
	compileProofSchemaOnce  sync.Once
	compileProofSchemaError error
)

// ParseProof validates raw JSON against the proof wire schema and decodes
// it. Algorithm and cipher-suite strings are resolved to their closed
// enumerations here, so everything downstream dispatches exhaustively.
func ParseProof(data []byte) (*Proof, error) {
	compileProofSchemaOnce.Do(func() {
		compiledProofSchema, compileProofSchemaError = gojsonschema.NewSchema(gojsonschema.NewStringLoader(proofSchema))
	})
	if compileProofSchemaError != nil {
		return nil, fmt.Errorf("compiling proof schema: %w", compileProofSchemaError)
	}

	result, err := compiledProofSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, Errf(KindInvalidProof, "proof is not valid JSON: %v", err).Wrap(err)
	}
	if !result.Valid() {
		var b strings.Builder
		for _, e := range result.Errors() {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e.String())
		}
		return nil, Errf(KindInvalidProof, "proof does not match wire schema: %s", b.String())
	}

	var p Proof
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, Errf(KindInvalidProof, "decoding proof: %v", err).Wrap(err)
	}
	return &p, nil
}
