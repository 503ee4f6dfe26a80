package provider

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// paramsSchema mirrors the http provider's parameter contract. Template
// placeholders ({{param}}) are legal inside the URL.
const paramsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["url", "method"],
	"properties": {
		"url":    {"type": "string", "format": "url"},
		"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"]},
		"headers": {"type": "object", "additionalProperties": {"type": "string"}},
		"body":   {"type": "string"},
		"geoLocation": {"type": "string"},
		"paramValues": {"type": "object", "additionalProperties": {"type": "string"}},
		"responseMatches": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["value"],
				"properties": {
					"type":     {"type": "string", "enum": ["regex", "contains"]},
					"value":    {"type": "string"},
					"xPath":    {"type": "string"},
					"jsonPath": {"type": "string"},
					"invert":   {"type": "boolean"}
				}
			}
		},
		"responseRedactions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"regex":    {"type": "string"},
					"xPath":    {"type": "string"},
					"jsonPath": {"type": "string"}
				}
			}
		}
	}
}`

var (
	compiledParamsSchema *gojsonschema.Schema
	compileSchemaOnce    sync.Once
	compileSchemaErr     error
)

func init() {
	// url format: require scheme+host, but allow template placeholders
	gojsonschema.FormatCheckers.Add("url", urlFormatChecker{})
}

type urlFormatChecker struct{}

func (urlFormatChecker) IsFormat(input interface{}) bool {
	str, ok := input.(string)
	if !ok {
		return false
	}
	if strings.Contains(str, "{{") && strings.Contains(str, "}}") {
		return true
	}
	u, err := url.Parse(str)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// ValidateParams checks a raw claimInfo.parameters string against the
// provider parameter schema. The compiled schema is cached per process.
func ValidateParams(paramsJSON string) error {
	compileSchemaOnce.Do(func() {
		compiledParamsSchema, compileSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(paramsSchema))
	})
	if compileSchemaErr != nil {
		return fmt.Errorf("compiling provider params schema: %w", compileSchemaErr)
	}

	result, err := compiledParamsSchema.Validate(gojsonschema.NewStringLoader(paramsJSON))
	if err != nil {
		return fmt.Errorf("provider parameters are not valid JSON: %w", err)
	}
	if !result.Valid() {
		var b strings.Builder
		for _, e := range result.Errors() {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e.String())
		}
		return fmt.Errorf("provider parameters invalid: %s", b.String())
	}
	return nil
}
