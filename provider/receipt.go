package provider

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

var templatePattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// AssertValidReceipt checks a verified, reassembled (redacted) response
// against the provider parameters from claimInfo and the prover's
// extractedParameterValues. It fails if any responseMatch does not hold
// over the revealed bytes, if a claimed extracted value disagrees with
// what the matches capture, or if an extracted value would have to come
// from redacted bytes.
func AssertValidReceipt(plaintext []byte, paramsJSON string, extracted map[string]string) error {
	params, err := ParseParams(paramsJSON)
	if err != nil {
		return err
	}

	resp := parseResponse(plaintext)
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("response status %d is not a success status", resp.StatusCode)
	}

	confirmed := make(map[string]bool, len(extracted))
	for _, m := range params.ResponseMatches {
		if err := applyMatch(resp, m, params.ParamValues, extracted, confirmed); err != nil {
			return err
		}
	}

	// Every claimed extracted value must be anchored somewhere in the
	// revealed bytes, either captured by a match above or literally
	// present in the body.
	for name, value := range extracted {
		if confirmed[name] {
			continue
		}
		if value != "" && bytes.Contains(resp.Body, []byte(value)) {
			continue
		}
		return fmt.Errorf("extracted parameter %q is not backed by any revealed byte of the response", name)
	}
	return nil
}

func applyMatch(resp *parsedResponse, m ResponseMatch, paramValues, extracted map[string]string, confirmed map[string]bool) error {
	window := resp.Body

	// Narrow the window before matching when a selector is present.
	switch {
	case m.XPath != "":
		ranges, err := htmlElementRanges(string(resp.Body), m.XPath, m.JSONPath != "")
		if err != nil {
			return err
		}
		window = windowFromRange(resp.Body, ranges[0])
	case m.JSONPath != "":
		ranges, err := jsonValueRanges(resp.Body, m.JSONPath)
		if err != nil {
			return err
		}
		if err := assertRevealed(resp.Body, ranges[0]); err != nil {
			return fmt.Errorf("jsonPath %q: %w", m.JSONPath, err)
		}
		window = windowFromRange(resp.Body, ranges[0])
	}

	value := substituteTemplates(m.Value, paramValues, extracted)

	switch m.Type {
	case "regex":
		return applyRegexMatch(window, value, m.Invert, extracted, confirmed)
	case "contains", "":
		found := bytes.Contains(window, []byte(value))
		if found == m.Invert {
			verb := "does not contain"
			if m.Invert {
				verb = "contains"
			}
			return fmt.Errorf("response %s expected value %q", verb, m.Value)
		}
		return nil
	default:
		return fmt.Errorf("unknown response match type %q", m.Type)
	}
}

// applyRegexMatch runs a JS-compatible regex over the window. Named groups
// must agree with the prover's extractedParameterValues; a group capturing
// a redacted byte fails the check, since a hidden value cannot justify a
// claimed extraction.
func applyRegexMatch(window []byte, pattern string, invert bool, extracted map[string]string, confirmed map[string]bool) error {
	re, err := makeRegex(pattern)
	if err != nil {
		return fmt.Errorf("invalid responseMatch regex %q: %w", pattern, err)
	}

	idx := re.FindSubmatchIndex(window)
	if idx == nil {
		if invert {
			return nil
		}
		return fmt.Errorf("regex %q matched nothing in the revealed response", pattern)
	}
	if invert {
		return fmt.Errorf("regex %q matched but the provider forbids it", pattern)
	}

	for gi, name := range re.SubexpNames() {
		if name == "" || idx[2*gi] < 0 {
			continue
		}
		captured := window[idx[2*gi]:idx[2*gi+1]]
		if bytes.IndexByte(captured, redactionSentinel) >= 0 {
			return fmt.Errorf("capture group %q covers redacted bytes", name)
		}
		if want, ok := extracted[name]; ok {
			if want != string(captured) {
				return fmt.Errorf("extracted parameter %q is %q but the response contains %q",
					name, want, captured)
			}
			confirmed[name] = true
		}
	}
	return nil
}

// makeRegex compiles a pattern the way the provider toolchain does: dotAll
// and case-insensitive, with JS-style named groups (?<name>...) converted
// to Go/RE2-style (?P<name>...).
func makeRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?si)" + convertJsNamedGroupsToGo(pattern))
}

var jsNamedGroupPattern = regexp.MustCompile(`\(\?<([A-Za-z][A-Za-z0-9_]*)>`)

func convertJsNamedGroupsToGo(s string) string {
	return jsNamedGroupPattern.ReplaceAllString(s, `(?P<$1>`)
}

// substituteTemplates replaces {{param}} placeholders from paramValues
// first, then from the extracted values. Unknown placeholders are left
// intact so the resulting mismatch is visible in the error.
func substituteTemplates(s string, paramValues, extracted map[string]string) string {
	return templatePattern.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(m, "{{"), "}}")
		if v, ok := paramValues[name]; ok {
			return v
		}
		if v, ok := extracted[name]; ok {
			return v
		}
		return m
	})
}

func windowFromRange(body []byte, r byteRange) []byte {
	if r.start < 0 || r.end > len(body) || r.start > r.end {
		return body
	}
	return body[r.start:r.end]
}

// assertRevealed fails when the range contains any redacted byte.
func assertRevealed(body []byte, r byteRange) error {
	for i := r.start; i < r.end && i < len(body); i++ {
		if body[i] == redactionSentinel {
			return fmt.Errorf("selected value overlaps redacted bytes at offset %d", i)
		}
	}
	return nil
}
