package provider

import (
	"strings"
	"testing"
)

func paramsWith(matches string) string {
	return `{"url":"https://api.example.com/v1/booking","method":"GET","responseMatches":` + matches + `}`
}

func httpResponse(body string) []byte {
	return []byte("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n" + body)
}

func TestAssertValidReceipt(t *testing.T) {
	body := `{"booking":{"pnr":"ABC123","status":"confirmed","price":412}}`

	tests := []struct {
		name      string
		params    string
		plaintext []byte
		extracted map[string]string
		wantErr   string
	}{
		{
			name:      "contains match passes",
			params:    paramsWith(`[{"type":"contains","value":"confirmed"}]`),
			plaintext: httpResponse(body),
		},
		{
			name:      "contains match fails",
			params:    paramsWith(`[{"type":"contains","value":"cancelled"}]`),
			plaintext: httpResponse(body),
			wantErr:   "does not contain",
		},
		{
			name:      "inverted contains forbids the value",
			params:    paramsWith(`[{"type":"contains","value":"cancelled","invert":true}]`),
			plaintext: httpResponse(body),
		},
		{
			name:      "regex named group confirms extraction",
			params:    paramsWith(`[{"type":"regex","value":"\"pnr\":\"(?<pnr>[A-Z0-9]+)\""}]`),
			plaintext: httpResponse(body),
			extracted: map[string]string{"pnr": "ABC123"},
		},
		{
			name:      "regex named group contradicts extraction",
			params:    paramsWith(`[{"type":"regex","value":"\"pnr\":\"(?<pnr>[A-Z0-9]+)\""}]`),
			plaintext: httpResponse(body),
			extracted: map[string]string{"pnr": "XYZ999"},
			wantErr:   "but the response contains",
		},
		{
			name:      "regex matching nothing fails",
			params:    paramsWith(`[{"type":"regex","value":"\"gate\":\"(?<gate>\\w+)\""}]`),
			plaintext: httpResponse(body),
			wantErr:   "matched nothing",
		},
		{
			name:      "non-2xx status fails",
			params:    paramsWith(`[{"type":"contains","value":"error"}]`),
			plaintext: []byte("HTTP/1.1 404 Not Found\r\n\r\nerror"),
			wantErr:   "not a success status",
		},
		{
			name:      "redacted status line tolerated",
			params:    paramsWith(`[{"type":"contains","value":"confirmed"}]`),
			plaintext: []byte(strings.Repeat("\x00", 40) + body),
		},
		{
			name:      "template placeholder from paramValues",
			params:    `{"url":"https://api.example.com/v1/booking","method":"GET","paramValues":{"code":"ABC123"},"responseMatches":[{"type":"contains","value":"{{code}}"}]}`,
			plaintext: httpResponse(body),
		},
		{
			name:      "unanchored extracted value fails",
			params:    paramsWith(`[]`),
			plaintext: httpResponse(body),
			extracted: map[string]string{"pnr": "ZZZ000"},
			wantErr:   "not backed by any revealed byte",
		},
		{
			name:      "extracted value literally in body passes",
			params:    paramsWith(`[]`),
			plaintext: httpResponse(body),
			extracted: map[string]string{"pnr": "ABC123"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertValidReceipt(tt.plaintext, tt.params, tt.extracted)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("AssertValidReceipt() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("AssertValidReceipt() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestAssertValidReceiptRedactedCapture(t *testing.T) {
	// The pnr value bytes are redacted; a capture group over them cannot
	// back a claimed extraction.
	body := []byte(`{"booking":{"pnr":"` + "\x00\x00\x00\x00\x00\x00" + `","status":"confirmed"}}`)
	params := paramsWith(`[{"type":"regex","value":"\"pnr\":\"(?<pnr>[^\"]+)\""}]`)

	err := AssertValidReceipt(append(httpResponse(""), body...), params, map[string]string{"pnr": "ABC123"})
	if err == nil || !strings.Contains(err.Error(), "redacted bytes") {
		t.Fatalf("AssertValidReceipt() error = %v, want redacted-capture failure", err)
	}
}

func TestAssertValidReceiptJSONPathWindow(t *testing.T) {
	body := `{"outer":{"value":"match-here"},"decoy":{"value":"not-this"}}`

	t.Run("match constrained to selected value", func(t *testing.T) {
		params := paramsWith(`[{"type":"contains","value":"match-here","jsonPath":"$.outer"}]`)
		if err := AssertValidReceipt(httpResponse(body), params, nil); err != nil {
			t.Fatalf("AssertValidReceipt() error = %v", err)
		}
	})

	t.Run("value outside the window does not count", func(t *testing.T) {
		params := paramsWith(`[{"type":"contains","value":"not-this","jsonPath":"$.outer"}]`)
		if err := AssertValidReceipt(httpResponse(body), params, nil); err == nil {
			t.Fatal("match outside the jsonPath window must fail")
		}
	})

	t.Run("jsonPath over redacted value fails", func(t *testing.T) {
		// Sentinel bytes break either JSON parsing or the revealed-range
		// check; both reject the match.
		redacted := `{"outer":{"value":"` + "\x00\x00\x00" + `"}}`
		params := paramsWith(`[{"type":"contains","value":"anything","jsonPath":"$.outer.value"}]`)
		if err := AssertValidReceipt(httpResponse(redacted), params, nil); err == nil {
			t.Fatal("jsonPath selecting redacted bytes must fail")
		}
	})
}

func TestConvertJsNamedGroupsToGo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`(?<name>\w+)`, `(?P<name>\w+)`},
		{`(?<a>x)(?<b>y)`, `(?P<a>x)(?P<b>y)`},
		{`(?:nocapture)`, `(?:nocapture)`},
		{`plain`, `plain`},
	}
	for _, tt := range tests {
		if got := convertJsNamedGroupsToGo(tt.in); got != tt.want {
			t.Errorf("convertJsNamedGroupsToGo(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
