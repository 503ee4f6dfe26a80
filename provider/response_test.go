package provider

import (
	"bytes"
	"testing"
)

func TestParseResponse(t *testing.T) {
	t.Run("status and body split", func(t *testing.T) {
		resp := parseResponse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
		if resp.StatusCode != 200 {
			t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
		}
		if string(resp.Body) != "hello" {
			t.Errorf("Body = %q, want %q", resp.Body, "hello")
		}
	})

	t.Run("status line with no header lines", func(t *testing.T) {
		resp := parseResponse([]byte("HTTP/1.1 404 Not Found\r\n\r\nerror"))
		if resp.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
		}
		if string(resp.Body) != "error" {
			t.Errorf("Body = %q, want %q", resp.Body, "error")
		}
	})

	t.Run("fully redacted headers", func(t *testing.T) {
		data := append(bytes.Repeat([]byte{0}, 30), []byte(`{"ok":true}`)...)
		resp := parseResponse(data)
		if resp.StatusCode != 0 {
			t.Errorf("StatusCode = %d, want 0 for redacted status line", resp.StatusCode)
		}
		if !bytes.Equal(resp.Body, data) {
			t.Error("whole input should be treated as body when headers are hidden")
		}
	})

	t.Run("chunked body reassembled", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
		resp := parseResponse([]byte(raw))
		if string(resp.Body) != "hello world" {
			t.Errorf("Body = %q, want %q", resp.Body, "hello world")
		}
	})

	t.Run("unparsable chunk framing falls back to raw body", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"\x00\x00\r\nhello\r\n0\r\n\r\n"
		resp := parseResponse([]byte(raw))
		if len(resp.Body) == 0 {
			t.Error("fallback body must keep the raw bytes")
		}
	})
}

func TestDechunkBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"single chunk", "3\r\nabc\r\n0\r\n\r\n", "abc", true},
		{"chunk extension ignored", "3;ext=1\r\nabc\r\n0\r\n\r\n", "abc", true},
		{"truncated chunk", "10\r\nabc", "", false},
		{"garbage size", "zz\r\nabc\r\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dechunkBody([]byte(tt.in))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && string(got) != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJsonPathSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"$", nil},
		{"$.a", []string{"a"}},
		{"$.a.b", []string{"a", "b"}},
		{"$.a[0].b", []string{"a", "0", "b"}},
		{"$['key with space'][2]", []string{"key with space", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := jsonPathSegments(tt.path)
			if len(got) != len(tt.want) {
				t.Fatalf("segments = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestJsonValueRanges(t *testing.T) {
	doc := []byte(`{"a":{"b":"target"},"c":[1,2,3]}`)

	t.Run("object value range", func(t *testing.T) {
		ranges, err := jsonValueRanges(doc, "$.a.b")
		if err != nil {
			t.Fatalf("jsonValueRanges() error = %v", err)
		}
		if len(ranges) != 1 {
			t.Fatalf("got %d ranges, want 1", len(ranges))
		}
		got := string(doc[ranges[0].start:ranges[0].end])
		if got != `"target"` {
			t.Errorf("selected %q, want %q", got, `"target"`)
		}
	})

	t.Run("array element range", func(t *testing.T) {
		ranges, err := jsonValueRanges(doc, "$.c[1]")
		if err != nil {
			t.Fatalf("jsonValueRanges() error = %v", err)
		}
		got := string(doc[ranges[0].start:ranges[0].end])
		if got != "2" {
			t.Errorf("selected %q, want %q", got, "2")
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, err := jsonValueRanges(doc, "$.missing"); err == nil {
			t.Error("expected error for a path matching nothing")
		}
	})
}
