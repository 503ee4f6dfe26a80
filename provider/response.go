package provider

import (
	"bytes"
	"strconv"
	"strings"
)

// redactionSentinel marks bytes the prover hid from verifiers. The parser
// must tolerate sentinel runs anywhere in the response.
const redactionSentinel byte = 0

type parsedResponse struct {
	StatusCode int    // 0 when the status line is redacted
	BodyStart  int    // absolute offset of the body within the record
	Body       []byte // de-chunked when transfer-encoding is chunked
}

// parseResponse splits a (possibly partially redacted) HTTP/1.1 response
// into status and body. When the header section is entirely hidden the
// whole input is treated as body, since matches only ever target the body.
func parseResponse(data []byte) *parsedResponse {
	res := &parsedResponse{}

	headerEnd := bytes.Index(data, []byte("\r\n\r\n"))
	if headerEnd == -1 {
		res.Body = data
		return res
	}
	res.BodyStart = headerEnd + 4
	res.Body = data[res.BodyStart:]

	statusLineEnd := bytes.Index(data, []byte("\r\n"))
	statusLine := string(data[:statusLineEnd])
	if parts := strings.SplitN(statusLine, " ", 3); len(parts) >= 2 {
		if code, err := strconv.Atoi(parts[1]); err == nil {
			res.StatusCode = code
		}
	}

	// statusLineEnd == headerEnd when the response carries no header
	// lines at all, leaving no header block to inspect.
	if statusLineEnd+2 <= headerEnd {
		headers := bytes.ToLower(data[statusLineEnd+2 : headerEnd])
		if transferEncodingContains(headers, "chunked") {
			if body, ok := dechunkBody(res.Body); ok {
				res.Body = body
			}
		}
	}
	return res
}

func transferEncodingContains(lowerHeaders []byte, token string) bool {
	for _, line := range bytes.Split(lowerHeaders, []byte("\r\n")) {
		if bytes.HasPrefix(line, []byte("transfer-encoding:")) {
			return strings.Contains(string(line), token)
		}
	}
	return false
}

// dechunkBody reassembles a chunked transfer-encoding body. Returns ok =
// false when the chunk framing is unparsable (for example because a chunk
// size line is redacted); callers then fall back to the raw body.
func dechunkBody(data []byte) ([]byte, bool) {
	var out []byte
	pos := 0
	for pos < len(data) {
		lineEnd := bytes.Index(data[pos:], []byte("\r\n"))
		if lineEnd == -1 {
			return nil, false
		}
		sizeStr := strings.TrimSpace(string(data[pos : pos+lineEnd]))
		// chunk extensions after ';' are ignored
		if i := strings.IndexByte(sizeStr, ';'); i >= 0 {
			sizeStr = sizeStr[:i]
		}
		size, err := strconv.ParseInt(sizeStr, 16, 64)
		if err != nil || size < 0 {
			return nil, false
		}
		if size == 0 {
			return out, true
		}
		chunkStart := pos + lineEnd + 2
		chunkEnd := chunkStart + int(size)
		if chunkEnd > len(data) {
			return nil, false
		}
		out = append(out, data[chunkStart:chunkEnd]...)
		pos = chunkEnd + 2 // skip trailing CRLF
	}
	return out, true
}
