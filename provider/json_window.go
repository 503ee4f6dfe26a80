package provider

import (
	"fmt"
	"strconv"
	"strings"

	gojson "github.com/coreos/go-json"
	jp "github.com/reclaimprotocol/jsonpathplus-go"
	xp "github.com/reclaimprotocol/xpath-go"
)

type byteRange struct {
	start int
	end   int // exclusive
}

// jsonValueRanges evaluates a JSONPath against a JSON body and returns the
// exact byte ranges of the matched values:
// 1) evaluate the JSONPath with jsonpathplus-go,
// 2) parse the body once into a node tree with byte offsets (coreos/go-json),
// 3) walk the tree along each result path to recover exact ranges.
func jsonValueRanges(doc []byte, jsonPathExpr string) ([]byteRange, error) {
	results, err := jp.Query(jsonPathExpr, string(doc))
	if err != nil {
		return nil, fmt.Errorf("JSONPath query failed: %v", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("jsonPath %q matched nothing", jsonPathExpr)
	}

	var root gojson.Node
	if err := gojson.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("parsing JSON body for offsets: %v", err)
	}

	ranges := make([]byteRange, 0, len(results))
	for _, r := range results {
		n, err := nodeAtPath(&root, jsonPathSegments(r.Path))
		if err != nil {
			return nil, fmt.Errorf("resolving path %q: %v", r.Path, err)
		}
		// Node.End is inclusive; Go slice ends are exclusive
		start, end := n.Start, n.End+1
		if start < 0 || end > len(doc) || start > end {
			return nil, fmt.Errorf("invalid range [%d,%d) for path %q", start, end, r.Path)
		}
		ranges = append(ranges, byteRange{start: start, end: end})
	}
	return ranges, nil
}

// htmlElementRanges evaluates an XPath against an HTML body and returns
// absolute byte ranges for each matched element's contents.
func htmlElementRanges(html string, xpathExpr string, contentsOnly bool) ([]byteRange, error) {
	matches, err := xp.QueryWithOptions(xpathExpr, html, xp.Options{
		IncludeLocation: true,
		OutputFormat:    "nodes",
		ContentsOnly:    contentsOnly,
	})
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("xPath %q matched nothing", xpathExpr)
	}

	out := make([]byteRange, 0, len(matches))
	for _, m := range matches {
		out = append(out, byteRange{start: m.StartLocation, end: m.EndLocation})
	}
	return out, nil
}

// jsonPathSegments converts a concrete result path like $.a[1].b to the
// segment list ["a", "1", "b"].
func jsonPathSegments(path string) []string {
	p := strings.TrimPrefix(path, "$")
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return nil
	}
	segments := make([]string, 0)
	cur := strings.Builder{}
	inBracket := false
	for _, r := range p {
		switch r {
		case '.':
			if !inBracket {
				if cur.Len() > 0 {
					segments = append(segments, cur.String())
					cur.Reset()
				}
				continue
			}
		case '[':
			if cur.Len() > 0 {
				segments = append(segments, cur.String())
				cur.Reset()
			}
			inBracket = true
			continue
		case ']':
			if inBracket {
				seg := strings.Trim(cur.String(), "'\"")
				cur.Reset()
				inBracket = false
				segments = append(segments, seg)
				continue
			}
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		segments = append(segments, cur.String())
	}
	return segments
}

// nodeAtPath walks a coreos/go-json node tree along the segments.
func nodeAtPath(node *gojson.Node, segments []string) (*gojson.Node, error) {
	cur := node
	for i, seg := range segments {
		switch v := cur.Value.(type) {
		case map[string]gojson.Node:
			next, ok := v[seg]
			if !ok {
				return nil, fmt.Errorf("object key %q not found at segment %d", seg, i)
			}
			cur = &next
		case []gojson.Node:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return nil, fmt.Errorf("invalid array index %q at segment %d", seg, i)
			}
			if idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("array index %d out of bounds at segment %d", idx, i)
			}
			cur = &v[idx]
		default:
			return nil, fmt.Errorf("cannot traverse into %T at segment %d", v, i)
		}
	}
	return cur, nil
}
