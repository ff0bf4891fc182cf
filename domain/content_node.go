package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
)

type ContentNodeKind int

const (
	// ContentNodeOther covers numbers, booleans and nulls. They carry no text.
	ContentNodeOther ContentNodeKind = iota
	ContentNodeText
	ContentNodeArray
	ContentNodeObject
)

// ContentNode is one node of an article's structured content tree. Object
// fields keep the enumeration order of the source document so that extracted
// text reads in document order.
type ContentNode struct {
	Kind   ContentNodeKind
	Text   string
	Items  []ContentNode
	Fields []ContentField
}

type ContentField struct {
	Key  string
	Node ContentNode
}

// DecodeContentTree parses a serialized content tree. It decodes through the
// token stream instead of unmarshalling into maps, which would lose object
// key order.
func DecodeContentTree(raw []byte) (ContentNode, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	node, err := decodeContentValue(dec)
	if err != nil {
		return ContentNode{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return ContentNode{}, errors.New("trailing data after content tree")
	}
	return node, nil
}

func decodeContentValue(dec *json.Decoder) (ContentNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return ContentNode{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []ContentField
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return ContentNode{}, err
				}
				key, _ := keyTok.(string)
				child, err := decodeContentValue(dec)
				if err != nil {
					return ContentNode{}, err
				}
				fields = append(fields, ContentField{Key: key, Node: child})
			}
			if _, err := dec.Token(); err != nil {
				return ContentNode{}, err
			}
			return ContentNode{Kind: ContentNodeObject, Fields: fields}, nil
		case '[':
			var items []ContentNode
			for dec.More() {
				child, err := decodeContentValue(dec)
				if err != nil {
					return ContentNode{}, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return ContentNode{}, err
			}
			return ContentNode{Kind: ContentNodeArray, Items: items}, nil
		}
		return ContentNode{}, errors.New("unexpected closing delimiter")
	case string:
		return ContentNode{Kind: ContentNodeText, Text: t}, nil
	default:
		return ContentNode{Kind: ContentNodeOther}, nil
	}
}

// ContentNodeFromValue builds a content tree from an already decoded value,
// such as a list property returned by the graph store. Go maps have no stable
// enumeration order, so object keys are sorted to keep extraction
// deterministic.
func ContentNodeFromValue(value any) ContentNode {
	switch v := value.(type) {
	case string:
		return ContentNode{Kind: ContentNodeText, Text: v}
	case []any:
		items := make([]ContentNode, 0, len(v))
		for _, item := range v {
			items = append(items, ContentNodeFromValue(item))
		}
		return ContentNode{Kind: ContentNodeArray, Items: items}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fields := make([]ContentField, 0, len(keys))
		for _, key := range keys {
			fields = append(fields, ContentField{Key: key, Node: ContentNodeFromValue(v[key])})
		}
		return ContentNode{Kind: ContentNodeObject, Fields: fields}
	default:
		return ContentNode{Kind: ContentNodeOther}
	}
}

// ExtractText flattens the tree into a single space-joined string. Fragments
// appear in pre-order, arrays by position and objects in field order. Empty
// strings are dropped so they never produce doubled separators. The traversal
// uses an explicit stack, so arbitrarily deep trees cannot overflow the
// call stack.
func (n ContentNode) ExtractText() string {
	var fragments []string

	stack := []ContentNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch cur.Kind {
		case ContentNodeText:
			if cur.Text != "" {
				fragments = append(fragments, cur.Text)
			}
		case ContentNodeArray:
			for i := len(cur.Items) - 1; i >= 0; i-- {
				stack = append(stack, cur.Items[i])
			}
		case ContentNodeObject:
			for i := len(cur.Fields) - 1; i >= 0; i-- {
				stack = append(stack, cur.Fields[i].Node)
			}
		}
	}

	return strings.Join(fragments, " ")
}

// ExtractContent turns a raw content payload into indexable text. It is total
// over every payload shape the store can produce: structured values, strings
// holding a serialized tree, plain strings and absent values.
//
// A string payload that looks serialized but fails to decode falls back to
// the raw string itself; the returned ContentDecodeError reports the fallback
// and is meant to be logged, not propagated.
func ExtractContent(payload any) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", nil
	case string:
		return extractFromString(v)
	case []byte:
		return extractFromString(string(v))
	case map[string]any, []any:
		return ContentNodeFromValue(v).ExtractText(), nil
	default:
		return "", nil
	}
}

func extractFromString(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return s, nil
	}

	node, err := DecodeContentTree([]byte(trimmed))
	if err != nil {
		return s, &ContentDecodeError{Err: err}
	}
	return node.ExtractText(), nil
}
