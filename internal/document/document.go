// Package document provides a generic tree representation of untyped JSON
// documents. Object member order is preserved from the source bytes so that
// schema inference over the same document always yields the same catalog order,
// which Go's randomized map iteration cannot guarantee.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind identifies the type of a JSON node.
type Kind int

const (
	Null Kind = iota
	Object
	Array
	String
	Number
	Bool
)

// Member is a single key/value pair of an object node, in source order.
type Member struct {
	Key   string
	Value *Node
}

// Node is a single node of a decoded JSON document. All accessors are
// nil-safe: calling them on a nil or mismatched node returns zero values,
// so path resolution over arbitrary documents never panics.
type Node struct {
	kind    Kind
	members []Member
	index   map[string]*Node
	items   []*Node
	str     string
	num     float64
	boolean bool
}

// Decode parses raw JSON bytes into a document tree.
func Decode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	// Reject trailing garbage after the first value
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	return node, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", v)
		}
	case string:
		return &Node{kind: String, str: v}, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v.String(), err)
		}
		return &Node{kind: Number, num: f, str: v.String()}, nil
	case bool:
		return &Node{kind: Bool, boolean: v}, nil
	case nil:
		return &Node{kind: Null}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	node := &Node{kind: Object, index: make(map[string]*Node)}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		// Last occurrence wins on duplicate keys, matching encoding/json
		if _, seen := node.index[key]; !seen {
			node.members = append(node.members, Member{Key: key, Value: value})
		} else {
			for i := range node.members {
				if node.members[i].Key == key {
					node.members[i].Value = value
					break
				}
			}
		}
		node.index[key] = value
	}

	// Consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	node := &Node{kind: Array}

	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		node.items = append(node.items, item)
	}

	// Consume closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

// Kind returns the node's kind. A nil node reports Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// IsObject reports whether the node is a JSON object.
func (n *Node) IsObject() bool { return n.Kind() == Object }

// IsArray reports whether the node is a JSON array.
func (n *Node) IsArray() bool { return n.Kind() == Array }

// IsNumber reports whether the node is a JSON number.
func (n *Node) IsNumber() bool { return n.Kind() == Number }

// Get returns the value for key, or nil if the node is not an object or
// the key is absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != Object {
		return nil
	}
	return n.index[key]
}

// Has reports whether the object node contains key.
func (n *Node) Has(key string) bool {
	if n == nil || n.kind != Object {
		return false
	}
	_, ok := n.index[key]
	return ok
}

// Lookup resolves a sequence of keys via successive object lookups.
// A missing intermediate key yields nil.
func (n *Node) Lookup(path ...string) *Node {
	current := n
	for _, key := range path {
		current = current.Get(key)
		if current == nil {
			return nil
		}
	}
	return current
}

// Members returns the object's key/value pairs in source order.
func (n *Node) Members() []Member {
	if n == nil || n.kind != Object {
		return nil
	}
	return n.members
}

// Items returns the array's elements in order.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != Array {
		return nil
	}
	return n.items
}

// Len returns the number of members or items, depending on kind.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case Object:
		return len(n.members)
	case Array:
		return len(n.items)
	default:
		return 0
	}
}

// First returns the first array element, or nil.
func (n *Node) First() *Node {
	items := n.Items()
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// Float returns the numeric value and whether the node is a number.
func (n *Node) Float() (float64, bool) {
	if n == nil || n.kind != Number {
		return 0, false
	}
	return n.num, true
}

// FloatOr returns the numeric value, or fallback when the node is not a number.
func (n *Node) FloatOr(fallback float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return fallback
}

// Str returns the string value, or "" for non-string nodes.
func (n *Node) Str() string {
	if n == nil || n.kind != String {
		return ""
	}
	return n.str
}

// IsIntegral reports whether the node is a number with no fractional part.
func (n *Node) IsIntegral() bool {
	f, ok := n.Float()
	if !ok {
		return false
	}
	return f == math.Trunc(f)
}

// Interface converts the node to a plain Go value (map[string]any for
// objects loses ordering; intended for previews and JSON responses only).
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case Null:
		return nil
	case Bool:
		return n.boolean
	case Number:
		return n.num
	case String:
		return n.str
	case Array:
		out := make([]any, 0, len(n.items))
		for _, item := range n.items {
			out = append(out, item.Interface())
		}
		return out
	case Object:
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}
