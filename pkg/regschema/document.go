package regschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Format selects the document syntax.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

type nodeKind int

const (
	nullNode nodeKind = iota
	scalarNode
	boolNode
	mapNode
	seqNode
)

func (k nodeKind) String() string {
	switch k {
	case scalarNode:
		return "scalar"
	case boolNode:
		return "boolean"
	case mapNode:
		return "object"
	case seqNode:
		return "sequence"
	default:
		return "null"
	}
}

// node is the format-neutral document tree. Scalars keep their source text
// so a YAML 0x10 stays "0x10" instead of becoming 16. number marks a bare
// numeric scalar whose text is decimal.
type node struct {
	kind   nodeKind
	text   string
	number bool
	truth  bool
	fields map[string]*node
	items  []*node
	line   int
}

func (n *node) get(key string) *node {
	if n == nil || n.kind != mapNode {
		return nil
	}
	return n.fields[key]
}

func readDocument(data []byte, format Format) (*node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if format == FormatYAML {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return fromYAML(&doc), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromJSON(v), nil
}

func fromYAML(y *yaml.Node) *node {
	if y == nil {
		return &node{}
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return &node{line: y.Line}
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		n := &node{kind: mapNode, fields: make(map[string]*node, len(y.Content)/2), line: y.Line}
		for i := 0; i+1 < len(y.Content); i += 2 {
			n.fields[y.Content[i].Value] = fromYAML(y.Content[i+1])
		}
		return n
	case yaml.SequenceNode:
		n := &node{kind: seqNode, line: y.Line}
		for _, c := range y.Content {
			n.items = append(n.items, fromYAML(c))
		}
		return n
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!null":
			return &node{kind: nullNode, line: y.Line}
		case "!!bool":
			var b bool
			if err := y.Decode(&b); err == nil {
				return &node{kind: boolNode, truth: b, text: y.Value, line: y.Line}
			}
		case "!!int":
			if hasHexPrefix(y.Value) {
				break
			}
			n := &node{kind: scalarNode, text: y.Value, number: true, line: y.Line}
			var u uint64
			if err := y.Decode(&u); err == nil {
				n.text = strconv.FormatUint(u, 10)
			}
			return n
		case "!!float":
			return &node{kind: scalarNode, text: y.Value, number: true, line: y.Line}
		}
		return &node{kind: scalarNode, text: y.Value, line: y.Line}
	}
	return &node{line: y.Line}
}

func fromJSON(v any) *node {
	switch t := v.(type) {
	case map[string]any:
		n := &node{kind: mapNode, fields: make(map[string]*node, len(t))}
		for k, c := range t {
			n.fields[k] = fromJSON(c)
		}
		return n
	case []any:
		n := &node{kind: seqNode}
		for _, c := range t {
			n.items = append(n.items, fromJSON(c))
		}
		return n
	case string:
		return &node{kind: scalarNode, text: t}
	case json.Number:
		return &node{kind: scalarNode, text: t.String(), number: true}
	case bool:
		return &node{kind: boolNode, truth: t, text: fmt.Sprint(t)}
	}
	return &node{}
}
