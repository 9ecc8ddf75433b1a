package treeio

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/aretw0/panelstate/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a single YAML document. An empty document is null.
func ParseYAML(data []byte) (*domain.Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTree, err)
	}
	if doc.Kind == 0 {
		return domain.Null(), nil
	}
	t, err := fromNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTree, err)
	}
	return t, nil
}

func fromNode(n *yaml.Node) (*domain.Tree, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return domain.Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		t := domain.NewList()
		for _, item := range n.Content {
			v, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			t.Append(v)
		}
		return t, nil
	case yaml.MappingNode:
		t := domain.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			value, err := fromNode(v)
			if err != nil {
				return nil, err
			}
			t.Set(k.Value, value)
		}
		return t, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %v", n.Line, n.Kind)
	}
}

func fromScalar(n *yaml.Node) (*domain.Tree, error) {
	switch n.ShortTag() {
	case "!!null":
		return domain.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return domain.FromBool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return domain.FromNumber(f), nil
	default:
		return domain.FromString(n.Value), nil
	}
}

// EncodeYAML renders t as a YAML document.
func EncodeYAML(t *domain.Tree) ([]byte, error) {
	node, err := toNode(t)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func toNode(t *domain.Tree) (*yaml.Node, error) {
	if t == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch t.Kind {
	case domain.NullKind:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case domain.BoolKind:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t.Bool)}, nil
	case domain.NumberKind:
		if math.IsNaN(t.Number) || math.IsInf(t.Number, 0) {
			return nil, fmt.Errorf("%w: non-finite number", domain.ErrInvalidTree)
		}
		tag := "!!float"
		if t.Number == math.Trunc(t.Number) && math.Abs(t.Number) < 1<<53 {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: strconv.FormatFloat(t.Number, 'f', -1, 64)}, nil
	case domain.StringKind:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.String}, nil
	case domain.ListKind:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, v := range t.Values {
			child, err := toNode(v)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case domain.MapKind:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, k := range t.Keys {
			child, err := toNode(t.Values[i])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", domain.ErrInvalidTree, t.Kind)
	}
}
