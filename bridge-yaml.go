package sion

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrExcessiveAliasing is returned by FromYAML if expanding the aliases of a
// document would produce far more nodes than the document contains.
var ErrExcessiveAliasing = errors.New("sion: yaml document contains excessive aliasing")

// FromYAML converts the first document of a YAML stream into a Value.
// Scalars are converted according to their resolved tag, !!binary becomes
// Data and !!timestamp becomes Date. Mapping keys may be of any kind.
func FromYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if doc.Kind == 0 {
		// empty input
		return Nil{}, nil
	}

	r := yamlReader{maxDepth: DefaultMaxDepth}
	return r.node(&doc)
}

type yamlReader struct {
	depth    int
	maxDepth int

	// number of converted nodes, and how many of them were reached through an alias
	nodeCount  int
	aliasCount int
	aliasDepth int
}

// allowedAliasRatio returns the share of alias expanded nodes that is accepted
// after converting nodeCount nodes. It shrinks from 99% to 10% as documents grow.
func allowedAliasRatio(nodeCount int) float64 {
	const low, high = 400_000, 4_000_000

	switch {
	case nodeCount <= low:
		return 0.99
	case nodeCount >= high:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(nodeCount-low)/float64(high-low))
	}
}

func (r *yamlReader) countNode(n *yaml.Node) error {
	r.nodeCount++
	if r.aliasDepth > 0 {
		r.aliasCount++
	}

	if r.aliasCount > 100 && r.nodeCount > 1000 &&
		float64(r.aliasCount)/float64(r.nodeCount) > allowedAliasRatio(r.nodeCount) {
		return fmt.Errorf("yaml line %d: %w", n.Line, ErrExcessiveAliasing)
	}

	return nil
}

func (r *yamlReader) node(n *yaml.Node) (Value, error) {
	if r.depth >= r.maxDepth {
		return nil, fmt.Errorf("yaml line %d: %w", n.Line, ErrMaxDepth)
	}

	if err := r.countNode(n); err != nil {
		return nil, err
	}

	r.depth++
	defer func() { r.depth-- }()

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Nil{}, nil
		}

		return r.node(n.Content[0])

	case yaml.AliasNode:
		r.aliasDepth++
		defer func() { r.aliasDepth-- }()

		return r.node(n.Alias)

	case yaml.ScalarNode:
		return scalarOf(n)

	case yaml.SequenceNode:
		result := Array{}
		for _, child := range n.Content {
			element, err := r.node(child)
			if err != nil {
				return nil, err
			}

			result = append(result, element)
		}

		return result, nil

	case yaml.MappingNode:
		result := Map{}
		for idx := 0; idx+1 < len(n.Content); idx += 2 {
			key, err := r.node(n.Content[idx])
			if err != nil {
				return nil, err
			}

			value, err := r.node(n.Content[idx+1])
			if err != nil {
				return nil, err
			}

			result = append(result, Pair{Key: key, Value: value})
		}

		return result, nil

	default:
		return nil, fmt.Errorf("yaml node kind %d: %w", n.Kind, ErrNotSupported)
	}
}

func scalarOf(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Nil{}, nil

	case "!!bool":
		var value bool
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}

		return Bool(value), nil

	case "!!int":
		var value int64
		if err := n.Decode(&value); err == nil {
			return Int(value), nil
		}

		// too large for an int64
		var floatValue float64
		if err := n.Decode(&floatValue); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}

		return Double(floatValue), nil

	case "!!float":
		var value float64
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}

		return Double(value), nil

	case "!!binary":
		payload := strings.Join(strings.Fields(n.Value), "")
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}

		return Data(decoded), nil

	case "!!timestamp":
		var value time.Time
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("yaml line %d: %w", n.Line, err)
		}

		return DateOf(value), nil

	default:
		return String(n.Value), nil
	}
}

// ToYAML converts v into a YAML document.
func ToYAML(v Value) ([]byte, error) {
	n, err := yamlNodeOf(v, 0)
	if err != nil {
		return nil, err
	}

	return yaml.Marshal(n)
}

func yamlNodeOf(v Value, depth int) (*yaml.Node, error) {
	if depth >= DefaultMaxDepth {
		return nil, fmt.Errorf("yaml: %w", ErrMaxDepth)
	}

	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch v := v.(type) {
	case nil, Nil:
		return scalar("!!null", "null"), nil

	case Bool:
		return scalar("!!bool", strconv.FormatBool(bool(v))), nil

	case Int:
		return scalar("!!int", strconv.FormatInt(int64(v), 10)), nil

	case Double:
		return scalar("!!float", yamlFloat(float64(v))), nil

	case String:
		return scalar("!!str", string(v)), nil

	case Data:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v)), nil

	case Date:
		return scalar("!!timestamp", v.Time().Format(time.RFC3339Nano)), nil

	case Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, element := range v {
			child, err := yamlNodeOf(element, depth+1)
			if err != nil {
				return nil, err
			}

			n.Content = append(n.Content, child)
		}

		return n, nil

	case Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, pair := range v {
			key, err := yamlNodeOf(pair.Key, depth+1)
			if err != nil {
				return nil, err
			}

			value, err := yamlNodeOf(pair.Value, depth+1)
			if err != nil {
				return nil, err
			}

			n.Content = append(n.Content, key, value)
		}

		return n, nil

	default:
		return nil, fmt.Errorf("yaml %T: %w", v, ErrNotSupported)
	}
}

func yamlFloat(value float64) string {
	switch {
	case math.IsNaN(value):
		return ".nan"
	case math.IsInf(value, 1):
		return ".inf"
	case math.IsInf(value, -1):
		return "-.inf"
	default:
		return string(appendDouble(nil, value))
	}
}
