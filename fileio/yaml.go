package fileio

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hengadev/serdx"
)

// YAML writes serialized data as YAML through gopkg.in/yaml.v3 node
// trees, which keeps mapping entries in their original order.
var YAML = &Format{
	Name:      "yaml",
	Exts:      []string{"yml", "yaml"},
	Serialize: true,
	write:     yamlWriter,
	read:      yamlReader,
}

func yamlWriter(w io.Writer, v any) error {
	d, err := asData(v)
	if err != nil {
		return err
	}
	node, err := yamlNode(d)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

func yamlReader(r io.Reader) (any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return serdx.Null(), nil
		}
		return nil, err
	}
	node := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return serdx.Null(), nil
		}
		node = doc.Content[0]
	}
	return yamlData(node)
}

func yamlNode(d serdx.Data) (*yaml.Node, error) {
	switch d.Kind() {
	case serdx.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case serdx.KindBool:
		b, _ := d.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}, nil
	case serdx.KindInt:
		i, _ := d.AsInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}, nil
	case serdx.KindFloat:
		f, _ := d.AsFloat()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	case serdx.KindString:
		s, _ := d.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	case serdx.KindSequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range d.Items() {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case serdx.KindMapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range d.Entries() {
			key, err := yamlNode(e.Key)
			if err != nil {
				return nil, err
			}
			value, err := yamlNode(e.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, key, value)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("cannot encode %s data as YAML", d.Kind())
	}
}

func yamlData(node *yaml.Node) (serdx.Data, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlData(node.Alias)
	case yaml.ScalarNode:
		return yamlScalar(node)
	case yaml.SequenceNode:
		items := make([]serdx.Data, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := yamlData(child)
			if err != nil {
				return serdx.Data{}, err
			}
			items = append(items, item)
		}
		return serdx.Sequence(items...), nil
	case yaml.MappingNode:
		entries := make([]serdx.Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := yamlData(node.Content[i])
			if err != nil {
				return serdx.Data{}, err
			}
			value, err := yamlData(node.Content[i+1])
			if err != nil {
				return serdx.Data{}, err
			}
			entries = append(entries, serdx.Entry{Key: key, Value: value})
		}
		return serdx.Mapping(entries...), nil
	default:
		return serdx.Data{}, fmt.Errorf("unsupported YAML node kind %d at line %d", node.Kind, node.Line)
	}
}

func yamlScalar(node *yaml.Node) (serdx.Data, error) {
	switch node.Tag {
	case "!!null":
		return serdx.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return serdx.Data{}, err
		}
		return serdx.Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return serdx.Data{}, err
		}
		return serdx.Int(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return serdx.Data{}, err
		}
		return serdx.Float(f), nil
	default:
		// Strings, timestamps and unresolved tags keep their text form.
		return serdx.String(node.Value), nil
	}
}
