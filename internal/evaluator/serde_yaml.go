package evaluator

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// serdeToYAML frames the pretty tree form as a single YAML document. The
// pretty form is itself valid YAML flow content, so the document round-trips
// through any YAML reader.
func serdeToYAML(_ *Runtime, args []Object) Object {
	text, err := encodeJSON(args[0], false)
	if err != nil {
		return err
	}
	return &Text{Value: "---\n" + text + "\n"}
}

func serdeFromYAML(_ *Runtime, args []Object) Object {
	text, err := argText("serde.from_yaml", args, 0)
	if err != nil {
		return err
	}
	var root yaml.Node
	if uerr := yaml.Unmarshal([]byte(text), &root); uerr != nil {
		return newFormatError("serde.from_yaml failed: %v", uerr)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return &Tuple{}
	}
	value, derr := yamlNodeToObject(root.Content[0])
	if derr != nil {
		return derr
	}
	return value
}

// yamlNodeToObject walks the parsed node tree directly so mapping keys keep
// their document order.
func yamlNodeToObject(node *yaml.Node) (Object, *Error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return yamlScalarToObject(node)
	case yaml.SequenceNode:
		elems := make([]Object, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := yamlNodeToObject(child)
			if err != nil {
				return nil, err
			}
			elems = append(elems, item)
		}
		return &Tuple{Elements: elems}, nil
	case yaml.MappingNode:
		pairs := make([]Object, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := yamlNodeToObject(node.Content[i])
			if err != nil {
				return nil, err
			}
			val, err := yamlNodeToObject(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, &Tuple{Elements: []Object{key, val}})
		}
		return &Tuple{Elements: pairs}, nil
	case yaml.AliasNode:
		return yamlNodeToObject(node.Alias)
	}
	return nil, newFormatError("serde.from_yaml cannot map node kind %d", node.Kind)
}

func yamlScalarToObject(node *yaml.Node) (Object, *Error) {
	switch node.Tag {
	case "!!null":
		return &Tuple{}, nil
	case "!!bool":
		return nativeBoolToBooleanObject(strings.EqualFold(node.Value, "true")), nil
	case "!!int":
		text := strings.ReplaceAll(node.Value, "_", "")
		v, ok := new(big.Int).SetString(text, 0)
		if !ok {
			return nil, newFormatError("serde.from_yaml cannot parse integer %q", node.Value)
		}
		return &Integer{Value: v}, nil
	case "!!float":
		switch strings.ToLower(node.Value) {
		case ".inf", "+.inf":
			return &Float{Value: math.Inf(1)}, nil
		case "-.inf":
			return &Float{Value: math.Inf(-1)}, nil
		case ".nan":
			return &Float{Value: math.NaN()}, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(node.Value, "_", ""), 64)
		if err != nil {
			return nil, newFormatError("serde.from_yaml cannot parse number %q", node.Value)
		}
		return &Float{Value: f}, nil
	case "!!str":
		return textOrBigInt("serde.from_yaml", node.Value)
	}
	return nil, newFormatError("serde.from_yaml cannot map scalar tag %s", node.Tag)
}
