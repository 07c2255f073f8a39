package evaluator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// The tree-text codec. Integers that fit 64 bits emit as plain numbers;
// anything larger becomes a "#int:<digits>" tagged string so decoding can
// rebuild the full magnitude. Tuples emit as arrays unless every element
// is a (Text, value) pair, in which case they emit as an object, applied
// recursively. Objects keep their key order through both directions, which
// is why encoding is hand-rolled and decoding walks the token stream
// instead of going through a map.

const bigIntPrefix = "#int:"

var (
	maxInt64  = big.NewInt(math.MaxInt64)
	minInt64  = big.NewInt(math.MinInt64)
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

// recordPairs reports whether a tuple qualifies as an associative record
// and returns its pairs. Empty tuples stay arrays.
func recordPairs(elems []Object) ([][2]Object, bool) {
	if len(elems) == 0 {
		return nil, false
	}
	pairs := make([][2]Object, len(elems))
	for i, e := range elems {
		pair, ok := e.(*Tuple)
		if !ok || len(pair.Elements) != 2 {
			return nil, false
		}
		if _, ok := pair.Elements[0].(*Text); !ok {
			return nil, false
		}
		pairs[i] = [2]Object{pair.Elements[0], pair.Elements[1]}
	}
	return pairs, true
}

func encodeJSON(value Object, compact bool) (string, *Error) {
	var sb strings.Builder
	if err := writeJSON(&sb, value, compact, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeJSON(sb *strings.Builder, value Object, compact bool, depth int) *Error {
	switch v := value.(type) {
	case *Integer:
		if v.Value.Cmp(minInt64) >= 0 && v.Value.Cmp(maxUint64) <= 0 {
			sb.WriteString(v.Value.String())
		} else {
			sb.WriteString(quoteJSON(bigIntPrefix + v.Value.String()))
		}
	case *Float:
		sb.WriteString(jsonFloat(v.Value))
	case *Boolean:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *Text:
		sb.WriteString(quoteJSON(v.Value))
	case *Tuple:
		if pairs, ok := recordPairs(v.Elements); ok {
			return writeJSONObject(sb, pairs, compact, depth)
		}
		return writeJSONArray(sb, v.Elements, compact, depth)
	default:
		return newFormatError("value of type %s cannot be serialized", value.Type())
	}
	return nil
}

func writeJSONArray(sb *strings.Builder, elems []Object, compact bool, depth int) *Error {
	if len(elems) == 0 {
		sb.WriteString("[]")
		return nil
	}
	sb.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		if !compact {
			sb.WriteByte('\n')
			writeIndent(sb, depth+1)
		}
		if err := writeJSON(sb, e, compact, depth+1); err != nil {
			return err
		}
	}
	if !compact {
		sb.WriteByte('\n')
		writeIndent(sb, depth)
	}
	sb.WriteByte(']')
	return nil
}

func writeJSONObject(sb *strings.Builder, pairs [][2]Object, compact bool, depth int) *Error {
	sb.WriteByte('{')
	for i, pair := range pairs {
		if i > 0 {
			sb.WriteByte(',')
		}
		if !compact {
			sb.WriteByte('\n')
			writeIndent(sb, depth+1)
		}
		sb.WriteString(quoteJSON(pair[0].(*Text).Value))
		sb.WriteByte(':')
		if !compact {
			sb.WriteByte(' ')
		}
		if err := writeJSON(sb, pair[1], compact, depth+1); err != nil {
			return err
		}
	}
	if !compact {
		sb.WriteByte('\n')
		writeIndent(sb, depth)
	}
	sb.WriteByte('}')
	return nil
}

func writeIndent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString("  ")
	}
}

// jsonFloat keeps the float marker so integral floats survive a round
// trip. Non-finite values have no JSON number form and emit as strings.
func jsonFloat(f float64) string {
	if math.IsNaN(f) {
		return quoteJSON("NaN")
	}
	if math.IsInf(f, 1) {
		return quoteJSON("inf")
	}
	if math.IsInf(f, -1) {
		return quoteJSON("-inf")
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quoteJSON(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// decodeJSON walks the token stream so object key order is preserved.
func decodeJSON(name, text string) (Object, *Error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	value, err := decodeJSONValue(name, dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, newFormatError("%s encountered trailing input", name)
	}
	return value, nil
}

func decodeJSONValue(name string, dec *json.Decoder) (Object, *Error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, newFormatError("%s failed: %v", name, err)
	}
	return jsonToken(name, dec, tok)
}

func jsonToken(name string, dec *json.Decoder, tok json.Token) (Object, *Error) {
	switch t := tok.(type) {
	case nil:
		return &Tuple{}, nil
	case bool:
		return nativeBoolToBooleanObject(t), nil
	case string:
		return textOrBigInt(name, t)
	case json.Number:
		return jsonNumber(name, t)
	case json.Delim:
		switch t {
		case '[':
			var elems []Object
			for dec.More() {
				elem, err := decodeJSONValue(name, dec)
				if err != nil {
					return nil, err
				}
				elems = append(elems, elem)
			}
			if _, err := dec.Token(); err != nil {
				return nil, newFormatError("%s failed: %v", name, err)
			}
			return &Tuple{Elements: elems}, nil
		case '{':
			var entries []Object
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, newFormatError("%s failed: %v", name, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, newFormatError("%s found a non-string object key", name)
				}
				value, derr := decodeJSONValue(name, dec)
				if derr != nil {
					return nil, derr
				}
				entries = append(entries, &Tuple{Elements: []Object{&Text{Value: key}, value}})
			}
			if _, err := dec.Token(); err != nil {
				return nil, newFormatError("%s failed: %v", name, err)
			}
			return &Tuple{Elements: entries}, nil
		}
	}
	return nil, newFormatError("%s encountered an unexpected token", name)
}

func textOrBigInt(name, s string) (Object, *Error) {
	if rest, ok := strings.CutPrefix(s, bigIntPrefix); ok {
		value, ok := new(big.Int).SetString(rest, 10)
		if !ok {
			return nil, newFormatError("%s: invalid big integer literal %q", name, rest)
		}
		return &Integer{Value: value}, nil
	}
	return &Text{Value: s}, nil
}

func jsonNumber(name string, n json.Number) (Object, *Error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if value, ok := new(big.Int).SetString(s, 10); ok {
			return &Integer{Value: value}, nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, newFormatError("%s: invalid number %q", name, s)
	}
	return &Float{Value: f}, nil
}
