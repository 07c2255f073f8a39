package evaluator

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// serdeModule converts between the value model and the external encodings:
// tree text (compact/pretty), YAML subset, TOML subset, typed-element XML,
// delimited rows, byte tuples, a tag-length-value binary form, base64 and
// CBOR. Every encoder has a decoder that reconstructs an equal value.
func serdeModule() map[string]*Builtin {
	return map[string]*Builtin{
		"to_json":     {Name: "serde.to_json", Arity: 1, Fn: serdeToJSON},
		"pretty_json": {Name: "serde.pretty_json", Arity: 1, Fn: serdePrettyJSON},
		"from_json":   {Name: "serde.from_json", Arity: 1, Fn: serdeFromJSON},
		"to_yaml":     {Name: "serde.to_yaml", Arity: 1, Fn: serdeToYAML},
		"from_yaml":   {Name: "serde.from_yaml", Arity: 1, Fn: serdeFromYAML},
		"to_toml":     {Name: "serde.to_toml", Arity: 1, Fn: serdeToTOML},
		"from_toml":   {Name: "serde.from_toml", Arity: 1, Fn: serdeFromTOML},
		"to_xml":      {Name: "serde.to_xml", Arity: 1, Fn: serdeToXML},
		"from_xml":    {Name: "serde.from_xml", Arity: 1, Fn: serdeFromXML},
		"to_csv":      {Name: "serde.to_csv", Arity: 1, Fn: serdeToCSV},
		"from_csv":    {Name: "serde.from_csv", Arity: 1, Fn: serdeFromCSV},
		"to_bytes":    {Name: "serde.to_bytes", Arity: 1, Fn: serdeToBytes},
		"from_bytes":  {Name: "serde.from_bytes", Arity: 1, Fn: serdeFromBytes},
		"to_bin":      {Name: "serde.to_bin", Arity: 1, Fn: serdeToBin},
		"from_bin":    {Name: "serde.from_bin", Arity: 1, Fn: serdeFromBin},
		"to_base64":   {Name: "serde.to_base64", Arity: 1, Fn: serdeToBase64},
		"from_base64": {Name: "serde.from_base64", Arity: 1, Fn: serdeFromBase64},
		"to_cbor":     {Name: "serde.to_cbor", Arity: 1, Fn: serdeToCBOR},
		"from_cbor":   {Name: "serde.from_cbor", Arity: 1, Fn: serdeFromCBOR},
	}
}

func serdeToJSON(_ *Runtime, args []Object) Object {
	text, err := encodeJSON(args[0], true)
	if err != nil {
		return err
	}
	return &Text{Value: text}
}

func serdePrettyJSON(_ *Runtime, args []Object) Object {
	text, err := encodeJSON(args[0], false)
	if err != nil {
		return err
	}
	return &Text{Value: text}
}

func serdeFromJSON(_ *Runtime, args []Object) Object {
	text, err := argText("serde.from_json", args, 0)
	if err != nil {
		return err
	}
	value, derr := decodeJSON("serde.from_json", text)
	if derr != nil {
		return derr
	}
	return value
}

func serdeToBytes(_ *Runtime, args []Object) Object {
	text, err := encodeJSON(args[0], true)
	if err != nil {
		return err
	}
	return byteTuple([]byte(text))
}

func serdeFromBytes(_ *Runtime, args []Object) Object {
	elems, err := argTuple("serde.from_bytes", args, 0)
	if err != nil {
		return err
	}
	data, err := tupleBytes("serde.from_bytes", elems)
	if err != nil {
		return err
	}
	value, derr := decodeJSON("serde.from_bytes", string(data))
	if derr != nil {
		return derr
	}
	return value
}

func serdeToBase64(_ *Runtime, args []Object) Object {
	text, err := encodeJSON(args[0], true)
	if err != nil {
		return err
	}
	return &Text{Value: base64.StdEncoding.EncodeToString([]byte(text))}
}

func serdeFromBase64(_ *Runtime, args []Object) Object {
	encoded, err := argText("serde.from_base64", args, 0)
	if err != nil {
		return err
	}
	data, derr := base64.StdEncoding.DecodeString(encoded)
	if derr != nil {
		return newFormatError("serde.from_base64 decode failed: %v", derr)
	}
	value, verr := decodeJSON("serde.from_base64", string(data))
	if verr != nil {
		return verr
	}
	return value
}

// The binary form is tag-length-value: 0x01 integer (big-endian two's
// complement), 0x02 float bits, 0x03 bool, 0x04 text, 0x05 tuple. Lengths
// are big-endian u32. Trailing bytes after the root value are an error.

const (
	binTagInt   = 0x01
	binTagFloat = 0x02
	binTagBool  = 0x03
	binTagText  = 0x04
	binTagTuple = 0x05
)

func serdeToBin(_ *Runtime, args []Object) Object {
	var out []byte
	if err := encodeBinary(args[0], &out); err != nil {
		return err
	}
	return byteTuple(out)
}

func serdeFromBin(_ *Runtime, args []Object) Object {
	elems, err := argTuple("serde.from_bin", args, 0)
	if err != nil {
		return err
	}
	data, err := tupleBytes("serde.from_bin", elems)
	if err != nil {
		return err
	}
	cursor := 0
	value, derr := decodeBinary(data, &cursor)
	if derr != nil {
		return derr
	}
	if cursor != len(data) {
		return newFormatError("serde.from_bin encountered trailing bytes after decoding")
	}
	return value
}

func encodeBinary(value Object, out *[]byte) *Error {
	switch v := value.(type) {
	case *Integer:
		*out = append(*out, binTagInt)
		payload := bigToSignedBytes(v.Value)
		appendLength(out, len(payload))
		*out = append(*out, payload...)
	case *Float:
		*out = append(*out, binTagFloat)
		*out = binary.BigEndian.AppendUint64(*out, math.Float64bits(v.Value))
	case *Boolean:
		*out = append(*out, binTagBool)
		if v.Value {
			*out = append(*out, 1)
		} else {
			*out = append(*out, 0)
		}
	case *Text:
		*out = append(*out, binTagText)
		appendLength(out, len(v.Value))
		*out = append(*out, v.Value...)
	case *Tuple:
		*out = append(*out, binTagTuple)
		appendLength(out, len(v.Elements))
		for _, e := range v.Elements {
			if err := encodeBinary(e, out); err != nil {
				return err
			}
		}
	default:
		return newFormatError("value of type %s cannot be serialized", value.Type())
	}
	return nil
}

func appendLength(out *[]byte, length int) {
	*out = binary.BigEndian.AppendUint32(*out, uint32(length))
}

func decodeBinary(data []byte, cursor *int) (Object, *Error) {
	if *cursor >= len(data) {
		return nil, newFormatError("serde.from_bin reached the end of the buffer unexpectedly")
	}
	tag := data[*cursor]
	*cursor++
	switch tag {
	case binTagInt:
		payload, err := readLengthPrefixed(data, cursor, "int")
		if err != nil {
			return nil, err
		}
		return &Integer{Value: bigFromSignedBytes(payload)}, nil
	case binTagFloat:
		if *cursor+8 > len(data) {
			return nil, newFormatError("serde.from_bin number payload is incomplete")
		}
		bits := binary.BigEndian.Uint64(data[*cursor:])
		*cursor += 8
		return &Float{Value: math.Float64frombits(bits)}, nil
	case binTagBool:
		if *cursor >= len(data) {
			return nil, newFormatError("serde.from_bin bool payload is missing")
		}
		flag := data[*cursor] != 0
		*cursor++
		return nativeBoolToBooleanObject(flag), nil
	case binTagText:
		payload, err := readLengthPrefixed(data, cursor, "string")
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(payload) {
			return nil, newFormatError("serde.from_bin string payload is not UTF-8")
		}
		return &Text{Value: string(payload)}, nil
	case binTagTuple:
		count, err := readLength(data, cursor)
		if err != nil {
			return nil, err
		}
		// Every element occupies at least one byte, so a count beyond the
		// remaining input is already malformed; cap the preallocation and
		// let the element loop report the truncation.
		capHint := count
		if remaining := len(data) - *cursor; capHint > remaining {
			capHint = remaining
		}
		elems := make([]Object, 0, capHint)
		for i := 0; i < count; i++ {
			item, derr := decodeBinary(data, cursor)
			if derr != nil {
				return nil, derr
			}
			elems = append(elems, item)
		}
		return &Tuple{Elements: elems}, nil
	}
	return nil, newFormatError("serde.from_bin encountered an unknown tag")
}

func readLength(data []byte, cursor *int) (int, *Error) {
	if *cursor+4 > len(data) {
		return 0, newFormatError("serde.from_bin length header extends beyond the buffer")
	}
	length := int(binary.BigEndian.Uint32(data[*cursor:]))
	*cursor += 4
	return length, nil
}

func readLengthPrefixed(data []byte, cursor *int, what string) ([]byte, *Error) {
	length, err := readLength(data, cursor)
	if err != nil {
		return nil, err
	}
	if *cursor+length > len(data) {
		return nil, newFormatError("serde.from_bin %s payload length exceeds buffer", what)
	}
	payload := data[*cursor : *cursor+length]
	*cursor += length
	return payload, nil
}

// bigToSignedBytes renders the minimal big-endian two's-complement form.
func bigToSignedBytes(v *big.Int) []byte {
	if v.Sign() >= 0 {
		b := v.Bytes()
		if len(b) == 0 {
			return []byte{0}
		}
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	length := 1
	for {
		min := new(big.Int).Lsh(big.NewInt(1), uint(8*length-1))
		min.Neg(min)
		if v.Cmp(min) >= 0 {
			break
		}
		length++
	}
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*length))
	t.Add(t, v)
	return t.FillBytes(make([]byte, length))
}

func bigFromSignedBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		shift := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		v.Sub(v, shift)
	}
	return v
}

// CBOR keeps tuples as arrays in both directions; big integers travel as
// CBOR bignums, so magnitude survives without the #int: tag.

func serdeToCBOR(_ *Runtime, args []Object) Object {
	native, err := objectToCBOR(args[0])
	if err != nil {
		return err
	}
	data, merr := cbor.Marshal(native)
	if merr != nil {
		return newFormatError("serde.to_cbor failed: %v", merr)
	}
	return byteTuple(data)
}

func serdeFromCBOR(_ *Runtime, args []Object) Object {
	elems, err := argTuple("serde.from_cbor", args, 0)
	if err != nil {
		return err
	}
	data, err := tupleBytes("serde.from_cbor", elems)
	if err != nil {
		return err
	}
	var native interface{}
	if uerr := cbor.Unmarshal(data, &native); uerr != nil {
		return newFormatError("serde.from_cbor failed: %v", uerr)
	}
	value, cerr := cborToObject(native)
	if cerr != nil {
		return cerr
	}
	return value
}

func objectToCBOR(value Object) (interface{}, *Error) {
	switch v := value.(type) {
	case *Integer:
		return v.Value, nil
	case *Float:
		return v.Value, nil
	case *Boolean:
		return v.Value, nil
	case *Text:
		return v.Value, nil
	case *Tuple:
		items := make([]interface{}, len(v.Elements))
		for i, e := range v.Elements {
			item, err := objectToCBOR(e)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	}
	return nil, newFormatError("value of type %s cannot be serialized", value.Type())
}

func cborToObject(native interface{}) (Object, *Error) {
	switch v := native.(type) {
	case nil:
		return &Tuple{}, nil
	case bool:
		return nativeBoolToBooleanObject(v), nil
	case uint64:
		return &Integer{Value: new(big.Int).SetUint64(v)}, nil
	case int64:
		return NewInteger(v), nil
	case big.Int:
		return &Integer{Value: new(big.Int).Set(&v)}, nil
	case float64:
		return &Float{Value: v}, nil
	case float32:
		return &Float{Value: float64(v)}, nil
	case string:
		return &Text{Value: v}, nil
	case []interface{}:
		elems := make([]Object, len(v))
		for i, item := range v {
			obj, err := cborToObject(item)
			if err != nil {
				return nil, err
			}
			elems[i] = obj
		}
		return &Tuple{Elements: elems}, nil
	}
	return nil, newFormatError("serde.from_cbor cannot map %T into a value", native)
}
