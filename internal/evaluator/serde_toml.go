package evaluator

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// The TOML surface is a subset: one table of key = value lines, where values
// are strings, numbers with optional '_' separators, booleans, inline arrays
// and inline tables. A non-record root serializes as a bare value.

func serdeToTOML(_ *Runtime, args []Object) Object {
	value := args[0]
	if tuple, ok := value.(*Tuple); ok {
		if pairs, isRecord := recordPairs(tuple.Elements); isRecord {
			lines := make([]string, 0, len(pairs))
			for _, pair := range pairs {
				entry, err := formatTOMLValue(pair[1])
				if err != nil {
					return err
				}
				lines = append(lines, pair[0].(*Text).Value+" = "+entry)
			}
			return &Text{Value: strings.Join(lines, "\n")}
		}
	}
	text, err := formatTOMLValue(value)
	if err != nil {
		return err
	}
	return &Text{Value: text}
}

func formatTOMLValue(value Object) (string, *Error) {
	switch v := value.(type) {
	case *Integer:
		if v.Value.Cmp(minInt64) >= 0 && v.Value.Cmp(maxUint64) <= 0 {
			return v.Value.String(), nil
		}
		return `"` + escapeTOMLString(bigIntPrefix+v.Value.String()) + `"`, nil
	case *Float:
		return jsonFloat(v.Value), nil
	case *Boolean:
		if v.Value {
			return "true", nil
		}
		return "false", nil
	case *Text:
		return `"` + escapeTOMLString(v.Value) + `"`, nil
	case *Tuple:
		if pairs, isRecord := recordPairs(v.Elements); isRecord {
			var inner strings.Builder
			for i, pair := range pairs {
				if i > 0 {
					inner.WriteString(", ")
				}
				entry, err := formatTOMLValue(pair[1])
				if err != nil {
					return "", err
				}
				inner.WriteString(pair[0].(*Text).Value)
				inner.WriteString(" = ")
				inner.WriteString(entry)
			}
			return "{" + inner.String() + "}", nil
		}
		parts := make([]string, 0, len(v.Elements))
		for _, item := range v.Elements {
			entry, err := formatTOMLValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, entry)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	return "", newFormatError("value of type %s cannot be serialized", value.Type())
}

func escapeTOMLString(text string) string {
	var escaped strings.Builder
	escaped.Grow(len(text))
	for _, ch := range text {
		switch ch {
		case '"':
			escaped.WriteString(`\"`)
		case '\\':
			escaped.WriteString(`\\`)
		case '\n':
			escaped.WriteString(`\n`)
		case '\t':
			escaped.WriteString(`\t`)
		case '\r':
			escaped.WriteString(`\r`)
		default:
			escaped.WriteRune(ch)
		}
	}
	return escaped.String()
}

func serdeFromTOML(_ *Runtime, args []Object) Object {
	text, err := argText("serde.from_toml", args, 0)
	if err != nil {
		return err
	}
	parser := &tomlParser{input: text}
	value, derr := parser.parseDocument()
	if derr != nil {
		return derr
	}
	return value
}

type tomlParser struct {
	input string
	pos   int
}

func (p *tomlParser) parseDocument() (Object, *Error) {
	p.skipBlankLines()
	if p.eof() {
		return &Tuple{}, nil
	}
	if p.peekIsKeyValueLine() {
		var pairs []Object
		for p.peekIsKeyValueLine() {
			key, err := p.parseKey()
			if err != nil {
				return nil, err
			}
			p.skipSpaces()
			if err := p.expectByte('='); err != nil {
				return nil, err
			}
			p.skipSpaces()
			value, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, &Tuple{Elements: []Object{&Text{Value: key}, value}})
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
			p.skipBlankLines()
		}
		return &Tuple{Elements: pairs}, nil
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipBlankLines()
	if !p.eof() {
		return nil, newFormatError("serde.from_toml encountered trailing characters")
	}
	return value, nil
}

func (p *tomlParser) parseKey() (string, *Error) {
	p.skipSpaces()
	start := p.pos
	for {
		ch, ok := p.peekByte()
		if !ok || !(isTOMLKeyByte(ch)) {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", newFormatError("serde.from_toml expected an identifier before '='")
	}
	return p.input[start:p.pos], nil
}

func isTOMLKeyByte(ch byte) bool {
	return ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch == '-'
}

func (p *tomlParser) parseValue() (Object, *Error) {
	p.skipSpaces()
	ch, ok := p.peekByte()
	if !ok {
		return nil, newFormatError("serde.from_toml expected a value")
	}
	switch {
	case ch == '"':
		text, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return textOrBigInt("serde.from_toml", text)
	case ch == '[':
		return p.parseArray()
	case ch == '{':
		return p.parseInlineTable()
	case ch == 't' || ch == 'f':
		return p.parseBool()
	case ch == '+' || ch == '-' || ch >= '0' && ch <= '9':
		return p.parseNumber()
	}
	return nil, newFormatError("serde.from_toml encountered an unknown token")
}

func (p *tomlParser) parseString() (string, *Error) {
	if err := p.expectByte('"'); err != nil {
		return "", err
	}
	var output strings.Builder
	for {
		ch, ok := p.nextByte()
		if !ok {
			return "", newFormatError("serde.from_toml reached end of string")
		}
		switch ch {
		case '"':
			return output.String(), nil
		case '\\':
			esc, ok := p.nextByte()
			if !ok {
				return "", newFormatError("serde.from_toml found an unfinished escape")
			}
			switch esc {
			case '"':
				output.WriteByte('"')
			case '\\':
				output.WriteByte('\\')
			case 'n':
				output.WriteByte('\n')
			case 't':
				output.WriteByte('\t')
			case 'r':
				output.WriteByte('\r')
			default:
				output.WriteByte(esc)
			}
		default:
			output.WriteByte(ch)
		}
	}
}

func (p *tomlParser) parseNumber() (Object, *Error) {
	start := p.pos
	if ch, ok := p.peekByte(); ok && (ch == '+' || ch == '-') {
		p.pos++
	}
	if err := p.scanDigitRun("number literal must contain digits"); err != nil {
		return nil, err
	}

	hasFraction := false
	if ch, ok := p.peekByte(); ok && ch == '.' {
		if next, ok := p.byteAt(p.pos + 1); ok && next >= '0' && next <= '9' {
			hasFraction = true
			p.pos++
			if err := p.scanDigitRun("float fractional part requires digits"); err != nil {
				return nil, err
			}
		}
	}

	hasExponent := false
	if ch, ok := p.peekByte(); ok && (ch == 'e' || ch == 'E') {
		hasExponent = true
		p.pos++
		if sign, ok := p.peekByte(); ok && (sign == '+' || sign == '-') {
			p.pos++
		}
		if err := p.scanDigitRun("exponent component requires digits"); err != nil {
			return nil, err
		}
	}

	cleaned := strings.ReplaceAll(p.input[start:p.pos], "_", "")
	if !hasFraction && !hasExponent {
		v, ok := new(big.Int).SetString(cleaned, 10)
		if !ok || v.Cmp(minInt64) < 0 || v.Cmp(maxUint64) > 0 {
			return nil, newFormatError("serde.from_toml integer literal is out of range")
		}
		return &Integer{Value: v}, nil
	}
	parsed, perr := strconv.ParseFloat(cleaned, 64)
	if perr != nil {
		return nil, newFormatError("serde.from_toml could not parse the numeric literal")
	}
	if math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return nil, newFormatError("serde.from_toml number is not finite")
	}
	return &Float{Value: parsed}, nil
}

func (p *tomlParser) scanDigitRun(message string) *Error {
	digits := 0
	lastWasSeparator := false
	for {
		ch, ok := p.peekByte()
		if !ok {
			break
		}
		if ch >= '0' && ch <= '9' {
			p.pos++
			digits++
			lastWasSeparator = false
			continue
		}
		if ch == '_' && digits > 0 && !lastWasSeparator {
			p.pos++
			lastWasSeparator = true
			continue
		}
		break
	}
	if digits == 0 {
		return newFormatError("serde.from_toml %s", message)
	}
	return nil
}

func (p *tomlParser) parseArray() (Object, *Error) {
	if err := p.expectByte('['); err != nil {
		return nil, err
	}
	var values []Object
	for {
		p.skipSpaces()
		if ch, ok := p.peekByte(); ok && ch == ']' {
			p.pos++
			break
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		p.skipSpaces()
		ch, ok := p.peekByte()
		switch {
		case ok && ch == ',':
			p.pos++
		case ok && ch == ']':
			p.pos++
			return &Tuple{Elements: values}, nil
		default:
			return nil, newFormatError("serde.from_toml arrays require ',' separators")
		}
	}
	return &Tuple{Elements: values}, nil
}

func (p *tomlParser) parseInlineTable() (Object, *Error) {
	if err := p.expectByte('{'); err != nil {
		return nil, err
	}
	var pairs []Object
	for {
		p.skipSpaces()
		if ch, ok := p.peekByte(); ok && ch == '}' {
			p.pos++
			break
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if err := p.expectByte('='); err != nil {
			return nil, err
		}
		p.skipSpaces()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, &Tuple{Elements: []Object{&Text{Value: key}, value}})
		p.skipSpaces()
		ch, ok := p.peekByte()
		switch {
		case ok && ch == ',':
			p.pos++
		case ok && ch == '}':
			p.pos++
			return &Tuple{Elements: pairs}, nil
		default:
			return nil, newFormatError("serde.from_toml inline tables require ',' separators")
		}
	}
	return &Tuple{Elements: pairs}, nil
}

func (p *tomlParser) parseBool() (Object, *Error) {
	if strings.HasPrefix(p.input[p.pos:], "true") {
		p.pos += 4
		return TRUE, nil
	}
	if strings.HasPrefix(p.input[p.pos:], "false") {
		p.pos += 5
		return FALSE, nil
	}
	return nil, newFormatError("serde.from_toml encountered an unknown boolean literal")
}

func (p *tomlParser) skipSpaces() {
	for {
		ch, ok := p.peekByte()
		if !ok || (ch != ' ' && ch != '\t') {
			return
		}
		p.pos++
	}
}

func (p *tomlParser) skipBlankLines() {
	for {
		p.skipSpaces()
		ch, ok := p.peekByte()
		switch {
		case ok && ch == '#':
			p.consumeLine()
		case ok && ch == '\n':
			p.pos++
		default:
			return
		}
	}
}

// endOfLine permits only whitespace and a '#' comment after a value.
func (p *tomlParser) endOfLine() *Error {
	p.skipSpaces()
	ch, ok := p.peekByte()
	if !ok {
		return nil
	}
	if ch == '#' {
		p.consumeLine()
		return nil
	}
	if ch == '\n' {
		p.pos++
		return nil
	}
	return newFormatError("serde.from_toml found trailing characters after a value")
}

func (p *tomlParser) consumeLine() {
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		p.pos++
		if ch == '\n' {
			break
		}
	}
}

func (p *tomlParser) peekIsKeyValueLine() bool {
	idx := p.pos
	for idx < len(p.input) {
		switch ch := p.input[idx]; {
		case ch == ' ' || ch == '\t':
			idx++
		case ch == '#' || ch == '\n':
			return false
		default:
			if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_') {
				return false
			}
			for idx < len(p.input) && p.input[idx] != '\n' {
				if p.input[idx] == '=' {
					return true
				}
				idx++
			}
			return false
		}
	}
	return false
}

func (p *tomlParser) peekByte() (byte, bool) {
	return p.byteAt(p.pos)
}

func (p *tomlParser) byteAt(idx int) (byte, bool) {
	if idx >= len(p.input) {
		return 0, false
	}
	return p.input[idx], true
}

func (p *tomlParser) nextByte() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	ch := p.input[p.pos]
	p.pos++
	return ch, true
}

func (p *tomlParser) expectByte(expected byte) *Error {
	ch, ok := p.nextByte()
	if !ok || ch != expected {
		return newFormatError("serde.from_toml encountered malformed syntax")
	}
	return nil
}

func (p *tomlParser) eof() bool {
	return p.pos >= len(p.input)
}
