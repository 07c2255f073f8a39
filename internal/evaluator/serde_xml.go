package evaluator

import (
	"math/big"
	"strconv"
	"strings"
)

// The XML form keeps type information in the markup itself: every value is a
// <value type="..."> element and tuple members are wrapped in <item>. That
// makes the document self-describing without needing a schema.

func serdeToXML(_ *Runtime, args []Object) Object {
	var out strings.Builder
	if err := writeXMLValue(args[0], &out); err != nil {
		return err
	}
	return &Text{Value: out.String()}
}

func writeXMLValue(value Object, out *strings.Builder) *Error {
	switch v := value.(type) {
	case *Integer:
		out.WriteString(`<value type="int">`)
		out.WriteString(escapeXML(v.Value.String()))
		out.WriteString("</value>")
	case *Float:
		out.WriteString(`<value type="number">`)
		out.WriteString(escapeXML(strconv.FormatFloat(v.Value, 'g', -1, 64)))
		out.WriteString("</value>")
	case *Boolean:
		out.WriteString(`<value type="bool">`)
		if v.Value {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
		out.WriteString("</value>")
	case *Text:
		out.WriteString(`<value type="string">`)
		out.WriteString(escapeXML(v.Value))
		out.WriteString("</value>")
	case *Tuple:
		out.WriteString(`<value type="tuple">`)
		for _, item := range v.Elements {
			out.WriteString("<item>")
			if err := writeXMLValue(item, out); err != nil {
				return err
			}
			out.WriteString("</item>")
		}
		out.WriteString("</value>")
	default:
		return newFormatError("value of type %s cannot be serialized", value.Type())
	}
	return nil
}

func serdeFromXML(_ *Runtime, args []Object) Object {
	text, err := argText("serde.from_xml", args, 0)
	if err != nil {
		return err
	}
	parser := &xmlParser{input: text}
	value, derr := parser.parseValue()
	if derr != nil {
		return derr
	}
	parser.consumeWhitespace()
	if !parser.eof() {
		return newFormatError("serde.from_xml encountered trailing characters after root")
	}
	return value
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

func unescapeXML(text string) (string, *Error) {
	var output strings.Builder
	output.Grow(len(text))
	for i := 0; i < len(text); {
		ch := text[i]
		if ch != '&' {
			output.WriteByte(ch)
			i++
			continue
		}
		end := strings.IndexByte(text[i+1:], ';')
		if end < 0 {
			return "", newFormatError("serde.from_xml encountered an unterminated entity")
		}
		entity := text[i+1 : i+1+end]
		switch entity {
		case "amp":
			output.WriteByte('&')
		case "lt":
			output.WriteByte('<')
		case "gt":
			output.WriteByte('>')
		case "quot":
			output.WriteByte('"')
		case "apos":
			output.WriteByte('\'')
		default:
			return "", newFormatError("serde.from_xml encountered an unknown entity")
		}
		i += end + 2
	}
	return output.String(), nil
}

type xmlParser struct {
	input string
	pos   int
}

func (p *xmlParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *xmlParser) consumeWhitespace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *xmlParser) startsWith(needle string) bool {
	return strings.HasPrefix(p.input[p.pos:], needle)
}

func (p *xmlParser) consume(needle string) *Error {
	if !p.startsWith(needle) {
		return newFormatError("serde.from_xml encountered malformed tags")
	}
	p.pos += len(needle)
	return nil
}

func (p *xmlParser) parseValue() (Object, *Error) {
	p.consumeWhitespace()
	if err := p.consume("<value"); err != nil {
		return nil, err
	}
	p.consumeWhitespace()
	if err := p.consume(`type="`); err != nil {
		return nil, err
	}
	kind, err := p.readUntil('"')
	if err != nil {
		return nil, err
	}
	p.pos++
	p.consumeWhitespace()
	if err := p.consume(">"); err != nil {
		return nil, err
	}
	if kind == "tuple" {
		value, terr := p.parseTupleItems()
		if terr != nil {
			return nil, terr
		}
		p.consumeWhitespace()
		if cerr := p.consume("</value>"); cerr != nil {
			return nil, cerr
		}
		return value, nil
	}
	text, err := p.readText()
	if err != nil {
		return nil, err
	}
	p.consumeWhitespace()
	var scalar Object
	switch kind {
	case "int":
		v, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, newFormatError("serde.from_xml cannot parse integer %q", text)
		}
		scalar = &Integer{Value: v}
	case "number":
		f, perr := strconv.ParseFloat(text, 64)
		if perr != nil {
			return nil, newFormatError("serde.from_xml cannot parse number %q", text)
		}
		scalar = &Float{Value: f}
	case "bool":
		scalar = nativeBoolToBooleanObject(text == "true")
	case "string":
		scalar = &Text{Value: text}
	default:
		return nil, newFormatError("serde.from_xml does not support type %q", kind)
	}
	if cerr := p.consume("</value>"); cerr != nil {
		return nil, cerr
	}
	return scalar, nil
}

func (p *xmlParser) parseTupleItems() (Object, *Error) {
	var values []Object
	for {
		p.consumeWhitespace()
		if p.startsWith("</value>") {
			return &Tuple{Elements: values}, nil
		}
		if err := p.consume("<item>"); err != nil {
			return nil, err
		}
		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.consumeWhitespace()
		if err := p.consume("</item>"); err != nil {
			return nil, err
		}
		values = append(values, item)
	}
}

func (p *xmlParser) readUntil(needle byte) (string, *Error) {
	start := p.pos
	idx := strings.IndexByte(p.input[start:], needle)
	if idx < 0 {
		return "", newFormatError("serde.from_xml reached the end of the document unexpectedly")
	}
	p.pos = start + idx
	return p.input[start:p.pos], nil
}

func (p *xmlParser) readText() (string, *Error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '<' {
		p.pos++
	}
	return unescapeXML(p.input[start:p.pos])
}
