package evaluator

import (
	"math/big"
	"strconv"
	"strings"
)

// serdeToCSV writes a tuple of rows as comma separated lines. A row that is
// itself a tuple contributes one cell per element; any other row is a single
// cell. Cells containing commas, quotes or newlines are quoted with ""
// doubling. Tuple-valued cells flatten their members with '|'.
func serdeToCSV(_ *Runtime, args []Object) Object {
	var csv strings.Builder
	rows, ok := args[0].(*Tuple)
	if !ok {
		writeCSVCell(&csv, args[0])
		return &Text{Value: csv.String()}
	}
	for index, row := range rows.Elements {
		if index > 0 {
			csv.WriteByte('\n')
		}
		cells := []Object{row}
		if cols, ok := row.(*Tuple); ok {
			cells = cols.Elements
		}
		for cellIndex, cell := range cells {
			if cellIndex > 0 {
				csv.WriteByte(',')
			}
			writeCSVCell(&csv, cell)
		}
	}
	return &Text{Value: csv.String()}
}

func writeCSVCell(buffer *strings.Builder, value Object) {
	rendered := csvCellText(value)
	needsQuotes := strings.ContainsAny(rendered, ",\n\"")
	if strings.Contains(rendered, `"`) {
		rendered = strings.ReplaceAll(rendered, `"`, `""`)
	}
	if needsQuotes {
		buffer.WriteByte('"')
		buffer.WriteString(rendered)
		buffer.WriteByte('"')
	} else {
		buffer.WriteString(rendered)
	}
}

func csvCellText(value Object) string {
	switch v := value.(type) {
	case *Integer:
		return v.Value.String()
	case *Float:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *Boolean:
		return strconv.FormatBool(v.Value)
	case *Text:
		return v.Value
	case *Tuple:
		inner := make([]string, len(v.Elements))
		for i, item := range v.Elements {
			inner[i] = csvCellText(item)
		}
		return strings.Join(inner, "|")
	}
	return value.Inspect()
}

// serdeFromCSV splits lines on commas and infers each cell's type: integer
// first, then float, then bool, falling back to text with surrounding quotes
// stripped. Blank lines are skipped.
func serdeFromCSV(_ *Runtime, args []Object) Object {
	text, err := argText("serde.from_csv", args, 0)
	if err != nil {
		return err
	}
	var rows []Object
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, ",")
		cols := make([]Object, 0, len(cells))
		for _, cell := range cells {
			cols = append(cols, inferCSVCell(strings.TrimSpace(cell)))
		}
		rows = append(rows, &Tuple{Elements: cols})
	}
	return &Tuple{Elements: rows}
}

func inferCSVCell(trimmed string) Object {
	if v, ok := new(big.Int).SetString(trimmed, 10); ok {
		return &Integer{Value: v}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return &Float{Value: f}
	}
	if trimmed == "true" {
		return TRUE
	}
	if trimmed == "false" {
		return FALSE
	}
	return &Text{Value: strings.Trim(trimmed, `"`)}
}
