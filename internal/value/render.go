package value

import (
	"math"
	"strconv"
	"strings"
)

// textEscaper covers the only characters Render escapes inside quotes.
// Other control characters are written through unchanged.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Render writes v as compact text with no insignificant whitespace.
//
// Numbers use the shortest decimal form that round-trips and never an
// exponent, so 123.0 renders as "123". Mapping entries appear in Go map
// iteration order, which differs between calls.
func Render(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		b.WriteString(formatNumber(v.number))
	case KindText:
		writeText(b, v.text)
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case KindMapping:
		b.WriteByte('{')
		first := true
		for k, item := range v.mapping {
			if !first {
				b.WriteByte(',')
			}
			first = false
			writeText(b, k)
			b.WriteByte(':')
			writeValue(b, item)
		}
		b.WriteByte('}')
	}
}

func writeText(b *strings.Builder, s string) {
	b.WriteByte('"')
	textEscaper.WriteString(b, s)
	b.WriteByte('"')
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
