package catalog

import "strings"

// Param is one <param name="...">text</param> entry of a row.
type Param struct {
	Name  string
	Value string
}

// ParamsJSON serializes params into a single-line JSON object, preserving order.
//
// Only backslash and double quote are escaped. Control characters and
// non-ASCII text pass through untouched; the JSON column type of the target
// store is the validator of record. An empty slice yields "{}".
func ParamsJSON(params []Param) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, p.Name)
		b.WriteByte(':')
		writeJSONString(&b, p.Value)
	}
	b.WriteByte('}')
	return b.String()
}

var jsonEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	jsonEscaper.WriteString(b, s)
	b.WriteByte('"')
}
