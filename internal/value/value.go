package value

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindList
	KindMapping
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over the six structured-data shapes.
// The zero Value is Null.
type Value struct {
	kind    Kind
	boolean bool
	number  float64
	text    string
	list    []Value
	mapping map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number wraps a double-precision float.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// List wraps an ordered sequence of values.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Mapping wraps a keyed collection. A nil map is treated as empty.
func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, mapping: m}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v, if any.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// AsNumber returns the number held by v, if any.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.number, true
}

// AsText returns the string held by v, if any.
func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

// AsList returns the elements held by v, if any.
// The returned slice is shared with v and must not be modified.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsMapping returns the entries held by v, if any.
// The returned map is shared with v and must not be modified.
func (v Value) AsMapping() (map[string]Value, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.mapping, true
}

// Get looks up key when v is a Mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	item, ok := v.mapping[key]
	return item, ok
}

// String renders v in compact form. It is equivalent to Render(v).
func (v Value) String() string { return Render(v) }

// Equal reports whether a and b hold the same data.
// Mappings compare by key set, lists by position.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.boolean == b.boolean
	case KindNumber:
		return a.number == b.number
	case KindText:
		return a.text == b.text
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.mapping) != len(b.mapping) {
			return false
		}
		for k, av := range a.mapping {
			bv, ok := b.mapping[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
