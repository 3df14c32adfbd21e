// Package value implements the structured-data model used on the wire and on
// disk: a closed set of shapes, a recursive-descent parser, and a compact
// serializer.
//
// # Model
//
// A Value is one of:
//
//	Null
//	Bool(bool)
//	Number(float64)
//	Text(string)
//	List([]Value)        ordered
//	Mapping(map[string]Value)  keys unique, iteration order unspecified
//
// The zero Value is Null. Typed accessors (AsText, AsNumber, AsBool, AsList,
// AsMapping) return an ok flag instead of failing on a variant mismatch.
//
// # Parsing
//
// Parse walks the input rune by rune with an explicit cursor:
//
//	{  object      [  array      "  string
//	t/f boolean    n  null       digit or -  number
//
// The accepted grammar is deliberately narrower than JSON:
//   - A backslash in a string makes the next rune literal. `\n` becomes "n";
//     there are no unicode escapes.
//   - Numbers are the longest run of digits, '.', '-', '+', 'e' and 'E',
//     handed to strconv.ParseFloat without grammar checks.
//   - Duplicate object keys keep the last value.
//   - Anything after the first complete value is ignored.
//
// Failures are reported as *SyntaxError whose Kind is one of ErrUnexpectedEnd,
// ErrInvalidValue, ErrInvalidKey, ErrInvalidObject, ErrInvalidArray,
// ErrInvalidNumber or ErrExpectedColon. The first failure aborts the parse:
//
//	v, err := value.Parse(body)
//	if errors.Is(err, value.ErrExpectedColon) {
//	    ...
//	}
//
// # Rendering
//
// Render produces compact text. Only backslash, double quote, newline,
// carriage return and tab are escaped inside strings. Mapping entries are
// written in map iteration order, so two renders of the same mapping may
// differ textually while parsing back to equal values.
//
// Parse(Render(v)) reproduces v for every value whose strings contain no
// newline, carriage return or tab; Render writes a newline as `\n` and Parse
// reads that back as "n".
package value
