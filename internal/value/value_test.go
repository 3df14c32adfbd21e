package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	t.Run("matching variant", func(t *testing.T) {
		s, ok := Text("dubai").AsText()
		assert.True(t, ok)
		assert.Equal(t, "dubai", s)

		n, ok := Number(25.1).AsNumber()
		assert.True(t, ok)
		assert.Equal(t, 25.1, n)

		b, ok := Bool(true).AsBool()
		assert.True(t, ok)
		assert.True(t, b)

		items, ok := List(Null(), Bool(false)).AsList()
		assert.True(t, ok)
		assert.Len(t, items, 2)

		m, ok := Mapping(map[string]Value{"a": Number(1)}).AsMapping()
		assert.True(t, ok)
		assert.Contains(t, m, "a")
	})

	t.Run("mismatched variant yields no value", func(t *testing.T) {
		_, ok := Number(1).AsText()
		assert.False(t, ok)
		_, ok = Text("1").AsNumber()
		assert.False(t, ok)
		_, ok = Null().AsBool()
		assert.False(t, ok)
		_, ok = Mapping(nil).AsList()
		assert.False(t, ok)
		_, ok = List().AsMapping()
		assert.False(t, ok)
	})

	t.Run("zero value is null", func(t *testing.T) {
		var v Value
		assert.True(t, v.IsNull())
		assert.Equal(t, KindNull, v.Kind())
		assert.Equal(t, "null", Render(v))
	})

	t.Run("get on mapping and non-mapping", func(t *testing.T) {
		v := Mapping(map[string]Value{"latitude": Number(25.1)})
		got, ok := v.Get("latitude")
		require.True(t, ok)
		assert.True(t, Equal(Number(25.1), got))

		_, ok = v.Get("longitude")
		assert.False(t, ok)
		_, ok = Text("x").Get("latitude")
		assert.False(t, ok)
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null(), "null"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"integral number", Number(123), "123"},
		{"fractional number", Number(25.1), "25.1"},
		{"negative number", Number(-0.5), "-0.5"},
		{"large number has no exponent", Number(1e21), "1000000000000000000000"},
		{"infinity", Number(math.Inf(1)), "inf"},
		{"plain text", Text("hello"), `"hello"`},
		{"escaped text", Text("a\"b\\c\nd\re\tf"), `"a\"b\\c\nd\re\tf"`},
		{"other control chars pass through", Text("a\x01b"), "\"a\x01b\""},
		{"empty list", List(), "[]"},
		{"list keeps order", List(Number(3), Number(1), Number(2)), "[3,1,2]"},
		{"nested list", List(List(Null()), Text("x")), `[[null],"x"]`},
		{"empty mapping", Mapping(nil), "{}"},
		{"single entry mapping", Mapping(map[string]Value{"k": Bool(true)}), `{"k":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
			assert.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestRenderMappingOrderIsUnconstrained(t *testing.T) {
	v := Mapping(map[string]Value{
		"a": Number(1),
		"b": Number(2),
		"c": Number(3),
	})

	rendered := Render(v)
	assert.Len(t, rendered, len(`{"a":1,"b":2,"c":3}`))
	for _, pair := range []string{`"a":1`, `"b":2`, `"c":3`} {
		assert.Contains(t, rendered, pair)
	}

	back, err := Parse(rendered)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Null(), Null()))
	assert.False(t, Equal(Null(), Bool(false)))
	assert.False(t, Equal(Number(1), Text("1")))
	assert.False(t, Equal(List(Number(1), Number(2)), List(Number(2), Number(1))))
	assert.False(t, Equal(List(Number(1)), List(Number(1), Number(1))))
	assert.True(t, Equal(
		Mapping(map[string]Value{"x": List(Bool(true)), "y": Null()}),
		Mapping(map[string]Value{"y": Null(), "x": List(Bool(true))}),
	))
	assert.False(t, Equal(
		Mapping(map[string]Value{"x": Number(1)}),
		Mapping(map[string]Value{"y": Number(1)}),
	))
}
