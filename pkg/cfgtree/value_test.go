package cfgtree_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgtree"
)

func TestFromAny_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want cfgtree.Value
	}{
		{name: "nil", in: nil, want: cfgtree.Null()},
		{name: "bool", in: true, want: cfgtree.Bool(true)},
		{name: "int", in: 42, want: cfgtree.Int(42)},
		{name: "uint16", in: uint16(8080), want: cfgtree.Int(8080)},
		{name: "int64", in: int64(-7), want: cfgtree.Int(-7)},
		{name: "huge uint64", in: uint64(math.MaxUint64), want: cfgtree.String("18446744073709551615")},
		{name: "float", in: 1.5, want: cfgtree.Float(1.5)},
		{name: "string", in: "x", want: cfgtree.String("x")},
		{name: "duration", in: 30 * time.Second, want: cfgtree.String("30s")},
		{name: "time", in: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), want: cfgtree.String("2024-01-02T03:04:05Z")},
		{name: "nil pointer", in: (*int)(nil), want: cfgtree.Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfgtree.FromAny(tt.in)
			assert.True(t, tt.want.Equal(got), "got %#v", got.Any())
		})
	}
}

func TestFromAny_Containers(t *testing.T) {
	in := map[string]any{
		"a": map[string]any{"b": "x", "n": int64(1)},
		"c": []string{"p", "q"},
		"d": map[string]int{"k": 3},
	}

	v := cfgtree.FromAny(in)
	require.Equal(t, cfgtree.KindDict, v.Kind())
	assert.Equal(t, []string{"a", "c", "d"}, v.Keys())

	b, ok := v.Lookup("a", "b")
	require.True(t, ok)
	s, ok := b.AsString()
	require.True(t, ok)
	assert.Equal(t, "x", s)

	c, ok := v.Get("c")
	require.True(t, ok)
	assert.Equal(t, cfgtree.KindArray, c.Kind())
	assert.Equal(t, 2, c.Len())

	k, ok := v.Lookup("d", "k")
	require.True(t, ok)
	n, ok := k.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = v.Lookup("a", "missing")
	assert.False(t, ok)
	_, ok = v.Lookup("a", "b", "deeper")
	assert.False(t, ok)
}

func TestValue_AnyRoundTrip(t *testing.T) {
	in := map[string]any{
		"port":  int64(8080),
		"ratio": 0.5,
		"on":    true,
		"list":  []any{"a", int64(1)},
		"sub":   map[string]any{"x": nil},
	}

	assert.Equal(t, in, cfgtree.FromAny(in).Any())
}

func TestValue_MapKeepsStructure(t *testing.T) {
	v := cfgtree.Dict(map[string]cfgtree.Value{
		"a": cfgtree.Array(cfgtree.String("x"), cfgtree.Int(1)),
		"b": cfgtree.String("y"),
	})

	upper := v.Map(func(leaf cfgtree.Value) cfgtree.Value {
		if s, ok := leaf.AsString(); ok {
			return cfgtree.String(s + "!")
		}

		return leaf
	})

	want := cfgtree.Dict(map[string]cfgtree.Value{
		"a": cfgtree.Array(cfgtree.String("x!"), cfgtree.Int(1)),
		"b": cfgtree.String("y!"),
	})
	assert.True(t, want.Equal(upper))
	// 原树不受影响
	orig, _ := v.Lookup("b")
	s, _ := orig.AsString()
	assert.Equal(t, "y", s)
}

func TestDict_CopiesInput(t *testing.T) {
	entries := map[string]cfgtree.Value{"a": cfgtree.Int(1)}
	v := cfgtree.Dict(entries)
	entries["b"] = cfgtree.Int(2)

	assert.Equal(t, 1, v.Len())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "dict", cfgtree.KindDict.String())
	assert.Equal(t, "Kind(99)", cfgtree.Kind(99).String())
}
