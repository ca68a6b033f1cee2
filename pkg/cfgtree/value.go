// Package cfgtree 定义配置合并与展开过程中使用的中间值树。
//
// 各配置来源 (默认值、配置文件、环境变量) 先被合并为 map 结构，
// 再转换为 [Value] 供模板展开和必填校验使用，最后投影回 map 交给解码器。
// 树中没有反向引用，任何有限树上的递归遍历都会终止。
package cfgtree

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// Kind 值的类型标签。
type Kind int

// Value 可能的类型。
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindDict
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindDict:   "dict",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k]
}

// Value 是带类型标签的配置值。
//
// 零值为 Null。容器 (Array / Dict) 拥有自己的子节点，构造时会复制输入。
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	dict map[string]Value
}

// Null 返回空值。
func Null() Value { return Value{} }

// Bool 返回布尔值。
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int 返回整数值。
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float 返回浮点值。
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String 返回字符串值。
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array 返回数组值。
func Array(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)

	return Value{kind: KindArray, arr: arr}
}

// Dict 返回字典值。
func Dict(entries map[string]Value) Value {
	dict := make(map[string]Value, len(entries))
	for k, v := range entries {
		dict[k] = v
	}

	return Value{kind: KindDict, dict: dict}
}

// Kind 返回值的类型。
func (v Value) Kind() Kind { return v.kind }

// IsNull 判断是否为空值。
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool 返回布尔值。
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt 返回整数值。
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat 返回浮点值。
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString 返回字符串值。
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Len 返回数组或字典的元素数量，其它类型为 0。
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindDict:
		return len(v.dict)
	default:
		return 0
	}
}

// Index 返回数组第 i 个元素。
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}

	return v.arr[i], true
}

// Get 返回字典中 key 对应的值。
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindDict {
		return Value{}, false
	}
	child, ok := v.dict[key]

	return child, ok
}

// Keys 返回字典的 key (已排序)。
func (v Value) Keys() []string {
	if v.kind != KindDict {
		return nil
	}
	keys := make([]string, 0, len(v.dict))
	for k := range v.dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Lookup 沿嵌套字典逐级查找。
//
// 空 path 返回自身。
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}

	return cur, true
}

// Map 对每个叶子节点 (非数组、非字典) 应用 fn，返回新树。
//
// 容器结构与 key 保持不变。
func (v Value) Map(fn func(Value) Value) Value {
	switch v.kind {
	case KindArray:
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Map(fn)
		}

		return Value{kind: KindArray, arr: arr}
	case KindDict:
		dict := make(map[string]Value, len(v.dict))
		for k, item := range v.dict {
			dict[k] = item.Map(fn)
		}

		return Value{kind: KindDict, dict: dict}
	default:
		return fn(v)
	}
}

// Any 将值投影为 Go 原生类型：map[string]any、[]any、bool、int64、float64、string 或 nil。
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}

		return out
	case KindDict:
		out := make(map[string]any, len(v.dict))
		for k, item := range v.dict {
			out[k] = item.Any()
		}

		return out
	default:
		return nil
	}
}

// Equal 深度比较两个值。
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}

		return true
	case KindDict:
		if len(v.dict) != len(other.dict) {
			return false
		}
		for k, item := range v.dict {
			o, ok := other.dict[k]
			if !ok || !item.Equal(o) {
				return false
			}
		}

		return true
	}

	return false
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// FromAny 将各配置来源产出的 Go 值转换为 [Value]。
//
// 转换规则：
//   - 所有整数类型 → Int (超出 int64 的无符号数转为十进制 String)
//   - float32 / float64 → Float
//   - time.Duration → String (如 "30s")
//   - time.Time → RFC 3339 String
//   - encoding.TextMarshaler → String
//   - 切片 / 数组 → Array，map → Dict (key 使用 fmt 格式化)
//   - nil → Null，其余类型 → fmt.Sprint 的 String
func FromAny(x any) Value {
	if x == nil {
		return Null()
	}

	switch typed := x.(type) {
	case Value:
		return typed
	case bool:
		return Bool(typed)
	case string:
		return String(typed)
	case time.Duration:
		return String(typed.String())
	case time.Time:
		return String(typed.Format(time.RFC3339Nano))
	case map[string]any:
		dict := make(map[string]Value, len(typed))
		for k, item := range typed {
			dict[k] = FromAny(item)
		}

		return Value{kind: KindDict, dict: dict}
	case []any:
		arr := make([]Value, len(typed))
		for i, item := range typed {
			arr[i] = FromAny(item)
		}

		return Value{kind: KindArray, arr: arr}
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Null()
	}

	if rv.Type() == durationType {
		return String(time.Duration(rv.Int()).String())
	}
	if rv.Type() == timeType {
		return String(rv.Interface().(time.Time).Format(time.RFC3339Nano)) //nolint:forcetypeassert // type checked above
	}
	if rv.CanInterface() {
		if tm, ok := rv.Interface().(encoding.TextMarshaler); ok && rv.Kind() != reflect.Pointer {
			if text, err := tm.MarshalText(); err == nil {
				return String(string(text))
			}
		}
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}

		return fromReflect(rv.Elem())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return String(fmt.Sprintf("%d", u))
		}

		return Int(int64(u))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}
		fallthrough
	case reflect.Array:
		arr := make([]Value, rv.Len())
		for i := range rv.Len() {
			arr[i] = fromReflect(rv.Index(i))
		}

		return Value{kind: KindArray, arr: arr}
	case reflect.Map:
		if rv.IsNil() {
			return Null()
		}
		dict := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			dict[fmt.Sprintf("%v", iter.Key().Interface())] = fromReflect(iter.Value())
		}

		return Value{kind: KindDict, dict: dict}
	default:
		if rv.CanInterface() {
			return String(fmt.Sprint(rv.Interface()))
		}

		return Null()
	}
}
