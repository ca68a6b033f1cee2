package cfgm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgtree"
)

const headerFormat = "# 配置示例文件, 复制此文件为 %s 并根据需要修改\n"

var bareKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// exampleField 生成示例文档时的字段描述。
type exampleField struct {
	key      string
	desc     string
	typ      reflect.Type
	optional bool
	explicit bool // 值来自 example tag 或非零值
	value    any
	section  bool
	children []exampleField
}

// ExampleTOML 根据配置结构体生成带注释的 TOML 示例。
//
// 字段取值顺序：example tag → cfg 中的非零值 → 类型占位值。
// 可选字段 (指针或 omitempty) 以注释形式输出，desc tag 作为行尾注释。
// 嵌套结构体输出为 [a.b] 表，位于父级标量之后。
func ExampleTOML(cfg any) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, headerFormat, "config.toml")
	writeTOMLTable(&buf, exampleFieldsOf(cfg), nil, false)

	return buf.Bytes()
}

// ExampleYAML 根据配置结构体生成带注释的 YAML 示例。
//
// 取值与可选字段规则同 [ExampleTOML]。
func ExampleYAML(cfg any) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, headerFormat, "config.yaml")
	writeYAMLMapping(&buf, exampleFieldsOf(cfg), 0, false)

	return buf.Bytes()
}

// MarshalJSON 根据配置结构体生成格式化的 JSON。
//
// JSON 不支持注释：未设置的可选字段直接省略。
func MarshalJSON(cfg any) []byte {
	out, err := json.MarshalIndent(jsonObject(exampleFieldsOf(cfg)), "", "  ")
	if err != nil {
		return []byte("{}\n")
	}

	return append(out, '\n')
}

// Generate 为 T 生成示例文档，格式由 path 扩展名决定 (同 [WithConfigFile])。
func Generate[T any](path string) []byte {
	var zero T
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ExampleYAML(zero)
	case ".json":
		return MarshalJSON(zero)
	default:
		return ExampleTOML(zero)
	}
}

// WriteExample 生成 T 的示例文档并原子写入 path。
//
// 内容先写入同目录的临时文件，sync 后 rename 覆盖目标；
// 失败时返回 Kind 为 [KindConfigFileWrite] 的 [*Error]，不会留下截断的文件。
func WriteExample[T any](path string) error {
	if err := writeFileAtomic(path, Generate[T](path)); err != nil {
		return &Error{Kind: KindConfigFileWrite, Path: path, Err: err}
	}
	slog.Debug("Wrote example config", "path", path)

	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func exampleFieldsOf(cfg any) []exampleField {
	if cfg == nil {
		return nil
	}
	val := reflect.ValueOf(cfg)

	return collectExampleFields(val, val.Type())
}

func collectExampleFields(val reflect.Value, typ reflect.Type) []exampleField {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		if val.IsValid() && !val.IsNil() {
			val = val.Elem()
		} else {
			val = reflect.Value{}
		}
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}
	if !val.IsValid() {
		val = reflect.Zero(typ)
	}

	fields, keys := configFields(typ)
	out := make([]exampleField, 0, len(fields))
	for i, field := range fields {
		fv := val.FieldByIndex(field.Index)
		f := exampleField{
			key:      keys[i],
			desc:     field.Tag.Get("desc"),
			typ:      field.Type,
			optional: isOptional(field),
		}
		if isStructType(field.Type) {
			f.section = true
			f.explicit = !fv.IsZero()
			f.children = collectExampleFields(fv, field.Type)
		} else {
			f.value, f.explicit = leafValue(field, fv)
		}
		out = append(out, f)
	}

	return out
}

func leafValue(field reflect.StructField, fv reflect.Value) (any, bool) {
	if raw, ok := field.Tag.Lookup("example"); ok {
		if v, ok := parseExample(raw, field.Type); ok {
			return v, true
		}
	}
	if !fv.IsZero() {
		return cfgtree.FromAny(valueToAny(fv, field.Type)).Any(), true
	}

	return placeholder(field.Type), false
}

// parseExample 按字段类型解析 example tag。
//
// 切片使用逗号分隔，map 使用 YAML/JSON 内联写法。
func parseExample(raw string, typ reflect.Type) (any, bool) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	switch typ {
	case durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, false
		}

		return d.String(), true
	case timeType:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, false
		}

		return t.Format(time.RFC3339Nano), true
	}

	switch typ.Kind() {
	case reflect.String:
		return raw, true
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, typ.Bits())
		return n, err == nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return nil, false
		}
		if n > math.MaxInt64 {
			return strconv.FormatUint(n, 10), true
		}

		return int64(n), true
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, typ.Bits())
		return f, err == nil
	case reflect.Slice, reflect.Array:
		items := []any{}
		if strings.TrimSpace(raw) == "" {
			return items, true
		}
		for part := range strings.SplitSeq(raw, ",") {
			v, ok := parseExample(strings.TrimSpace(part), typ.Elem())
			if !ok {
				return nil, false
			}
			items = append(items, v)
		}

		return items, true
	case reflect.Map:
		var m map[string]any
		if err := yaml.Unmarshal([]byte(raw), &m); err != nil || m == nil {
			return nil, false
		}

		return cfgtree.FromAny(m).Any(), true
	}

	return nil, false
}

func placeholder(typ reflect.Type) any {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	switch typ {
	case durationType:
		return "0s"
	case timeType:
		return time.Unix(0, 0).UTC().Format(time.RFC3339Nano)
	}

	switch typ.Kind() {
	case reflect.Bool:
		return false
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(0)
	case reflect.Float32, reflect.Float64:
		return float64(0)
	case reflect.Slice, reflect.Array:
		return []any{}
	case reflect.Map:
		return map[string]any{}
	default:
		return ""
	}
}

func writeTOMLTable(buf *bytes.Buffer, fields []exampleField, path []string, commented bool) {
	for _, f := range fields {
		if f.section {
			continue
		}
		line := tomlKey(f.key) + " = " + tomlLiteral(f.value)
		if commented || f.optional {
			line = "# " + line
		}
		if f.desc != "" {
			line += " # " + oneLine(f.desc)
		}
		buf.WriteString(line + "\n")
	}

	for _, f := range fields {
		if !f.section {
			continue
		}
		sub := append(slices.Clone(path), f.key)
		c := commented || f.optional

		buf.WriteString("\n")
		if f.desc != "" {
			buf.WriteString("# " + oneLine(f.desc) + "\n")
		}
		keys := make([]string, len(sub))
		for i, k := range sub {
			keys[i] = tomlKey(k)
		}
		header := "[" + strings.Join(keys, ".") + "]"
		if c {
			header = "# " + header
		}
		buf.WriteString(header + "\n")
		writeTOMLTable(buf, f.children, sub, c)
	}
}

func tomlKey(key string) string {
	if bareKeyRe.MatchString(key) {
		return key
	}

	return strconv.Quote(key)
}

func tomlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "''"
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = tomlLiteral(item)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		if len(x) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = tomlKey(k) + " = " + tomlLiteral(x[k])
		}

		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		out, err := toml.Marshal(map[string]any{"v": x})
		if err != nil {
			return strconv.Quote(fmt.Sprint(x))
		}

		return strings.TrimSpace(strings.TrimPrefix(string(out), "v = "))
	}
}

func writeYAMLMapping(buf *bytes.Buffer, fields []exampleField, indent int, commented bool) {
	pad := strings.Repeat("  ", indent)
	for _, f := range fields {
		c := commented || f.optional
		prefix := pad
		if c {
			prefix += "# "
		}

		if f.section {
			buf.WriteString("\n")
			if f.desc != "" {
				buf.WriteString(pad + "# " + oneLine(f.desc) + "\n")
			}
			if len(f.children) == 0 {
				buf.WriteString(prefix + f.key + ": {}\n")

				continue
			}
			buf.WriteString(prefix + f.key + ":\n")
			writeYAMLMapping(buf, f.children, indent+1, c)

			continue
		}

		line := prefix + f.key + ": " + yamlLiteral(f.value, f.typ)
		if f.desc != "" {
			line += " # " + oneLine(f.desc)
		}
		buf.WriteString(line + "\n")
	}
}

// yamlLiteral 字符串字段使用单引号，其它值使用 flow 风格编码。
func yamlLiteral(v any, typ reflect.Type) string {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if s, ok := v.(string); ok && typ.Kind() == reflect.String {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}

	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "''"
	}
	setFlowStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return "''"
	}

	return strings.TrimSpace(string(out))
}

func setFlowStyle(node *yaml.Node) {
	if node.Kind == yaml.SequenceNode || node.Kind == yaml.MappingNode {
		node.Style |= yaml.FlowStyle
	}
	for _, child := range node.Content {
		setFlowStyle(child)
	}
}

func jsonObject(fields []exampleField) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.optional && !f.explicit {
			continue
		}
		if f.section {
			out[f.key] = jsonObject(f.children)

			continue
		}
		out[f.key] = f.value
	}

	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
