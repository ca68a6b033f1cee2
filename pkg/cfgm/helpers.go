package cfgm

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgtree"
)

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

func configTagName(field reflect.StructField) string {
	return parseTagName(field.Tag.Get("json"))
}

func parseTagName(tag string) string {
	if tag == "" {
		return ""
	}
	parts := strings.Split(tag, ",")
	if len(parts) == 0 || parts[0] == "" || parts[0] == "-" {
		return ""
	}

	return parts[0]
}

// isOptional 指针字段或 json tag 带 omitempty 的字段为可选。
func isOptional(field reflect.StructField) bool {
	if field.Type.Kind() == reflect.Pointer {
		return true
	}
	parts := strings.Split(field.Tag.Get("json"), ",")
	for _, p := range parts[1:] {
		if p == "omitempty" {
			return true
		}
	}

	return false
}

func isStructType(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	return typ.Kind() == reflect.Struct && typ != durationType && typ != timeType
}

// configFields 返回结构体中参与配置的导出字段及其 key。
func configFields(typ reflect.Type) ([]reflect.StructField, []string) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, nil
	}

	var (
		fields []reflect.StructField
		keys   []string
	)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		key := configTagName(field)
		if key == "" {
			continue
		}
		fields = append(fields, field)
		keys = append(keys, key)
	}

	return fields, keys
}

// toConfigMap 将结构体 (按 json tag) 或 map 转换为规范化的 map[string]any。
func toConfigMap(v any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		out, _ := cfgtree.FromAny(m).Any().(map[string]any)
		return out
	}

	raw := structToMap(v)
	out, _ := cfgtree.FromAny(raw).Any().(map[string]any)
	if out == nil {
		return map[string]any{}
	}

	return out
}

func structToMap(cfg any) map[string]any {
	val := reflect.ValueOf(cfg)
	return structValueToMap(val, val.Type())
}

func structValueToMap(val reflect.Value, typ reflect.Type) map[string]any {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return map[string]any{}
		}
		val = val.Elem()
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return map[string]any{}
	}

	out := make(map[string]any)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}

		key := configTagName(field)
		if key == "" {
			continue
		}

		fieldVal := val.Field(i)
		// 可选字段为空时不写入，避免把零值当作显式配置
		if isOptional(field) && fieldVal.IsZero() {
			continue
		}
		out[key] = valueToAny(fieldVal, field.Type)
	}

	return out
}

func valueToAny(val reflect.Value, typ reflect.Type) any {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
		typ = typ.Elem()
	}

	if isStructType(typ) {
		return structValueToMap(val, typ)
	}

	switch val.Kind() {
	case reflect.Slice:
		out := make([]any, val.Len())
		for i := range val.Len() {
			elem := val.Index(i)
			out[i] = valueToAny(elem, elem.Type())
		}

		return out
	case reflect.Map:
		out := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			out[key] = valueToAny(iter.Value(), iter.Value().Type())
		}

		return out
	default:
		return val.Interface()
	}
}

// missingRequired 返回 tree 中缺失的必填字段路径。
//
// 整个子结构缺失时，仅当其中存在必填叶子才报告该子结构本身。
func missingRequired(typ reflect.Type, tree cfgtree.Value, prefix string) []string {
	fields, keys := configFields(typ)
	var missing []string
	for i, field := range fields {
		if isOptional(field) {
			continue
		}

		fullKey := keys[i]
		if prefix != "" {
			fullKey = prefix + "." + keys[i]
		}

		child, ok := tree.Get(keys[i])
		if !ok || child.IsNull() {
			if !isStructType(field.Type) || hasRequiredLeaf(field.Type) {
				missing = append(missing, fullKey)
			}

			continue
		}

		if isStructType(field.Type) && child.Kind() == cfgtree.KindDict {
			missing = append(missing, missingRequired(field.Type, child, fullKey)...)
		}
	}

	return missing
}

func hasRequiredLeaf(typ reflect.Type) bool {
	fields, _ := configFields(typ)
	for _, field := range fields {
		if isOptional(field) {
			continue
		}
		if !isStructType(field.Type) || hasRequiredLeaf(field.Type) {
			return true
		}
	}

	return false
}

func decodeConfigMap(data map[string]any, out any, md *mapstructure.Metadata) error {
	conf := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Metadata:         md,
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	}
	decoder, err := mapstructure.NewDecoder(conf)
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

func flattenMapKeys(data map[string]any) []string {
	var keys []string
	flattenMapKeysRecursive(data, "", &keys)
	sort.Strings(keys)

	return keys
}

func flattenMapKeysRecursive(data map[string]any, prefix string, keys *[]string) {
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			if len(child) == 0 {
				*keys = append(*keys, fullKey)

				continue
			}
			flattenMapKeysRecursive(child, fullKey, keys)

			continue
		}

		*keys = append(*keys, fullKey)
	}
}
