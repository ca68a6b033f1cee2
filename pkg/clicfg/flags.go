package clicfg

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/urfave/cli/v3"
)

const (
	flagConfig   = "config"
	flagGenerate = "generate"
)

var durationType = reflect.TypeFor[time.Duration]()

// argField 参数结构体中映射为 flag 的字段。
type argField struct {
	key      string // json key
	flag     string // flag 名称，json key 中的 "_" 替换为 "-"
	short    string
	usage    string
	typ      reflect.Type // 去掉指针后的类型
	optional bool         // 指针字段：未设置时保持 nil
}

// argFields 收集 A 中可映射为 flag 的字段。
//
// 不支持的字段类型返回错误，避免参数被静默忽略。
func argFields(typ reflect.Type) ([]argField, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("argument type %s is not a struct", typ)
	}

	reserved := map[string]string{
		flagConfig: "c", flagGenerate: "g", "help": "h", "version": "v",
	}
	shorts := map[string]bool{"c": true, "g": true, "h": true, "v": true}

	var out []argField
	for i := range typ.NumField() {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		key := strings.Split(field.Tag.Get("json"), ",")[0]
		if key == "" || key == "-" {
			continue
		}

		f := argField{
			key:   key,
			flag:  strings.ReplaceAll(key, "_", "-"),
			short: field.Tag.Get("short"),
			usage: field.Tag.Get("desc"),
			typ:   field.Type,
		}
		if f.typ.Kind() == reflect.Pointer {
			f.typ = f.typ.Elem()
			f.optional = true
		}
		if !supportedFlagType(f.typ) {
			return nil, fmt.Errorf("field %s: unsupported flag type %s", field.Name, field.Type)
		}
		if _, ok := reserved[f.flag]; ok {
			return nil, fmt.Errorf("field %s: flag --%s is reserved", field.Name, f.flag)
		}
		if f.short != "" {
			if shorts[f.short] {
				return nil, fmt.Errorf("field %s: flag -%s is already defined", field.Name, f.short)
			}
			shorts[f.short] = true
		}
		reserved[f.flag] = f.short
		out = append(out, f)
	}

	return out, nil
}

func supportedFlagType(typ reflect.Type) bool {
	if typ == durationType {
		return true
	}

	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int64,
		reflect.Uint, reflect.Uint64,
		reflect.Float64:
		return true
	case reflect.Slice:
		return typ.Elem().Kind() == reflect.String
	default:
		return false
	}
}

func (f argField) aliases() []string {
	if f.short == "" {
		return nil
	}

	return []string{f.short}
}

// cliFlag 按字段类型构造 urfave/cli flag。
func (f argField) cliFlag() cli.Flag {
	if f.typ == durationType {
		return &cli.DurationFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	}

	switch f.typ.Kind() {
	case reflect.Bool:
		return &cli.BoolFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Int:
		return &cli.IntFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Int64:
		return &cli.Int64Flag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Uint:
		return &cli.UintFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Uint64:
		return &cli.Uint64Flag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Float64:
		return &cli.Float64Flag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	case reflect.Slice:
		return &cli.StringSliceFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	default:
		return &cli.StringFlag{Name: f.flag, Aliases: f.aliases(), Usage: f.usage}
	}
}

// value 按字段类型读取 CLI 值。
func (f argField) value(cmd *cli.Command) any {
	if f.typ == durationType {
		return cmd.Duration(f.flag)
	}

	switch f.typ.Kind() {
	case reflect.Bool:
		return cmd.Bool(f.flag)
	case reflect.Int:
		return cmd.Int(f.flag)
	case reflect.Int64:
		return cmd.Int64(f.flag)
	case reflect.Uint:
		return cmd.Uint(f.flag)
	case reflect.Uint64:
		return cmd.Uint64(f.flag)
	case reflect.Float64:
		return cmd.Float64(f.flag)
	case reflect.Slice:
		return cmd.StringSlice(f.flag)
	default:
		return cmd.String(f.flag)
	}
}

// decodeArgs 将已解析的 flag 解码为 A。
func decodeArgs[A any](cmd *cli.Command, fields []argField) (A, error) {
	var args A
	data := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.optional && !cmd.IsSet(f.flag) {
			continue
		}
		data[f.key] = f.value(cmd)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &args,
		TagName:    "json",
	})
	if err != nil {
		return args, err
	}
	if err := decoder.Decode(data); err != nil {
		return args, fmt.Errorf("decode arguments: %w", err)
	}

	return args, nil
}
