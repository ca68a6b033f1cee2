package cfgm

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgtree"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/templexp"
)

// EnvNestingDelimiter 环境变量名中表示层级的分隔符。
const EnvNestingDelimiter = "__"

// Validator 可由配置类型实现，在解码与 validate tag 校验之后调用。
type Validator interface {
	Validate() error
}

// Load 按优先级合并各配置层并解码为 T。
//
// 优先级 (低 → 高)：
//  1. CLI 参数 ([WithArgs])
//  2. 默认值 ([WithDefaults])
//  3. 配置文件 ([WithConfigFile])
//  4. 环境变量 ([WithEnvPrefix])
//
// 每层都是深度合并：覆盖某个嵌套字段不会清除同级字段。
// 合并后对所有字符串叶子执行 ${VAR} / $VAR 展开，再解码并校验。
// 任何一步失败都返回 [*Error] (Kind 为 [KindConfigLoad])，不会返回部分填充的配置。
func Load[T any](opts ...Option) (*T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	// 1. CLI 参数
	var argKeys map[string]struct{}
	if o.args != nil {
		argMap := toConfigMap(o.args)
		argKeys = make(map[string]struct{})
		for _, key := range flattenMapKeys(argMap) {
			argKeys[key] = struct{}{}
		}
		if err := k.Load(confmap.Provider(argMap, ""), nil); err != nil {
			return nil, loadError("", fmt.Errorf("load cli arguments: %w", err))
		}
		slog.Debug("Loaded config layer", "layer", "args", "keys", len(argKeys))
	}

	// 2. 默认值
	if o.defaults != nil {
		if err := k.Load(confmap.Provider(toConfigMap(o.defaults), ""), nil); err != nil {
			return nil, loadError("", fmt.Errorf("load defaults: %w", err))
		}
		slog.Debug("Loaded config layer", "layer", "defaults")
	}

	// 3. 配置文件
	if o.configFile != "" {
		if err := k.Load(file.Provider(o.configFile), parserFor(o.configFile)); err != nil {
			return nil, loadError(o.configFile, fmt.Errorf("load config file %s: %w", o.configFile, err))
		}
		slog.Debug("Loaded config layer", "layer", "file", "path", o.configFile)
	}

	// 4. 环境变量
	if o.envPrefix != "" {
		overrides := 0
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix: o.envPrefix,
			TransformFunc: func(key, value string) (string, any) {
				path := envKeyToPath(o.envPrefix, key)
				if path != "" {
					overrides++
				}

				return path, value
			},
		}), nil); err != nil {
			return nil, loadError("", fmt.Errorf("load env vars: %w", err))
		}
		slog.Debug("Loaded config layer", "layer", "env", "prefix", o.envPrefix, "overrides", overrides)
	}

	tree := cfgtree.FromAny(k.Raw())
	if !o.noTemplateExpansion {
		tree = templexp.ExpandTree(tree)
	}

	typ := reflect.TypeFor[T]()
	if missing := missingRequired(typ, tree, ""); len(missing) > 0 {
		return nil, loadError(o.configFile, fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", ")))
	}

	data, _ := tree.Any().(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	var (
		cfg T
		md  mapstructure.Metadata
	)
	if err := decodeConfigMap(data, &cfg, &md); err != nil {
		return nil, loadError(o.configFile, fmt.Errorf("decode config: %w", err))
	}

	if o.strict {
		if unknown := unknownKeys(md.Unused, argKeys); len(unknown) > 0 {
			return nil, loadError(o.configFile, fmt.Errorf("unknown config key(s): %s", strings.Join(unknown, ", ")))
		}
	}

	if !o.noValidation {
		if err := validate(&cfg); err != nil {
			return nil, loadError(o.configFile, err)
		}
	}

	return &cfg, nil
}

// MustLoad 与 [Load] 相同，但失败时 panic。
//
// 适用于启动代码，配置加载失败应该立即终止程序。
func MustLoad[T any](opts ...Option) *T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}

	return cfg
}

// parserFor 按扩展名选择解析器，未知扩展名按 TOML 处理。
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// envKeyToPath MYAPP_APPLICATION__LISTEN_PORT → application.listen_port。
//
// 去掉前缀后为空返回 ""，该变量被忽略。
func envKeyToPath(prefix, key string) string {
	rest := strings.TrimPrefix(key, prefix)
	if rest == "" {
		return ""
	}

	return strings.ReplaceAll(strings.ToLower(rest), EnvNestingDelimiter, ".")
}

// unknownKeys 返回未被目标类型使用的 key，来自 CLI 参数层的 key 不计入。
func unknownKeys(unused []string, argKeys map[string]struct{}) []string {
	var out []string
	for _, key := range unused {
		if _, ok := argKeys[key]; ok {
			continue
		}
		out = append(out, key)
	}

	return out
}

func validate(cfg any) error {
	typ := reflect.TypeOf(cfg).Elem()
	if typ.Kind() == reflect.Struct {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := v.Struct(cfg); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	return nil
}
