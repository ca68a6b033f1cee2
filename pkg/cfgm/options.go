package cfgm

// options 配置加载选项。
type options struct {
	args                any    // 由 CLI 参数序列化而来的种子值 (最低优先级)
	defaults            any    // 结构体默认值
	configFile          string // 配置文件路径，为空表示不读取文件
	envPrefix           string
	strict              bool // 是否拒绝未知 key
	noTemplateExpansion bool // 是否禁用环境变量展开（默认启用）
	noValidation        bool // 是否跳过解码后的校验（默认启用）
}

// Option 配置加载选项函数。
type Option func(*options)

// WithArgs 设置 CLI 参数种子值，作为最低优先级的一层。
//
// v 可以是带 json tag 的结构体 (或其指针)，也可以是 map[string]any。
func WithArgs(v any) Option {
	return func(o *options) {
		o.args = v
	}
}

// WithDefaults 设置结构体默认值，优先级高于 [WithArgs]、低于配置文件。
//
// 示例：
//
//	cfg, err := cfgm.Load[Config](
//	    cfgm.WithDefaults(DefaultConfig()),
//	    cfgm.WithConfigFile("config.toml"),
//	)
func WithDefaults(v any) Option {
	return func(o *options) {
		o.defaults = v
	}
}

// WithConfigFile 设置要加载的配置文件。
//
// 按扩展名选择解析器：.yaml/.yml 使用 YAML，.json 使用 JSON，其余均按 TOML 解析。
// 文件不存在或无法解析都会返回错误，不会回退到默认值。
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithEnvPrefix 启用环境变量覆盖。
//
// 环境变量命名规则：
//   - 前缀 + 配置路径 (区分大小写匹配前缀)
//   - 去掉前缀后的部分转为小写
//   - 双下划线 (__) 表示层级
//
// 示例 (前缀为 "MYAPP_")：
//   - MYAPP_DEBUG → debug
//   - MYAPP_APPLICATION__LISTEN_PORT → application.listen_port
//   - MYAPP_TELEMETRY__LOG__CONSOLE_LEVEL → telemetry.log.console_level
//
// 没有任何匹配的环境变量不是错误。
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithStrict 拒绝目标类型中不存在的 key (CLI 参数层除外)。
//
// 默认忽略未知 key。
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithoutTemplateExpansion 禁用字符串叶子的环境变量展开。
//
// 默认会将整串匹配 ${VAR} / $VAR 的值替换为环境变量。
// 该选项会保留原始字符串。
func WithoutTemplateExpansion() Option {
	return func(o *options) {
		o.noTemplateExpansion = true
	}
}

// WithoutValidation 跳过解码后的 validate tag 与 Validate() 校验。
func WithoutValidation() Option {
	return func(o *options) {
		o.noValidation = true
	}
}
