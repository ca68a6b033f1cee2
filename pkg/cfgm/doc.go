// Package cfgm 提供分层的配置加载与示例配置生成。
//
// 配置 key 使用 json tag 统一描述，TOML/YAML/JSON 共享同一套 key。
//
// # 加载优先级 (从低到高)
//
//  1. CLI 参数 - 通过 [WithArgs] 传入，作为最低优先级的种子值
//  2. 默认值 - 通过 [WithDefaults] 传入
//  3. 配置文件 - 通过 [WithConfigFile] 设置，文件不存在即报错
//  4. 环境变量 - 通过 [WithEnvPrefix] 启用
//
// 每一层都是深度合并，覆盖嵌套字段不会清除同级字段。
//
// # 快速开始
//
// 定义配置结构体（json + desc + example 标签）：
//
//	type Config struct {
//	    Host    string        `json:"host"    desc:"监听地址" example:"0.0.0.0"`
//	    Port    uint16        `json:"port"    desc:"监听端口" example:"8080"`
//	    Timeout time.Duration `json:"timeout" desc:"超时时间" example:"30s"`
//	    Token   *string       `json:"token"   desc:"访问令牌 (可选)"`
//	}
//
// 加载：
//
//	cfg, err := cfgm.Load[Config](
//	    cfgm.WithConfigFile("config.toml"),
//	    cfgm.WithEnvPrefix("MYAPP_"),
//	)
//
// 指针字段与 omitempty 字段是可选的，其余字段任一层都没有提供时返回错误。
//
// # 环境变量
//
// 通过 [WithEnvPrefix] 启用环境变量覆盖：
//   - 去掉前缀后转为小写
//   - 双下划线 ([EnvNestingDelimiter]) 表示层级
//
// 示例 (前缀为 "MYAPP_")：
//   - MYAPP_PORT → port
//   - MYAPP_APPLICATION__LISTEN_PORT → application.listen_port
//
// 环境变量的值都是字符串，解码时按目标类型弱类型转换。
//
// # 变量展开
//
// 合并后所有字符串叶子会经过 [templexp.ExpandTree]：
// 整串为 ${VAR} 或 $VAR 时替换为环境变量的值，未设置时保持原样。
// 使用 [WithoutTemplateExpansion] 可禁用该行为。
//
//	# config.toml
//	api_key = '${OPENAI_API_KEY}'
//
// # 校验
//
// 解码后执行 validate tag (go-playground/validator) 校验，
// 若配置类型实现了 [Validator] 则再调用其 Validate 方法。
// 默认忽略未知 key，[WithStrict] 会拒绝它们。
//
// # 生成配置示例
//
// 使用 [ExampleTOML] / [ExampleYAML] 生成带注释的示例：
//
//	data := cfgm.ExampleTOML(DefaultConfig())
//
// 或使用 [WriteExample] 按扩展名生成并原子写入：
//
//	err := cfgm.WriteExample[Config]("config.toml")
//
// 生成的文档可以直接被 [Load] 读取。
//
// [templexp.ExpandTree]: github.com/lwmacct/261015-go-pkg-svcboot/pkg/templexp.ExpandTree
package cfgm
