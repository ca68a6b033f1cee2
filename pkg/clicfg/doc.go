// Package clicfg 将命令行参数解析与分层配置加载组合为一次启动协商。
//
// 内置 flag：
//   - --config, -c <path>：要加载的配置文件 (未指定 --generate 时必填)
//   - --generate, -g <path>：生成带注释的示例配置后退出，不加载配置
//
// 参数结构体 A 的导出字段会映射为 flag：json key 中的 "_" 替换为 "-"，
// short tag 为单字母别名，desc tag 为帮助文本。解析后的 A 作为最低优先级的
// 一层参与配置合并 (见 [cfgm.WithArgs])，因此配置文件与环境变量可以覆盖同名 key。
//
// 示例：
//
//	type Arguments struct {
//	    Verbose bool `json:"verbose" short:"V" desc:"详细输出"`
//	}
//
//	func main() {
//	    info := svcinfo.New("my-service", "1.0.0", "me", "does things")
//	    s := clicfg.New[config.Settings, Arguments](info, "MYAPP_")
//	    // s.Config / s.Args
//	}
//
// [Negotiate] 返回结果而不退出进程，适合测试；[New] 在失败时输出错误并以 1 退出，
// 生成配置或输出帮助后以 0 退出。
package clicfg
