// Package config 定义示例服务的配置与命令行参数。
//
// 配置加载优先级 (从低到高)：
//  1. 命令行参数 - Arguments 中与配置同名的字段
//  2. 默认值 - DefaultSettings() 函数中定义
//  3. 配置文件 - 通过 --config 指定
//  4. 环境变量 - 前缀 MYAPP_，层级用 "__" 分隔 (例如 MYAPP_APPLICATION__LISTEN_PORT)
package config

import (
	"net"
	"strconv"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/telemetry"
)

// EnvPrefix 环境变量前缀。
const EnvPrefix = "MYAPP_"

// Settings 服务配置。
type Settings struct {
	Application Application        `json:"application" desc:"App Settings"`
	Telemetry   telemetry.Settings `json:"telemetry"   desc:"Telemetry settings"`
	OverrideMe  string             `json:"override_me,omitempty" desc:"Overrides the command line argument of the same name" example:"from-config"`
}

// Application 应用配置。
type Application struct {
	ListenPort       uint16 `json:"listen_port"        desc:"Port to listen on"                                  example:"8080" validate:"required"`
	ListenHost       string `json:"listen_host"        desc:"Hostname to listen to"                              example:"localhost"`
	ApplicationDBDir string `json:"application_db_dir" desc:"Directory where the application databases are located" example:"/var/db/my_databases"`
}

// Addr 返回监听地址。
func (a Application) Addr() string {
	return net.JoinHostPort(a.ListenHost, strconv.Itoa(int(a.ListenPort)))
}

// Arguments 命令行参数。
type Arguments struct {
	EnableWorldPeace bool   `json:"enable_world_peace" short:"e" desc:"world peace, careful, has consequences"`
	OverrideMe       string `json:"override_me"        short:"o" desc:"This value will be overridden by the config file"`
}

// Describe 作为命令行帮助的描述。
func (Arguments) Describe() string {
	return "Example service showing layered configuration and telemetry"
}

// DefaultSettings 返回默认配置。
func DefaultSettings() Settings {
	return Settings{
		Application: Application{
			ListenPort: 8080,
			ListenHost: "localhost",
		},
		Telemetry: telemetry.Settings{
			Log: telemetry.LogSettings{
				ConsoleLevel: "info",
				OtelLevel:    "warn",
			},
		},
	}
}
