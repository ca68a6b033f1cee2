// Package svcinfo 描述服务的静态身份信息。
//
// [Info] 在进程启动时构造一次，之后只读，供配置生成、CLI 帮助与遥测资源标签共享。
package svcinfo

import (
	"path"
	"runtime/debug"
	"strings"
)

// DevVersion 无法从构建信息读取版本时使用的版本号。
const DevVersion = "dev"

// Info 服务身份。
type Info struct {
	// Name 服务名称，例如 "my-service"。
	Name string
	// MetricsName 由 Name 将 "-" 替换为 "_" 得到，用于指标与遥测资源。
	MetricsName string
	Version     string
	Author      string
	Description string
}

// New 构造 Info 并派生 MetricsName。
func New(name, version, author, description string) Info {
	return Info{
		Name:        name,
		MetricsName: MetricsName(name),
		Version:     version,
		Author:      author,
		Description: description,
	}
}

// MetricsName 将服务名称转换为指标名称。
func MetricsName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// FromBuildInfo 从编译期嵌入的构建信息读取名称与版本。
//
// 名称取主模块路径的最后一段，版本为 "(devel)" 或缺失时使用 [DevVersion]。
func FromBuildInfo(author, description string) Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return New("unknown", DevVersion, author, description)
	}

	return fromBuildInfo(bi, author, description)
}

func fromBuildInfo(bi *debug.BuildInfo, author, description string) Info {
	modPath := bi.Main.Path
	if modPath == "" {
		modPath = bi.Path
	}
	name := path.Base(modPath)
	if name == "" || name == "." || name == "/" {
		name = "unknown"
	}

	version := bi.Main.Version
	if version == "" || version == "(devel)" {
		version = DevVersion
	}

	return New(name, version, author, description)
}
