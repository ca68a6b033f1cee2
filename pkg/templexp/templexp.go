package templexp

import (
	"os"
	"strings"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgtree"
)

// LookupFunc 查找环境变量，语义同 [os.LookupEnv]。
type LookupFunc func(name string) (string, bool)

// varName 返回字符串中引用的变量名。
//
// 仅整串匹配 ${NAME} 或 $NAME 时 ok 为 true。
func varName(s string) (string, bool) {
	if !strings.HasPrefix(s, "$") {
		return "", false
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && len(s) >= 3 {
		return s[2 : len(s)-1], true
	}

	return s[1:], true
}

// ExpandScalar 使用进程环境变量展开单个字符串。
//
// 规则：
//   - "${NAME}" → NAME 的值 (已设置时)
//   - "$NAME" → NAME 的值 (已设置时)
//   - 其它字符串、或变量未设置 → 原样返回
func ExpandScalar(s string) string {
	return ExpandScalarWith(s, os.LookupEnv)
}

// ExpandScalarWith 与 [ExpandScalar] 相同，但使用指定的查找函数。
func ExpandScalarWith(s string, lookup LookupFunc) string {
	name, ok := varName(s)
	if !ok || name == "" {
		return s
	}
	if val, set := lookup(name); set {
		return val
	}

	return s
}

// ExpandTree 对树中每个字符串叶子执行 [ExpandScalar]。
//
// 数组与字典会递归处理并保留 key，其它类型原样返回。
func ExpandTree(v cfgtree.Value) cfgtree.Value {
	return ExpandTreeWith(v, os.LookupEnv)
}

// ExpandTreeWith 与 [ExpandTree] 相同，但使用指定的查找函数。
func ExpandTreeWith(v cfgtree.Value, lookup LookupFunc) cfgtree.Value {
	return v.Map(func(leaf cfgtree.Value) cfgtree.Value {
		s, ok := leaf.AsString()
		if !ok {
			return leaf
		}

		return cfgtree.String(ExpandScalarWith(s, lookup))
	})
}
