// Package templexp 提供配置值的环境变量展开。
//
// 展开只作用于字符串叶子，并且整个字符串必须完整匹配以下两种形式之一：
//
//   - ${NAME} - 前缀 "${"、后缀 "}"
//   - $NAME   - 前缀 "$"，其余部分即变量名
//
// 不做部分替换 ("prefix-${VAR}" 保持原样)，不递归展开替换结果，不支持转义。
// 引用的变量未设置时返回原字符串，展开过程本身永远不会失败。
//
// # 快速开始
//
// 展开单个字符串：
//
//	templexp.ExpandScalar("${DATABASE_URL}")
//
// 展开整棵配置树：
//
//	tree := cfgtree.FromAny(raw)
//	expanded := templexp.ExpandTree(tree)
//
// 详见 [ExpandScalar] 与 [ExpandTree]。
package templexp
