package export

import (
	"fmt"
	"strings"

	"github.com/ByLCY/certgen/binding"
)

// NameColumn 是用于命名输出文件的列。
const NameColumn = "Name"

var pathSeparators = strings.NewReplacer("/", "-", "\\", "-")

// EntryName 返回第 n 行（从 1 开始）的文件名：去掉首尾空白的 Name 列，
// 缺失或为空时为 "row<n>"；路径分隔符替换为 "-"。
func EntryName(row binding.Row, n int) string {
	name := ""
	if v, ok := row.Get(NameColumn); ok {
		name = strings.TrimSpace(v)
	}
	if name == "" {
		name = fmt.Sprintf("row%d", n)
	}
	return pathSeparators.Replace(name)
}

// namer 保证文件名唯一，重复时追加 " (2)"、" (3)" 等后缀。
type namer struct {
	seen map[string]int
}

func newNamer() *namer { return &namer{seen: map[string]int{}} }

func (n *namer) unique(stem string) string {
	count := n.seen[stem] + 1
	n.seen[stem] = count
	if count == 1 {
		return stem
	}
	candidate := fmt.Sprintf("%s (%d)", stem, count)
	if _, taken := n.seen[candidate]; taken {
		return n.unique(stem)
	}
	n.seen[candidate] = 1
	return candidate
}
