package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字体随二进制一同分发，在没有上传字体、系统字体也不可用时兜底。
const (
	Regular = "Go/Go-Regular.ttf"
	Bold    = "Go/Go-Bold.ttf"
)

var builtin = map[string][]byte{
	Regular: goregular.TTF,
	Bold:    gobold.TTF,
}

// Load 返回内置字体的字节数据，path 可写为 "embed:Go/Go-Bold.ttf" 或直接 "Go/Go-Bold.ttf".
func Load(path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "embed:")
	clean := strings.TrimPrefix(path, "Go/")
	target := "Go/" + clean
	data, ok := builtin[target]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", target)
	}
	return data, nil
}

// ForWeight 返回与粗细匹配的内置字体路径。
func ForWeight(bold bool) string {
	if bold {
		return Bold
	}
	return Regular
}
