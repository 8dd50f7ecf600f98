package binding

import (
	"fmt"
	"strconv"
	"time"
)

// Row 是一位接收者的数据记录：列名 → 标量值。
type Row map[string]any

// Stringify 将单元格的值转换为替换时使用的字符串。
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		if tm, ok := v.(time.Time); ok {
			return formatTime(tm)
		}
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func formatTime(tm time.Time) string {
	if tm.Hour() == 0 && tm.Minute() == 0 && tm.Second() == 0 && tm.Nanosecond() == 0 {
		return tm.Format("2006-01-02")
	}
	return tm.Format("2006-01-02 15:04:05")
}

// Get 返回列值的字符串形式以及该列是否存在。
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}
