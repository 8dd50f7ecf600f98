package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将字段排版结果输出为 JSON，便于调整坐标。
func WriteDebugJSON(fields []FieldLayout, path string) error {
	if fields == nil {
		fields = []FieldLayout{}
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
