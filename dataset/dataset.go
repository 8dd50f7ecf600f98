// Package dataset 将接收者名单（CSV 或 XLSX）解析为有序的数据行，
// 表头行决定之后每一行的列。
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/certgen/binding"
)

// 加载数据时的哨兵错误。
var (
	ErrDecode          = errors.New("解析数据失败")
	ErrUnsupportedType = errors.New("不支持的数据文件类型")
	ErrNoHeader        = errors.New("数据缺少表头行")
	ErrSheetNotFound   = errors.New("找不到工作表")
)

// DecodeError 标识无法读取的数据文件。
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrDecode, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// Dataset 是共用同一组列的有序数据行。
type Dataset struct {
	Columns []string
	Rows    []binding.Row
}

// Len 返回数据行数。
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Row 返回第 n 行（从 1 开始，与展示给用户的编号一致）。
func (d *Dataset) Row(n int) (binding.Row, error) {
	if n < 1 || n > d.Len() {
		return nil, fmt.Errorf("第 %d 行超出范围 (1..%d)", n, d.Len())
	}
	return d.Rows[n-1], nil
}

func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Load 按扩展名选择解析器读取数据文件。
// sheet 指定 .xlsx 的工作表，为空时取第一个。
func Load(path, sheet string) (*Dataset, error) {
	file, err := os.Open(path) // #nosec G304 -- dataset path is user-provided
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	defer file.Close()

	var ds *Dataset
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ds, err = ReadCSV(file)
	case ".xlsx", ".xlsm":
		ds, err = ReadXLSX(file, sheet)
	default:
		return nil, &DecodeError{Source: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedType, ext)}
	}
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}
	return ds, nil
}

// build 把原始记录（首行为表头）转换为 Dataset。
func build(records [][]string) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	columns := normalizeHeader(records[0])
	ds := &Dataset{Columns: columns, Rows: make([]binding.Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(binding.Row, len(columns))
		for i, col := range columns {
			val := ""
			if i < len(rec) {
				val = rec[i]
			}
			row[col] = val
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// normalizeHeader 去除列名空白，空列名记为 "Column<N>"，重复列名追加 ".1"、".2" 等后缀。
func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	seen := map[string]int{}
	for i, cell := range cells {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = "Column" + strconv.Itoa(i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
