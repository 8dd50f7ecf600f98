package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

// ErrArchiveClosed 表示向已完成的压缩包追加条目。
var ErrArchiveClosed = errors.New("压缩包已完成，不能再追加")

// Archive 是只追加的 ZIP 压缩包，由 Close 完成一次。
type Archive struct {
	buf     *bytes.Buffer
	zw      *zip.Writer
	entries []string
	closed  bool
	now     func() time.Time
}

// NewArchive 将条目直接写入 w。
func NewArchive(w io.Writer) *Archive {
	return &Archive{zw: zip.NewWriter(w), now: time.Now}
}

// NewMemoryArchive 在内存中构建 ZIP，Close 之后通过 Bytes 读取。
func NewMemoryArchive() *Archive {
	buf := &bytes.Buffer{}
	a := NewArchive(buf)
	a.buf = buf
	return a
}

// Add 追加一个 deflate 压缩的条目。
func (a *Archive) Add(name string, data []byte) error {
	if a.closed {
		return ErrArchiveClosed
	}
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.now(),
	})
	if err != nil {
		return fmt.Errorf("创建条目 %s 失败: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("写入条目 %s 失败: %w", name, err)
	}
	a.entries = append(a.entries, name)
	return nil
}

// Close 写入中央目录，重复调用不做任何事。
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.zw.Close()
}

// Entries 按追加顺序返回条目名称。
func (a *Archive) Entries() []string {
	out := make([]string, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Archive) Len() int { return len(a.entries) }

// Bytes 返回已完成的内存压缩包内容，其他情况返回 nil。
func (a *Archive) Bytes() []byte {
	if a.buf == nil || !a.closed {
		return nil
	}
	return a.buf.Bytes()
}
