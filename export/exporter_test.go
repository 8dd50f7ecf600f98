package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"

	"github.com/ByLCY/certgen/binding"
	"github.com/ByLCY/certgen/layout"
	"github.com/ByLCY/certgen/renderer"
	canvasrenderer "github.com/ByLCY/certgen/renderer/canvas"
)

func whiteTemplate(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func certificateFields() []layout.FieldConfig {
	return []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 827, Y: 470, Size: 64, Color: "#333333", MaxWidth: 900, Centered: true, Bold: true},
		{Label: "Course", Text: "{Course}", X: 827, Y: 660, Size: 44, Color: "#444444", MaxWidth: 900, Centered: true},
	}
}

func newTestExporter() *Exporter {
	return New(Options{Renderer: canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{NoSystemFont: true})})
}

// stubRenderer 只复制模板，避免在命名与流程测试中真正栅格化文字。
type stubRenderer struct {
	onRender func(n int)
	calls    int
}

func (s *stubRenderer) Render(tpl image.Image, fields []renderer.Field, row binding.Row, font []byte) (*image.RGBA, error) {
	s.calls++
	if s.onRender != nil {
		s.onRender(s.calls)
	}
	for _, f := range fields {
		if _, err := f.Template.Execute(row); err != nil {
			return nil, err
		}
	}
	return canvasrenderer.CloneTemplate(tpl), nil
}

func (s *stubRenderer) Plan(fields []renderer.Field, row binding.Row, font []byte) ([]layout.FieldLayout, error) {
	return nil, nil
}

func readZip(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	return zr
}

func entryNames(zr *zip.Reader) []string {
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestExportAllEndToEnd(t *testing.T) {
	job := Job{Template: whiteTemplate(1650, 1275), Fields: certificateFields(), Format: renderer.FormatPNG}
	rows := []binding.Row{
		{"Name": "Ada Lovelace", "Course": "Algorithms"},
		{"Name": "Alan Turing", "Course": "Computation"},
	}
	archive, err := newTestExporter().ExportAll(context.Background(), job, rows)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	zr := readZip(t, archive.Bytes())
	want := []string{"certificates/Ada Lovelace.png", "certificates/Alan Turing.png"}
	if diff := cmp.Diff(want, entryNames(zr)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	for _, f := range zr.File {
		if f.Method != zip.Deflate {
			t.Fatalf("%s is not deflate-compressed", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		img, err := png.Decode(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", f.Name, err)
		}
		if img.Bounds().Dx() != 1650 || img.Bounds().Dy() != 1275 {
			t.Fatalf("%s has size %v, want 1650x1275", f.Name, img.Bounds())
		}
	}
}

func TestExportAllPDF(t *testing.T) {
	job := Job{Template: whiteTemplate(330, 255), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 165, Y: 100, Size: 24, Color: "#333333", MaxWidth: 300, Centered: true},
	}, Format: renderer.FormatPDF}
	archive, err := newTestExporter().ExportAll(context.Background(), job, []binding.Row{{"Name": "Ada Lovelace"}})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	zr := readZip(t, archive.Bytes())
	if diff := cmp.Diff([]string{"certificates/Ada Lovelace.pdf"}, entryNames(zr)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("entry is not a PDF")
	}
}

func TestExportSanitizesAndDeduplicatesNames(t *testing.T) {
	job := Job{Template: whiteTemplate(20, 20), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 1, Y: 1, Size: 8, Color: "#000", MaxWidth: 10},
	}}
	rows := []binding.Row{
		{"Name": "A/B"},
		{"Name": `C\D`},
		{"Name": "  Ada  "},
		{"Name": "Ada"},
		{"Name": " "},
	}
	archive, err := New(Options{Renderer: &stubRenderer{}}).ExportAll(context.Background(), job, rows)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	want := []string{
		"certificates/A-B.png",
		"certificates/C-D.png",
		"certificates/Ada.png",
		"certificates/Ada (2).png",
		"certificates/row5.png",
	}
	if diff := cmp.Diff(want, archive.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExportPositionalNamesWithoutNameColumn(t *testing.T) {
	job := Job{Template: whiteTemplate(10, 10), Fields: []layout.FieldConfig{
		{Label: "Course", Text: "{Course}", X: 1, Y: 1, Size: 8, Color: "#000", MaxWidth: 10},
	}}
	rows := []binding.Row{{"Course": "Algorithms"}, {"Course": "Computation"}}
	archive, err := New(Options{Renderer: &stubRenderer{}}).ExportAll(context.Background(), job, rows)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if diff := cmp.Diff([]string{"certificates/row1.png", "certificates/row2.png"}, archive.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestExportMissingColumnIdentifiesRow(t *testing.T) {
	job := Job{Template: whiteTemplate(40, 40), Fields: []layout.FieldConfig{
		{Label: "Grade", Text: "{Grade}", X: 1, Y: 1, Size: 10, Color: "#000", MaxWidth: 30},
	}}
	rows := []binding.Row{
		{"Name": "Ada Lovelace", "Grade": "A"},
		{"Name": "Alan Turing"},
	}
	archive, err := newTestExporter().ExportAll(context.Background(), job, rows)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if rowErr.Index != 2 || rowErr.Name != "Alan Turing" || rowErr.Stage != StageRender {
		t.Fatalf("unexpected row error %+v", rowErr)
	}
	var missing *binding.MissingColumnError
	if !errors.As(err, &missing) || missing.Column != "Grade" {
		t.Fatalf("expected missing Grade column, got %v", err)
	}
	zr := readZip(t, archive.Bytes())
	if diff := cmp.Diff([]string{"certificates/Ada Lovelace.png"}, entryNames(zr)); diff != "" {
		t.Fatalf("archive should hold the completed row (-want +got):\n%s", diff)
	}
}

func TestExportEmptyRows(t *testing.T) {
	job := Job{Template: whiteTemplate(10, 10), Fields: certificateFields()}
	archive, err := newTestExporter().ExportAll(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if zr := readZip(t, archive.Bytes()); len(zr.File) != 0 {
		t.Fatalf("expected empty archive, got %v", entryNames(zr))
	}
}

func TestExportCancellationKeepsCompletedRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubRenderer{onRender: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	job := Job{Template: whiteTemplate(10, 10), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 1, Y: 1, Size: 8, Color: "#000", MaxWidth: 10},
	}}
	rows := []binding.Row{{"Name": "a"}, {"Name": "b"}, {"Name": "c"}}
	archive, err := New(Options{Renderer: stub}).ExportAll(ctx, job, rows)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	zr := readZip(t, archive.Bytes())
	if diff := cmp.Diff([]string{"certificates/a.png", "certificates/b.png"}, entryNames(zr)); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if stub.calls != 2 {
		t.Fatalf("third row must not be rendered, calls=%d", stub.calls)
	}
}

func TestExportStreamsToWriter(t *testing.T) {
	var out bytes.Buffer
	job := Job{Template: whiteTemplate(10, 10), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 1, Y: 1, Size: 8, Color: "#000", MaxWidth: 10},
	}}
	archive, err := New(Options{Renderer: &stubRenderer{}}).Export(context.Background(), &out, job, []binding.Row{{"Name": "Ada"}})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if archive.Bytes() != nil {
		t.Fatalf("streaming archive must not buffer")
	}
	if zr := readZip(t, out.Bytes()); len(zr.File) != 1 {
		t.Fatalf("expected one entry, got %v", entryNames(zr))
	}
}

func TestExportValidatesJob(t *testing.T) {
	e := New(Options{Renderer: &stubRenderer{}})
	if _, err := e.ExportAll(context.Background(), Job{}, nil); !errors.Is(err, ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}
	job := Job{Template: whiteTemplate(10, 10), Format: "gif"}
	if _, err := e.ExportAll(context.Background(), job, nil); !errors.Is(err, renderer.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	job = Job{Template: whiteTemplate(10, 10), Fields: []layout.FieldConfig{{Label: "bad", Size: 0, MaxWidth: 1, Color: "#000"}}}
	if _, err := e.ExportAll(context.Background(), job, nil); !errors.Is(err, layout.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	job := Job{Template: whiteTemplate(1650, 1275), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 827, Y: 470, Size: 64, Color: "#333333", MaxWidth: 900, Centered: true},
		{Label: "Date", Text: "Date: {Date}", X: 500, Y: 930, Size: 32, Color: "#444444", MaxWidth: 600},
	}}
	img, err := newTestExporter().Preview(job, nil, 825)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if img.Bounds().Dx() != 825 || img.Bounds().Dy() != 637 {
		t.Fatalf("unexpected preview size %v", img.Bounds())
	}
	if _, err := newTestExporter().Preview(job, binding.Row{"Name": "Ada"}, 0); err == nil {
		t.Fatalf("preview of a row without Date should fail")
	}
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	img := whiteTemplate(100, 50)
	if Downscale(img, 200) != img || Downscale(img, 0) != img {
		t.Fatalf("small images must be returned unchanged")
	}
}

func TestExportEncodeFailureIdentifiesRow(t *testing.T) {
	failing := func(w io.Writer, img image.Image, title string) error {
		if title == "Alan Turing" {
			return fmt.Errorf("%w: 磁盘已满", canvasrenderer.ErrEncode)
		}
		return canvasrenderer.EncodePNG(w, img, title)
	}
	job := Job{Template: whiteTemplate(10, 10), Fields: []layout.FieldConfig{
		{Label: "Name", Text: "{Name}", X: 1, Y: 1, Size: 8, Color: "#000", MaxWidth: 10},
	}}
	rows := []binding.Row{{"Name": "Ada Lovelace"}, {"Name": "Alan Turing"}, {"Name": "Grace Hopper"}}
	archive, err := New(Options{Renderer: &stubRenderer{}, Encoder: failing}).ExportAll(context.Background(), job, rows)

	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if rowErr.Index != 2 || rowErr.Name != "Alan Turing" || rowErr.Stage != StageEncode {
		t.Fatalf("unexpected row error %+v", rowErr)
	}
	if !errors.Is(err, canvasrenderer.ErrEncode) {
		t.Fatalf("expected ErrEncode in chain, got %v", err)
	}
	if diff := cmp.Diff([]string{"certificates/Ada Lovelace.png"}, entryNames(readZip(t, archive.Bytes()))); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}
