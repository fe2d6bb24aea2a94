package store

import (
	"errors"
	"path/filepath"
	"testing"

	"orderbridge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTemplate(name string) *model.Template {
	return &model.Template{
		Name:                name,
		OrderedTargetFields: []string{"품목", "개수"},
		Rules: map[string]model.MappingRule{
			"품목": {Kind: model.RuleDirect, Source: "상품명"},
		},
		FixedFields: map[string]string{"개수": "1"},
	}
}

func TestSaveAndGetTemplate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.SaveTemplate(sampleTemplate("발주서"))
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	got, err := s.GetTemplate(id)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Name != "발주서" {
		t.Fatalf("name want=발주서 got=%s", got.Name)
	}
	if got.Rules["품목"].Source != "상품명" {
		t.Fatalf("rules not round-tripped: %+v", got.Rules)
	}
	if got.FixedFields["개수"] != "1" {
		t.Fatalf("fixed fields not round-tripped: %+v", got.FixedFields)
	}
}

func TestSaveTemplate_DuplicateContentReturnsSameID(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	first, err := s.SaveTemplate(sampleTemplate("발주서"))
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := s.SaveTemplate(sampleTemplate("발주서"))
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	// 同内容不重复落库
	if first != second {
		t.Fatalf("duplicate content should dedupe: %s vs %s", first, second)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("templates want=1 got=%d", len(templates))
	}
}

func TestSaveTemplate_InvalidRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.SaveTemplate(&model.Template{Name: "이름만"})
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeTemplateInvalid {
		t.Fatalf("want template_invalid got %v", err)
	}
}

func TestUpdateAndDeleteTemplate(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.SaveTemplate(sampleTemplate("발주서"))
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	updated := sampleTemplate("발주서 v2")
	updated.ID = id
	if err := s.UpdateTemplate(updated); err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	got, err := s.GetTemplate(id)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Name != "발주서 v2" {
		t.Fatalf("update not applied: %s", got.Name)
	}

	if err := s.DeleteTemplate(id); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := s.GetTemplate(id); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("want ErrTemplateNotFound got %v", err)
	}
	if err := s.DeleteTemplate(id); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("double delete want ErrTemplateNotFound got %v", err)
	}
}

func TestConvertLogLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	id, err := s.CreateConvertLog("주문.csv", 1024, "tpl-1")
	if err != nil {
		t.Fatalf("CreateConvertLog: %v", err)
	}
	if id == 0 {
		t.Fatal("log id should be non-zero")
	}
	if err := s.UpdateConvertLog(id, "csv", 20, 1, "completed", ""); err != nil {
		t.Fatalf("UpdateConvertLog: %v", err)
	}
}

func TestBlobStoreRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBlobStore: %v", err)
	}

	data := []byte("workbook bytes")
	if err := b.PutBlob("out.xlsx", data, "exports"); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	got, err := b.GetBlob("out.xlsx", "exports")
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("blob mismatch: %q", got)
	}

	_, err = b.GetBlob("missing.xlsx", "exports")
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeBlobStoreFailure {
		t.Fatalf("want blob_store_failure got %v", err)
	}
}

func TestBlobStore_PathTraversalBlocked(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b, err := NewBlobStore(dir)
	if err != nil {
		t.Fatalf("NewBlobStore: %v", err)
	}

	if err := b.PutBlob("../escape.xlsx", []byte("x"), "../../etc"); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	// 穿越成分被剥掉，文件仍落在根目录内
	if _, err := b.GetBlob("escape.xlsx", "etc"); err != nil {
		t.Fatalf("sanitized blob should be readable: %v", err)
	}
}
