package converter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"

	"orderbridge/internal/model"
)

func orderTemplate() *model.Template {
	return &model.Template{
		Name:                "발주서",
		OrderedTargetFields: []string{"품목", "개수"},
		Rules: map[string]model.MappingRule{
			"품목": {Kind: model.RuleDirect, Source: "상품명"},
			"개수": {Kind: model.RuleDirect, Source: "수량"},
		},
	}
}

func TestConvert_KoreanCSVEndToEnd(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	result, err := c.Convert(context.Background(), Request{
		FileName: "주문.csv",
		Data:     []byte("상품명,수량\n사과,3\n배,2\n"),
		Template: orderTemplate(),
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Format != model.FormatCSV {
		t.Fatalf("format want=csv got=%s", result.Format)
	}
	if result.Encoding != "UTF-8" {
		t.Fatalf("encoding want=UTF-8 got=%s", result.Encoding)
	}
	if result.ProcessedRowCount != 2 {
		t.Fatalf("rows want=2 got=%d", result.ProcessedRowCount)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected row errors: %v", result.Errors)
	}
	if !strings.HasSuffix(result.FileName, ".xlsx") {
		t.Fatalf("output name want .xlsx suffix, got %s", result.FileName)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Output))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("발주서", "A2"); got != "사과" {
		t.Fatalf("A2 want=사과 got=%q", got)
	}
	if got, _ := f.GetCellValue("발주서", "B2"); got != "3" {
		t.Fatalf("B2 want=3 got=%q", got)
	}
	// 합계行：개수 = 5
	if got, _ := f.GetCellValue("발주서", "B4"); got != "5" {
		t.Fatalf("aggregate want=5 got=%q", got)
	}
}

func TestConvert_EUCKRCSVDecoded(t *testing.T) {
	t.Parallel()

	raw, err := korean.EUCKR.NewEncoder().Bytes([]byte("상품명,수량\n사과,3\n"))
	if err != nil {
		t.Fatalf("encode euc-kr: %v", err)
	}

	c := New(Options{})
	result, err := c.Convert(context.Background(), Request{
		FileName: "legacy.csv",
		Data:     raw,
		Template: orderTemplate(),
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Encoding != "EUC-KR" {
		t.Fatalf("encoding want=EUC-KR got=%s", result.Encoding)
	}
	if result.ProcessedRowCount != 1 {
		t.Fatalf("rows want=1 got=%d", result.ProcessedRowCount)
	}
}

func TestConvert_ModernWorkbookEndToEnd(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	for i, row := range [][]interface{}{
		{"상품명", "수량"},
		{"사과", 3},
		{"배", 2},
	} {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", axis, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	c := New(Options{})
	result, err := c.Convert(context.Background(), Request{
		FileName: "orders.xlsx",
		Data:     buf.Bytes(),
		Template: orderTemplate(),
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Format != model.FormatZipBased {
		t.Fatalf("format want=zip_based got=%s", result.Format)
	}
	if result.ProcessedRowCount != 2 {
		t.Fatalf("rows want=2 got=%d", result.ProcessedRowCount)
	}
}

func TestConvert_UnknownFormatRejected(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	_, err := c.Convert(context.Background(), Request{
		FileName: "mystery.bin",
		Data:     []byte{0x00, 0x01, 0x02, 0x03, 0x04},
		Template: orderTemplate(),
	})
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeUnsupportedFormat {
		t.Fatalf("want unsupported_format got %v", err)
	}
}

func TestConvert_LegacyTooLargeRejected(t *testing.T) {
	t.Parallel()

	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, bytes.Repeat([]byte{0x00}, 64)...)
	c := New(Options{LegacyMaxBytes: 16})
	_, err := c.Convert(context.Background(), Request{
		FileName: "big.xls",
		Data:     data,
		Template: orderTemplate(),
	})
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeLegacyFileTooLarge {
		t.Fatalf("want legacy_file_too_large got %v", err)
	}
}

func TestConvert_InvalidTemplateRejected(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	_, err := c.Convert(context.Background(), Request{
		FileName: "주문.csv",
		Data:     []byte("상품명,수량\n사과,3\n"),
		Template: &model.Template{Name: "빈 템플릿"},
	})
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeTemplateInvalid {
		t.Fatalf("want template_invalid got %v", err)
	}
}

func TestConvert_ManualOverrideWins(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	result, err := c.Convert(context.Background(), Request{
		FileName:  "주문.csv",
		Data:      []byte("상품명,수량\n사과,3\n"),
		Template:  orderTemplate(),
		Overrides: map[string]string{"품목": "고정품목"},
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Output))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("발주서", "A2"); got != "고정품목" {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestExtractHeaders_StrictPath(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	fields, err := c.ExtractHeaders(context.Background(), "주문.csv", []byte("상품명,수량,단가\n사과,3,1500\n"))
	if err != nil {
		t.Fatalf("ExtractHeaders: %v", err)
	}
	if len(fields) != 3 || fields[0] != "상품명" {
		t.Fatalf("fields mismatch: %v", fields)
	}

	// 弱表头在严格路径下被拒
	_, err = c.ExtractHeaders(context.Background(), "메모.csv", []byte("메모,비고\n"))
	ce, ok := model.AsConvertError(err)
	if !ok || ce.Code != model.CodeHeaderNotFound {
		t.Fatalf("want header_not_found got %v", err)
	}
}
