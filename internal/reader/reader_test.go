package reader

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"orderbridge/internal/model"
)

func buildTestWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestReadGrid_ModernWorkbook(t *testing.T) {
	t.Parallel()

	data := buildTestWorkbook(t, "주문목록", [][]interface{}{
		{"상품명", "수량", "단가"},
		{"사과", 3, 1500},
		{"배", 2, 2000},
	})

	grid, err := New(DefaultTimeouts()).ReadGrid(context.Background(), data, Hints{})
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if grid.SheetName != "주문목록" {
		t.Fatalf("sheet want=주문목록 got=%s", grid.SheetName)
	}
	if grid.RowCount() != 3 || grid.ColCount() != 3 {
		t.Fatalf("dims want=3x3 got=%dx%d", grid.RowCount(), grid.ColCount())
	}
	if got := grid.Rows[0][0]; got.Kind != model.CellText || got.Text != "상품명" {
		t.Fatalf("header cell mismatch: %+v", got)
	}
	if got := grid.Rows[1][1]; got.Kind != model.CellNumber || got.Number != 3 {
		t.Fatalf("quantity cell mismatch: %+v", got)
	}
}

func TestReadGrid_PicksHighestScoringSheet(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	defer f.Close()
	// 第一张是只有一格的汇总表，第二张才是数据表
	if err := f.SetSheetName("Sheet1", "요약"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if err := f.SetCellValue("요약", "A1", "합계"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if _, err := f.NewSheet("발주데이터"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, row := range [][]interface{}{
		{"상품명", "수량"},
		{"사과", 3},
		{"배", 2},
	} {
		axis, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("발주데이터", axis, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	grid, err := New(DefaultTimeouts()).ReadGrid(context.Background(), buf.Bytes(), Hints{})
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	if grid.SheetName != "발주데이터" {
		t.Fatalf("sheet want=발주데이터 got=%s", grid.SheetName)
	}
}

func TestReadGrid_GarbageReportsAllCauses(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultTimeouts()).ReadGrid(context.Background(), []byte("not a workbook"), Hints{})
	if err == nil {
		t.Fatal("expected error")
	}
	ce, ok := model.AsConvertError(err)
	if !ok {
		t.Fatalf("want ConvertError got %T", err)
	}
	if ce.Code != model.CodeWorkbookUnreadable {
		t.Fatalf("code want=%s got=%s", model.CodeWorkbookUnreadable, ce.Code)
	}
	// 三段尝试各留一条原因（逐格兜底因无范围被跳过也要留痕）
	if len(ce.Causes) != 3 {
		t.Fatalf("causes want=3 got=%d: %v", len(ce.Causes), ce.Causes)
	}
}

func TestRunAttempts_SlowPrimaryLosesRace(t *testing.T) {
	t.Parallel()

	var primaryDone atomic.Bool
	slow := attempt{name: "slow", run: func([]byte, Hints, *cellRange) attemptResult {
		time.Sleep(200 * time.Millisecond)
		primaryDone.Store(true)
		return attemptResult{grid: &model.RawCellGrid{
			SheetName: "slow",
			Rows:      [][]model.CellValue{{model.TextCell("late")}},
		}}
	}}
	fast := attempt{name: "fast", run: func([]byte, Hints, *cellRange) attemptResult {
		return attemptResult{grid: &model.RawCellGrid{
			SheetName: "fast",
			Rows:      [][]model.CellValue{{model.TextCell("ok")}},
		}}
	}}

	r := New(Timeouts{Primary: 20 * time.Millisecond, Secondary: time.Second, Tertiary: time.Second})
	grid, err := r.runAttempts(context.Background(), nil, Hints{}, []attempt{slow, fast})
	if err != nil {
		t.Fatalf("runAttempts: %v", err)
	}
	// 超时后必须采用备选结果，主尝试的迟到结果不得混入
	if grid.SheetName != "fast" {
		t.Fatalf("want secondary result, got sheet=%s", grid.SheetName)
	}

	time.Sleep(300 * time.Millisecond)
	if !primaryDone.Load() {
		t.Fatal("slow attempt should still finish in background")
	}
	if grid.SheetName != "fast" {
		t.Fatalf("late result leaked into grid: %s", grid.SheetName)
	}
}

func TestRunAttempts_PanicBecomesCause(t *testing.T) {
	t.Parallel()

	boom := attempt{name: "boom", run: func([]byte, Hints, *cellRange) attemptResult {
		panic("corrupt record")
	}}

	r := New(DefaultTimeouts())
	_, err := r.runAttempts(context.Background(), nil, Hints{}, []attempt{boom})
	ce, ok := model.AsConvertError(err)
	if !ok {
		t.Fatalf("want ConvertError got %v", err)
	}
	if len(ce.Causes) != 1 {
		t.Fatalf("causes want=1 got=%v", ce.Causes)
	}
}

func TestRunAttempts_RangeFromFailedAttemptFeedsFallback(t *testing.T) {
	t.Parallel()

	failing := attempt{name: "failing", run: func([]byte, Hints, *cellRange) attemptResult {
		return attemptResult{
			err: context.DeadlineExceeded,
			dim: &cellRange{Sheet: "발주", Rows: 2, Cols: 1},
		}
	}}
	emptyGrid := attempt{name: "empty", run: func([]byte, Hints, *cellRange) attemptResult {
		return attemptResult{grid: &model.RawCellGrid{SheetName: "발주"}}
	}}
	fallback := attempt{name: "fallback", needRange: true, run: func(_ []byte, _ Hints, dim *cellRange) attemptResult {
		if dim == nil {
			return attemptResult{err: context.Canceled}
		}
		return attemptResult{grid: &model.RawCellGrid{
			SheetName: dim.Sheet,
			Rows:      [][]model.CellValue{{model.TextCell("a")}, {model.TextCell("b")}},
		}}
	}}

	r := New(DefaultTimeouts())
	grid, err := r.runAttempts(context.Background(), nil, Hints{}, []attempt{failing, emptyGrid, fallback})
	if err != nil {
		t.Fatalf("runAttempts: %v", err)
	}
	if grid.SheetName != "발주" || grid.RowCount() != 2 {
		t.Fatalf("fallback grid mismatch: %+v", grid)
	}
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	grid, err := ParseCSV("상품명,수량\n사과,3\n배\n")
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if grid.RowCount() != 3 || grid.ColCount() != 2 {
		t.Fatalf("dims want=3x2 got=%dx%d", grid.RowCount(), grid.ColCount())
	}
	// CSV 单元格一律是文本，"3" 不归类为数字
	if got := grid.Rows[1][1]; got.Kind != model.CellText || got.Text != "3" {
		t.Fatalf("csv cell should stay text: %+v", got)
	}
	// 短行补空
	if !grid.Rows[2][1].IsEmpty() {
		t.Fatalf("short row should be padded with empty cells")
	}
}

func TestScoreSheet(t *testing.T) {
	t.Parallel()

	data := scoreSheet("발주데이터", 100, 8)
	summary := scoreSheet("요약", 100, 8)
	if data <= summary {
		t.Fatalf("data sheet should outscore summary sheet: %v <= %v", data, summary)
	}
	// 行数加分封顶 20
	if got := scoreSheet("plain", 10000, 0); got != 20 {
		t.Fatalf("row score cap want=20 got=%v", got)
	}
	// 列数加分封顶 10
	if got := scoreSheet("plain", 0, 50); got != 10 {
		t.Fatalf("col score cap want=10 got=%v", got)
	}
}

func TestCellFromString(t *testing.T) {
	t.Parallel()

	if got := cellFromString("  "); !got.IsEmpty() {
		t.Fatalf("blank should be empty: %+v", got)
	}
	if got := cellFromString("45234.5"); got.Kind != model.CellNumber || got.Number != 45234.5 {
		t.Fatalf("numeric string mismatch: %+v", got)
	}
	if got := cellFromString("사과"); got.Kind != model.CellText || got.Text != "사과" {
		t.Fatalf("text mismatch: %+v", got)
	}
}

func TestParseDimensionRef(t *testing.T) {
	t.Parallel()

	if got := parseDimensionRef("발주", "A1:C10"); got == nil || got.Rows != 10 || got.Cols != 3 {
		t.Fatalf("A1:C10 want=10x3 got=%+v", got)
	}
	// 单格引用也算可用范围
	if got := parseDimensionRef("발주", "B2"); got == nil || got.Rows != 2 || got.Cols != 2 {
		t.Fatalf("B2 want=2x2 got=%+v", got)
	}
	if got := parseDimensionRef("발주", ""); got != nil {
		t.Fatalf("empty ref should yield nil, got %+v", got)
	}
	if got := parseDimensionRef("발주", "A1:???"); got != nil {
		t.Fatalf("bad ref should yield nil, got %+v", got)
	}
}

func TestSheetDimension(t *testing.T) {
	t.Parallel()

	data := buildTestWorkbook(t, "발주", [][]interface{}{
		{"상품명", "수량", "단가"},
		{"사과", 3, 1500},
	})
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	dim := sheetDimension(f, "발주")
	if dim == nil || dim.Sheet != "발주" || dim.Rows != 2 || dim.Cols != 3 {
		t.Fatalf("dimension want=2x3 got=%+v", dim)
	}
}

func TestBuildGrid_PanicBecomesError(t *testing.T) {
	t.Parallel()

	grid, err := buildGrid("발주", 2, 2, func(r, c int) model.CellValue {
		if r == 1 {
			panic("bad record")
		}
		return model.TextCell("a")
	})
	if err == nil || grid != nil {
		t.Fatalf("want error, got grid=%+v err=%v", grid, err)
	}

	grid, err = buildGrid("발주", 2, 3, func(r, c int) model.CellValue {
		return model.NumberCell(float64(r*3 + c))
	})
	if err != nil {
		t.Fatalf("buildGrid: %v", err)
	}
	if grid.RowCount() != 2 || grid.ColCount() != 3 {
		t.Fatalf("dims want=2x3 got=%dx%d", grid.RowCount(), grid.ColCount())
	}
	if got := grid.Rows[1][2]; got.Number != 5 {
		t.Fatalf("cell want=5 got=%+v", got)
	}
}

func TestLegacyCodePage(t *testing.T) {
	t.Parallel()

	// 码页提示为空时默认 cp949
	if got := legacyCodePage(Hints{}); got != "cp949" {
		t.Fatalf("default want=cp949 got=%s", got)
	}
	if got := legacyCodePage(Hints{CodePage: "windows-1251"}); got != "windows-1251" {
		t.Fatalf("explicit hint must pass through, got %s", got)
	}
}

type fakeLegacyCell struct {
	s string
	f float64
	n int64
}

func (c fakeLegacyCell) GetString() string   { return c.s }
func (c fakeLegacyCell) GetFloat64() float64 { return c.f }
func (c fakeLegacyCell) GetInt64() int64     { return c.n }

type fakeTypedCell struct {
	fakeLegacyCell
	typ string
}

func (c fakeTypedCell) GetType() string { return c.typ }

func TestCellFromLegacyCell(t *testing.T) {
	t.Parallel()

	// 类型标签标明数值的单元格，值为 0 也保留为数字
	zeroQty := fakeTypedCell{typ: "RKNumber"}
	if got := cellFromLegacyCell(zeroQty); got.Kind != model.CellNumber || got.Number != 0 {
		t.Fatalf("numeric zero must survive: %+v", got)
	}

	blank := fakeTypedCell{typ: "LabelSst"}
	if got := cellFromLegacyCell(blank); !got.IsEmpty() {
		t.Fatalf("blank label should stay empty: %+v", got)
	}

	if got := cellFromLegacyCell(fakeLegacyCell{s: "사과"}); got.Kind != model.CellText || got.Text != "사과" {
		t.Fatalf("text mismatch: %+v", got)
	}
	if got := cellFromLegacyCell(fakeLegacyCell{f: 3.5}); got.Kind != model.CellNumber || got.Number != 3.5 {
		t.Fatalf("float mismatch: %+v", got)
	}
	if got := cellFromLegacyCell(fakeLegacyCell{n: 7}); got.Kind != model.CellNumber || got.Number != 7 {
		t.Fatalf("int mismatch: %+v", got)
	}
}
