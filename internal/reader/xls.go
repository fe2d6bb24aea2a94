package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	extrame "github.com/extrame/xls"
	shakinm "github.com/shakinm/xlsReader/xls"

	"orderbridge/internal/model"
)

// defaultLegacyCodePage 地区性办公套件导出的传统工作簿最常见的码页
const defaultLegacyCodePage = "cp949"

// legacyCodePage 码页提示为空时退回 cp949 默认值
func legacyCodePage(hints Hints) string {
	if hints.CodePage == "" {
		return defaultLegacyCodePage
	}
	return hints.CodePage
}

// readWithExtrameXLS 传统二进制工作簿的主尝试
func readWithExtrameXLS(data []byte, hints Hints, _ *cellRange) attemptResult {
	wb, err := extrame.OpenReader(bytes.NewReader(data), legacyCodePage(hints))
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}
	if wb.NumSheets() == 0 {
		return attemptResult{err: errors.New("工作簿不含工作表")}
	}

	// 先挑得分最高的工作表，再整表读取
	bestIdx := -1
	bestScore := 0.0
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		maxCol := 0
		for r := 0; r <= int(sheet.MaxRow); r++ {
			if row := sheet.Row(r); row != nil && row.LastCol() > maxCol {
				maxCol = row.LastCol()
			}
		}
		if score := scoreSheet(sheet.Name, int(sheet.MaxRow)+1, maxCol); bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	if bestIdx < 0 {
		return attemptResult{err: errors.New("所有工作表均不可读")}
	}

	sheet := wb.GetSheet(bestIdx)
	maxCol := 0
	for r := 0; r <= int(sheet.MaxRow); r++ {
		if row := sheet.Row(r); row != nil && row.LastCol() > maxCol {
			maxCol = row.LastCol()
		}
	}

	// 打开成功即已知范围，提取失败时连同错误一起上报供逐格兜底使用
	dim := &cellRange{Sheet: sheet.Name, Rows: int(sheet.MaxRow) + 1, Cols: maxCol}
	grid, err := buildGrid(sheet.Name, dim.Rows, dim.Cols, func(r, j int) model.CellValue {
		row := sheet.Row(r)
		if row == nil || j >= row.LastCol() {
			return model.EmptyCell()
		}
		return cellFromString(row.Col(j))
	})
	if err != nil {
		return attemptResult{err: err, dim: dim}
	}
	return attemptResult{grid: grid, dim: dim}
}

// readWithShakinmXLS 传统二进制工作簿的备选尝试
//
// 两个库解析 BIFF 记录的路径不同，一个读不动的文件另一个
// 时常能读出来。
func readWithShakinmXLS(data []byte, _ Hints, _ *cellRange) attemptResult {
	wb, err := shakinm.OpenReader(bytes.NewReader(data))
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}
	if wb.GetNumberSheets() == 0 {
		return attemptResult{err: errors.New("工作簿不含工作表")}
	}

	bestIdx := -1
	bestScore := 0.0
	var bestDim *cellRange
	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		rows := sheet.GetRows()
		maxCol := 0
		for _, row := range rows {
			if n := len(row.GetCols()); n > maxCol {
				maxCol = n
			}
		}
		if score := scoreSheet(sheet.GetName(), len(rows), maxCol); bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
			bestDim = &cellRange{Sheet: sheet.GetName(), Rows: len(rows), Cols: maxCol}
		}
	}
	if bestIdx < 0 {
		return attemptResult{err: errors.New("所有工作表均不可读")}
	}

	sheet, err := wb.GetSheet(bestIdx)
	if err != nil {
		// 评分阶段已读到过范围，连同错误上报供逐格兜底使用
		return attemptResult{err: fmt.Errorf("读取工作表失败: %w", err), dim: bestDim}
	}
	rows := sheet.GetRows()
	maxCol := 0
	for _, row := range rows {
		if n := len(row.GetCols()); n > maxCol {
			maxCol = n
		}
	}

	dim := &cellRange{Sheet: sheet.GetName(), Rows: len(rows), Cols: maxCol}
	grid, err := buildGrid(dim.Sheet, dim.Rows, dim.Cols, func(r, j int) model.CellValue {
		cols := rows[r].GetCols()
		if j >= len(cols) {
			return model.EmptyCell()
		}
		return cellFromLegacyCell(cols[j])
	})
	if err != nil {
		return attemptResult{err: err, dim: dim}
	}
	return attemptResult{grid: grid, dim: dim}
}

// walkLegacyCells 传统工作簿的逐格兜底
func walkLegacyCells(data []byte, hints Hints, dim *cellRange) attemptResult {
	wb, err := extrame.OpenReader(bytes.NewReader(data), legacyCodePage(hints))
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}

	var sheet *extrame.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil && s.Name == dim.Sheet {
			sheet = s
			break
		}
	}
	if sheet == nil {
		return attemptResult{err: fmt.Errorf("工作表不存在: %s", dim.Sheet)}
	}

	grid := &model.RawCellGrid{SheetName: dim.Sheet}
	for r := 0; r < dim.Rows; r++ {
		cells := make([]model.CellValue, dim.Cols)
		row := sheet.Row(r)
		for j := 0; j < dim.Cols; j++ {
			cells[j] = model.EmptyCell()
			if row == nil || j >= row.LastCol() {
				continue
			}
			// 逐格读取容忍单格 panic，坏格按空处理
			if v, ok := safeLegacyCol(row, j); ok {
				cells[j] = cellFromString(v)
			}
		}
		grid.Rows = append(grid.Rows, cells)
	}

	return attemptResult{grid: grid, dim: dim}
}

func safeLegacyCol(row *extrame.Row, j int) (v string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return row.Col(j), true
}

// legacyCell BIFF 单元格取值的最小方法集
type legacyCell interface {
	GetString() string
	GetFloat64() float64
	GetInt64() int64
}

// typedCell 带类型标签的 BIFF 单元格
type typedCell interface {
	GetType() string
}

// cellFromLegacyCell 把 BIFF 单元格归类为数字或文本
//
// 数值单元格优先按类型标签判定，数值 0 不会被误判成空格。
func cellFromLegacyCell(cell legacyCell) model.CellValue {
	if s := cell.GetString(); s != "" {
		return cellFromString(s)
	}
	if tc, ok := cell.(typedCell); ok && isNumericCellType(tc.GetType()) {
		return model.NumberCell(cell.GetFloat64())
	}
	if f := cell.GetFloat64(); f != 0 {
		return model.NumberCell(f)
	}
	if n := cell.GetInt64(); n != 0 {
		return cellFromString(strconv.FormatInt(n, 10))
	}
	return model.EmptyCell()
}

func isNumericCellType(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "number") || strings.Contains(t, "rk") ||
		strings.Contains(t, "float") || strings.Contains(t, "int")
}
