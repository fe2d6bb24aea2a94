package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thedatashed/xlsxreader"
	"github.com/xuri/excelize/v2"

	"orderbridge/internal/model"
)

// readWithExcelize 主尝试：excelize 数据模式读取
//
// RawCellValue 跳过样式/公式结果的计算，只取原始值，
// 日期会以序列值字符串出现，规整化阶段再转可读格式。
func readWithExcelize(data []byte, _ Hints, _ *cellRange) attemptResult {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return attemptResult{err: errors.New("工作簿不含工作表")}
	}

	// 在所有工作表中挑得分最高的
	bestSheet := ""
	bestScore := 0.0
	var bestRows [][]string
	var failedDim *cellRange
	for _, name := range sheets {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			// 行提取失败的表也上报 dimension 记录的范围，逐格兜底要用
			if failedDim == nil {
				failedDim = sheetDimension(f, name)
			}
			continue
		}
		maxCol := 0
		for _, row := range rows {
			if len(row) > maxCol {
				maxCol = len(row)
			}
		}
		if score := scoreSheet(name, len(rows), maxCol); bestSheet == "" || score > bestScore {
			bestSheet = name
			bestScore = score
			bestRows = rows
		}
	}
	if bestSheet == "" {
		return attemptResult{err: errors.New("所有工作表均不可读"), dim: failedDim}
	}

	grid := &model.RawCellGrid{SheetName: bestSheet}
	maxCol := 0
	for _, row := range bestRows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	for _, row := range bestRows {
		cells := make([]model.CellValue, maxCol)
		for j := 0; j < maxCol; j++ {
			if j < len(row) {
				cells[j] = cellFromString(row[j])
			} else {
				cells[j] = model.EmptyCell()
			}
		}
		grid.Rows = append(grid.Rows, cells)
	}

	dim := &cellRange{Sheet: bestSheet, Rows: len(bestRows), Cols: maxCol}
	return attemptResult{grid: grid, dim: dim}
}

// readWithXlsxReader 备选尝试：流式读取，不碰样式/公式/超链接
func readWithXlsxReader(data []byte, _ Hints, _ *cellRange) attemptResult {
	xl, err := xlsxreader.NewReader(data)
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}
	if len(xl.Sheets) == 0 {
		return attemptResult{err: errors.New("工作簿不含工作表")}
	}

	type sheetData struct {
		name string
		rows map[int][]model.CellValue // 1-based 行号
		max  int
		cols int
	}

	best := sheetData{}
	bestScore := 0.0
	for _, name := range xl.Sheets {
		cur := sheetData{name: name, rows: make(map[int][]model.CellValue)}
		for row := range xl.ReadRows(name) {
			if row.Error != nil {
				continue
			}
			cells := make([]model.CellValue, 0, len(row.Cells))
			maxIdx := -1
			for _, cell := range row.Cells {
				idx := cell.ColumnIndex()
				for len(cells) <= idx {
					cells = append(cells, model.EmptyCell())
				}
				cells[idx] = cellFromString(cell.Value)
				if idx > maxIdx {
					maxIdx = idx
				}
			}
			cur.rows[row.Index] = cells
			if row.Index > cur.max {
				cur.max = row.Index
			}
			if maxIdx+1 > cur.cols {
				cur.cols = maxIdx + 1
			}
		}
		if score := scoreSheet(name, cur.max, cur.cols); best.name == "" || score > bestScore {
			best = cur
			bestScore = score
		}
	}
	if best.name == "" || best.max == 0 {
		return attemptResult{err: errors.New("未读到任何行")}
	}

	grid := &model.RawCellGrid{SheetName: best.name}
	for i := 1; i <= best.max; i++ {
		row := best.rows[i]
		cells := make([]model.CellValue, best.cols)
		for j := 0; j < best.cols; j++ {
			if j < len(row) {
				cells[j] = row[j]
			} else {
				cells[j] = model.EmptyCell()
			}
		}
		grid.Rows = append(grid.Rows, cells)
	}

	dim := &cellRange{Sheet: best.name, Rows: best.max, Cols: best.cols}
	return attemptResult{grid: grid, dim: dim}
}

// walkModernCells 最后兜底：按先行尝试上报的范围逐格读取
func walkModernCells(data []byte, _ Hints, dim *cellRange) attemptResult {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return attemptResult{err: fmt.Errorf("打开工作簿失败: %w", err)}
	}
	defer f.Close()

	grid := &model.RawCellGrid{SheetName: dim.Sheet}
	for i := 0; i < dim.Rows; i++ {
		cells := make([]model.CellValue, dim.Cols)
		for j := 0; j < dim.Cols; j++ {
			cells[j] = model.EmptyCell()
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			// 逐格读取容忍单格失败，坏格按空处理
			if v, err := f.GetCellValue(dim.Sheet, axis, excelize.Options{RawCellValue: true}); err == nil {
				cells[j] = cellFromString(v)
			}
		}
		grid.Rows = append(grid.Rows, cells)
	}

	return attemptResult{grid: grid, dim: dim}
}

// sheetDimension 按工作表的 dimension 记录解出可用范围
func sheetDimension(f *excelize.File, sheet string) *cellRange {
	ref, err := f.GetSheetDimension(sheet)
	if err != nil {
		return nil
	}
	return parseDimensionRef(sheet, ref)
}

// parseDimensionRef 解析 "A1:C10" 形式的范围引用，右下角即行列数
func parseDimensionRef(sheet, ref string) *cellRange {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	parts := strings.Split(ref, ":")
	col, row, err := excelize.CellNameToCoordinates(parts[len(parts)-1])
	if err != nil || row <= 0 || col <= 0 {
		return nil
	}
	return &cellRange{Sheet: sheet, Rows: row, Cols: col}
}

// cellFromString 把字符串值归类为数字或文本单元格
func cellFromString(s string) model.CellValue {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return model.EmptyCell()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return model.NumberCell(f)
	}
	return model.TextCell(trimmed)
}
