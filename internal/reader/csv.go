package reader

import (
	"encoding/csv"
	"fmt"
	"strings"

	"orderbridge/internal/model"
)

// ParseCSV 把已解码的 CSV 文本解析成单元格网格
//
// 所有单元格一律按文本处理：CSV 里的数字没有日期序列值语义，
// 不走数字归类，避免把 "45234" 这类值误判成日期。
func ParseCSV(text string) (*model.RawCellGrid, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // 各行列数允许不同
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV解析失败: %w", err)
	}

	maxCol := 0
	for _, rec := range records {
		if len(rec) > maxCol {
			maxCol = len(rec)
		}
	}

	grid := &model.RawCellGrid{SheetName: "CSV"}
	for _, rec := range records {
		cells := make([]model.CellValue, maxCol)
		for j := 0; j < maxCol; j++ {
			if j < len(rec) {
				cells[j] = model.TextCell(rec[j])
			} else {
				cells[j] = model.EmptyCell()
			}
		}
		grid.Rows = append(grid.Rows, cells)
	}

	return grid, nil
}
