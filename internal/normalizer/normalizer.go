// Package normalizer 把表头行之后的网格行规整为字段→值记录。
package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"orderbridge/internal/model"
)

// serialEpoch 工作簿日期序列值的纪元
//
// 序列值 25569 对应 1970-01-01，等价于以 1899-12-30 为第 0 天。
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Normalize 生成表头行之后每一数据行的记录
//
// 缺格按空串补齐；整行去空格后全空的行不产出记录——导出文件
// 尾部的空行不是订单。
func Normalize(grid *model.RawCellGrid, header *model.HeaderSelection) []model.SourceRecord {
	var records []model.SourceRecord
	for i := header.RowIndex + 1; i < grid.RowCount(); i++ {
		row := grid.Rows[i]
		record := make(model.SourceRecord, len(header.Fields))
		allEmpty := true
		for k, field := range header.Fields {
			col := header.Columns[k]
			cell := model.EmptyCell()
			if col < len(row) {
				cell = row[col]
			}
			cell = normalizeCell(field, cell)
			if !cell.IsEmpty() {
				allEmpty = false
			}
			// 重复表头后写覆盖先写
			record[field] = cell
		}
		if allEmpty {
			continue
		}
		records = append(records, record)
	}
	return records
}

// normalizeCell 单元格规整：去空格，日期字段把序列值转回可读形式
func normalizeCell(field string, cell model.CellValue) model.CellValue {
	switch cell.Kind {
	case model.CellText:
		return model.TextCell(cell.Text)
	case model.CellNumber:
		if model.IsDateTimeField(field) {
			return model.DateCell(SerialToTime(cell.Number))
		}
		return cell
	default:
		return cell
	}
}

// SerialToTime 把日期序列值换算成时间
func SerialToTime(serial float64) time.Time {
	days := math.Floor(serial)
	frac := serial - days
	t := serialEpoch.AddDate(0, 0, int(days))
	if frac > 0 {
		t = t.Add(time.Duration(math.Round(frac * 24 * 3600)) * time.Second)
	}
	return t
}

// RenderDateValue 按文本渲染日期字段的值
//
// 序列值文本（CSV 也可能带）同样转成可读形式；非数字文本原样保留。
func RenderDateValue(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	serial, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return trimmed
	}
	return model.DateCell(SerialToTime(serial)).Flatten()
}
