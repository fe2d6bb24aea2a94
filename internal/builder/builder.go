// Package builder 把目标记录序列化为带样式的工作簿。
package builder

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"orderbridge/internal/model"
)

const outputSheetName = "발주서"

// minColWidth 列宽下限
const minColWidth = 10.0

// Build 生成输出工作簿字节
//
// 布局：表头一行（加粗、底纹、细边框）、每条记录一行（细边框、
// 自动换行）、末尾一行合计。
func Build(orderedFields []string, records []model.TargetRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", outputSheetName)

	thinBorders := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true},
		Border:    thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("创建数据样式失败: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: thinBorders,
	})
	if err != nil {
		return nil, fmt.Errorf("创建合计样式失败: %w", err)
	}

	// 表头
	for j, field := range orderedFields {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		f.SetCellValue(outputSheetName, cell, field)
	}
	f.SetRowStyle(outputSheetName, 1, 1, headerStyle)

	// 数据行
	for i, record := range records {
		row := i + 2
		for j, field := range orderedFields {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(outputSheetName, cell, record[field])
		}
	}
	if len(records) > 0 {
		f.SetRowStyle(outputSheetName, 2, len(records)+1, dataStyle)
	}

	// 合计行
	writeAggregateRow(f, orderedFields, records, len(records)+2, totalStyle)

	// 列宽与表头字数成正比，下限 10
	for j, field := range orderedFields {
		col, _ := excelize.ColumnNumberToName(j + 1)
		width := float64(utf8.RuneCountInString(field)) * 1.2
		if width < minColWidth {
			width = minColWidth
		}
		f.SetColWidth(outputSheetName, col, col, width)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("序列化工作簿失败: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAggregateRow 写合计行
//
// 第一个商品列写 "Total"，数量列求整数和、金额列求浮点和；
// 和为零的列不写，非数字值按 0 参与而不报错。
func writeAggregateRow(f *excelize.File, orderedFields []string, records []model.TargetRecord, row, style int) {
	labelWritten := false
	for j, field := range orderedFields {
		cell, _ := excelize.CoordinatesToCellName(j+1, row)
		switch {
		case !labelWritten && model.IsProductField(field):
			f.SetCellValue(outputSheetName, cell, "Total")
			labelWritten = true
		case model.IsQuantityField(field):
			if sum := sumIntColumn(records, field); sum != 0 {
				f.SetCellValue(outputSheetName, cell, sum)
			}
		case model.IsPriceField(field):
			if sum := sumFloatColumn(records, field); sum != 0 {
				f.SetCellValue(outputSheetName, cell, sum)
			}
		}
	}
	f.SetRowStyle(outputSheetName, row, row, style)
}

func sumIntColumn(records []model.TargetRecord, field string) int64 {
	var sum int64
	for _, record := range records {
		v := strings.ReplaceAll(strings.TrimSpace(record[field]), ",", "")
		if v == "" {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			sum += int64(n)
		}
	}
	return sum
}

func sumFloatColumn(records []model.TargetRecord, field string) float64 {
	var sum float64
	for _, record := range records {
		v := strings.ReplaceAll(strings.TrimSpace(record[field]), ",", "")
		if v == "" {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			sum += n
		}
	}
	return sum
}
