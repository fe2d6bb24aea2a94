package model

import (
	"strconv"
	"strings"
	"time"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// CellValue 单元格值（封闭和类型）
//
// 不同读取库返回的单元格可能是字符串、数字、日期或富文本对象，
// 统一收敛到这四种形态，消费端不再做运行时类型判断。
type CellValue struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

// TextCell 创建文本单元格（去除首尾空白，空串归为 Empty）
func TextCell(s string) CellValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellValue{Kind: CellEmpty}
	}
	return CellValue{Kind: CellText, Text: s}
}

// NumberCell 创建数字单元格
func NumberCell(f float64) CellValue {
	return CellValue{Kind: CellNumber, Number: f}
}

// DateCell 创建日期单元格
func DateCell(t time.Time) CellValue {
	return CellValue{Kind: CellDate, Date: t}
}

// EmptyCell 创建空单元格
func EmptyCell() CellValue {
	return CellValue{Kind: CellEmpty}
}

// IsEmpty 判断是否为空值
func (c CellValue) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// Flatten 压平为纯字符串，供映射引擎消费
func (c CellValue) Flatten() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		if c.Date.Hour() == 0 && c.Date.Minute() == 0 && c.Date.Second() == 0 {
			return c.Date.Format("2006-01-02")
		}
		return c.Date.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// RawCellGrid 原始单元格网格
//
// 一次转换请求内的临时数据，规整化后即丢弃。
type RawCellGrid struct {
	SheetName string
	Rows      [][]CellValue
}

// RowCount 行数
func (g *RawCellGrid) RowCount() int {
	if g == nil {
		return 0
	}
	return len(g.Rows)
}

// ColCount 最大列数
func (g *RawCellGrid) ColCount() int {
	if g == nil {
		return 0
	}
	maxCol := 0
	for _, row := range g.Rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	return maxCol
}
