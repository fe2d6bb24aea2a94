// Package locator 在原始网格的头部行里找出表头行。
//
// 订单文件的表头行经常不在第一行：上面可能压着标题、联系方式
// 或空行，只能按关键词与密度打分挑选。
package locator

import (
	"strings"
	"unicode/utf8"

	"orderbridge/internal/model"
)

// maxScanRows 表头只会出现在文件头部，最多扫描前 10 行
const maxScanRows = 10

// 表头判定阈值
const (
	headerThreshold       = 5  // 常规路径：score > 5
	headerThresholdStrict = 10 // 仅提取表头路径：score ≥ 10
)

// LocateHeader 在网格前 10 行中定位表头行
func LocateHeader(grid *model.RawCellGrid) (*model.HeaderSelection, error) {
	return locate(grid, func(score int) bool { return score > headerThreshold })
}

// LocateHeaderStrict 表头提取专用的严格变体
//
// 只看表头不看数据时误选代价更高，阈值抬到 score ≥ 10。
func LocateHeaderStrict(grid *model.RawCellGrid) (*model.HeaderSelection, error) {
	return locate(grid, func(score int) bool { return score >= headerThresholdStrict })
}

func locate(grid *model.RawCellGrid, accept func(int) bool) (*model.HeaderSelection, error) {
	if grid == nil || grid.RowCount() == 0 {
		return nil, model.NewConvertError(model.CodeHeaderNotFound, "网格为空，找不到表头行")
	}

	limit := grid.RowCount()
	if limit > maxScanRows {
		limit = maxScanRows
	}

	bestRow := -1
	bestScore := 0
	for i := 0; i < limit; i++ {
		// 严格大于：平局取更早的行
		if score := scoreRow(grid.Rows[i]); accept(score) && score > bestScore {
			bestRow = i
			bestScore = score
		}
	}
	if bestRow < 0 {
		return nil, model.NewConvertError(model.CodeHeaderNotFound, "前10行内未找到可信的表头行")
	}

	sel := &model.HeaderSelection{RowIndex: bestRow}
	for col, cell := range grid.Rows[bestRow] {
		text := strings.TrimSpace(cell.Flatten())
		if text == "" {
			continue
		}
		// 重复表头照收，后续记录按字段名取值时自然后者覆盖前者
		sel.Fields = append(sel.Fields, text)
		sel.Columns = append(sel.Columns, col)
	}
	if len(sel.Fields) == 0 {
		return nil, model.NewConvertError(model.CodeHeaderNotFound, "候选表头行不含有效字段")
	}
	return sel, nil
}

// scoreRow 行打分：关键词加权 + 非空单元格数
func scoreRow(row []model.CellValue) int {
	score := 0
	nonEmpty := 0
	for _, cell := range row {
		text := strings.TrimSpace(cell.Flatten())
		if text == "" {
			continue
		}
		nonEmpty++
		score += keywordWeight(text)
	}
	return score + nonEmpty
}

// keywordWeight 单元格关键词权重
//
// 商品/数量/价格是订单表头的铁证，权重最高；收件人信息次之；
// 短文本兜底给 1 分，让密集的文字行胜过稀疏的数据行。
func keywordWeight(text string) int {
	switch {
	case model.IsProductField(text):
		return 10
	case model.IsQuantityField(text):
		return 10
	case model.IsPriceField(text):
		return 10
	case model.IsCustomerField(text):
		return 8
	case model.IsPhoneField(text):
		return 8
	case model.IsAddressField(text):
		return 8
	case model.IsEmailField(text):
		return 5
	case utf8.RuneCountInString(text) <= 20:
		return 1
	default:
		return 0
	}
}
