package reader

import "strings"

// 数据表名加分、汇总/透视表名减分
//
// 汇总表经常被误选成"真正的数据表"，名字先验用来压下去。
var (
	dataSheetKeywords = []string{
		"data", "order", "주문", "발주", "데이터", "목록", "내역",
		"订单", "数据", "明细",
	}
	summarySheetKeywords = []string{
		"summary", "pivot", "total", "요약", "집계", "피벗",
		"汇总", "总表", "统计", "透视",
	}
)

// scoreSheet 候选表打分
//
// score = 名字加减分 + min(行数/10, 20) + min(列数, 10)
func scoreSheet(name string, rowCount, colCount int) float64 {
	score := sheetNameBonus(name)

	rowScore := float64(rowCount) / 10
	if rowScore > 20 {
		rowScore = 20
	}
	score += rowScore

	colScore := float64(colCount)
	if colScore > 10 {
		colScore = 10
	}
	score += colScore

	return score
}

func sheetNameBonus(name string) float64 {
	lower := strings.ToLower(strings.TrimSpace(name))
	bonus := 0.0
	for _, kw := range dataSheetKeywords {
		if strings.Contains(lower, kw) {
			bonus += 8
			break
		}
	}
	for _, kw := range summarySheetKeywords {
		if strings.Contains(lower, kw) {
			bonus -= 8
			break
		}
	}
	return bonus
}
