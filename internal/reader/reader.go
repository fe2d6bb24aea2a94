// Package reader 把已识别格式的工作簿字节解出原始单元格网格。
//
// 读取按"主读取库 → 备选读取库 → 逐格兜底"三段式推进，每段
// 与各自的超时赛跑；输掉赛跑的尝试其迟到结果一律丢弃。
package reader

import (
	"context"
	"fmt"
	"time"

	"orderbridge/internal/model"
)

// Timeouts 三段尝试各自的超时
type Timeouts struct {
	Primary   time.Duration
	Secondary time.Duration
	Tertiary  time.Duration
}

// DefaultTimeouts 标准部署超时
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Primary:   30 * time.Second,
		Secondary: 20 * time.Second,
		Tertiary:  10 * time.Second,
	}
}

// ConstrainedTimeouts 受限（serverless）部署超时
func ConstrainedTimeouts() Timeouts {
	return Timeouts{
		Primary:   5 * time.Second,
		Secondary: 4 * time.Second,
		Tertiary:  3 * time.Second,
	}
}

// Hints 读取提示
type Hints struct {
	TreatAsLegacy bool   // 传统二进制工作簿
	CodePage      string // 已知地区性办公套件变体的码页提示
}

// cellRange 先行尝试上报的可用单元格范围，供逐格兜底使用
type cellRange struct {
	Sheet string
	Rows  int
	Cols  int
}

// attemptResult 单次尝试结果
//
// 打开成功但读取失败的尝试仍可上报范围；超时丢弃的结果
// 连范围一起丢弃。
type attemptResult struct {
	grid *model.RawCellGrid
	dim  *cellRange
	err  error
}

// attempt 一次读取尝试
type attempt struct {
	name      string
	needRange bool // 逐格兜底依赖先行尝试上报的范围
	run       func(data []byte, hints Hints, dim *cellRange) attemptResult
}

// Reader 工作簿读取器
type Reader struct {
	timeouts Timeouts
}

// New 创建读取器
func New(timeouts Timeouts) *Reader {
	return &Reader{timeouts: timeouts}
}

// ReadGrid 解出原始单元格网格
//
// 三段尝试按序推进，全部失败时携带全部底层原因返回
// workbook_unreadable，调用方不得静默退回空网格。
func (r *Reader) ReadGrid(ctx context.Context, data []byte, hints Hints) (*model.RawCellGrid, error) {
	if hints.TreatAsLegacy {
		return r.runAttempts(ctx, data, hints, legacyAttempts())
	}
	return r.runAttempts(ctx, data, hints, modernAttempts())
}

func (r *Reader) runAttempts(ctx context.Context, data []byte, hints Hints, attempts []attempt) (*model.RawCellGrid, error) {
	timeouts := []time.Duration{r.timeouts.Primary, r.timeouts.Secondary, r.timeouts.Tertiary}

	var causes []string
	var dim *cellRange
	for i, att := range attempts {
		if att.needRange && dim == nil {
			causes = append(causes, fmt.Sprintf("%s: 前序尝试未上报可用范围，跳过", att.name))
			continue
		}

		res, timedOut := r.race(ctx, timeouts[i], att, data, hints, dim)
		if timedOut {
			causes = append(causes, fmt.Sprintf("%s: 超时 (%s)", att.name, timeouts[i]))
			continue
		}
		if res.err != nil {
			causes = append(causes, fmt.Sprintf("%s: %v", att.name, res.err))
			if res.dim != nil {
				dim = res.dim
			}
			continue
		}
		if res.grid == nil || res.grid.RowCount() == 0 {
			causes = append(causes, fmt.Sprintf("%s: 网格为空", att.name))
			if res.dim != nil {
				dim = res.dim
			}
			continue
		}
		return res.grid, nil
	}

	return nil, model.NewConvertErrorWithCauses(model.CodeWorkbookUnreadable, "工作簿无法读取", causes)
}

// race 让一次尝试与定时器赛跑
//
// 结果通道带缓冲：输掉赛跑的 goroutine 照常写入后退出，没人再读，
// 迟到结果自然丢弃，不会写进任何共享状态。
func (r *Reader) race(ctx context.Context, timeout time.Duration, att attempt, data []byte, hints Hints, dim *cellRange) (attemptResult, bool) {
	ch := make(chan attemptResult, 1)

	go func() {
		defer func() {
			// extrame/xls 等库对损坏文件会 panic，统一收敛为 error
			if p := recover(); p != nil {
				ch <- attemptResult{err: fmt.Errorf("读取库 panic: %v", p)}
			}
		}()
		ch <- att.run(data, hints, dim)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, false
	case <-timer.C:
		return attemptResult{}, true
	case <-ctx.Done():
		return attemptResult{err: ctx.Err()}, false
	}
}

// buildGrid 按已知行列范围逐格取值构建网格
//
// 取格回调 panic 时收敛为错误返回，调用方据此把已知范围连同
// 错误一起上报，逐格兜底仍有范围可用。
func buildGrid(sheetName string, rows, cols int, cellAt func(r, c int) model.CellValue) (grid *model.RawCellGrid, err error) {
	defer func() {
		if p := recover(); p != nil {
			grid = nil
			err = fmt.Errorf("读取单元格失败: %v", p)
		}
	}()

	grid = &model.RawCellGrid{SheetName: sheetName}
	for r := 0; r < rows; r++ {
		cells := make([]model.CellValue, cols)
		for c := 0; c < cols; c++ {
			cells[c] = cellAt(r, c)
		}
		grid.Rows = append(grid.Rows, cells)
	}
	return grid, nil
}

// modernAttempts ZIP 容器工作簿的三段尝试
func modernAttempts() []attempt {
	return []attempt{
		{name: "excelize", run: readWithExcelize},
		{name: "xlsxreader", run: readWithXlsxReader},
		{name: "逐格读取", needRange: true, run: walkModernCells},
	}
}

// legacyAttempts 传统二进制工作簿的三段尝试
func legacyAttempts() []attempt {
	return []attempt{
		{name: "extrame/xls", run: readWithExtrameXLS},
		{name: "xlsReader", run: readWithShakinmXLS},
		{name: "逐格读取", needRange: true, run: walkLegacyCells},
	}
}
