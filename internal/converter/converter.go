// Package converter 串起整条转换流水线。
//
// 识别格式 → 读出网格 → 定位表头 → 规整记录 → 套用模板 → 生成
// 输出工作簿。每一步的失败都带错误码上抛，调用方据此提示用户。
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"orderbridge/internal/builder"
	"orderbridge/internal/decoder"
	"orderbridge/internal/locator"
	"orderbridge/internal/mapping"
	"orderbridge/internal/model"
	"orderbridge/internal/normalizer"
	"orderbridge/internal/reader"
	"orderbridge/internal/sniffer"
)

// Options 转换器配置
type Options struct {
	Timeouts       reader.Timeouts
	LegacyMaxBytes int64  // 传统格式大小上限，<=0 不限制
	LegacyCodePage string // 传统工作簿码页提示
}

// Request 一次转换请求
type Request struct {
	FileName  string
	Data      []byte
	Template  *model.Template
	Overrides map[string]string // 手工覆盖，优先级最高
}

// Converter 转换器
type Converter struct {
	reader  *reader.Reader
	engine  *mapping.Engine
	options Options
}

// New 创建转换器
func New(options Options) *Converter {
	if options.Timeouts == (reader.Timeouts{}) {
		options.Timeouts = reader.DefaultTimeouts()
	}
	return &Converter{
		reader:  reader.New(options.Timeouts),
		engine:  mapping.NewEngine(),
		options: options,
	}
}

// Convert 执行完整转换
func (c *Converter) Convert(ctx context.Context, req Request) (*model.ConvertResult, error) {
	if req.Template == nil {
		return nil, model.NewConvertError(model.CodeTemplateInvalid, "未指定模板")
	}
	if err := req.Template.Validate(); err != nil {
		return nil, err
	}

	grid, format, encoding, err := c.extractGrid(ctx, req.FileName, req.Data)
	if err != nil {
		return nil, err
	}

	header, err := locator.LocateHeader(grid)
	if err != nil {
		return nil, err
	}

	records := normalizer.Normalize(grid, header)
	targets, rowErrors := c.engine.ApplyTemplate(req.Template, records, req.Overrides)

	output, err := builder.Build(req.Template.OrderedTargetFields, targets)
	if err != nil {
		return nil, err
	}

	return &model.ConvertResult{
		FileName:          outputFileName(req.FileName, req.Template.Name),
		Format:            format,
		SheetName:         grid.SheetName,
		Encoding:          encoding,
		ProcessedRowCount: len(targets),
		Errors:            rowErrors,
		Output:            output,
	}, nil
}

// ExtractHeaders 仅提取表头字段，供前端配置映射规则用
//
// 只看表头不看数据，用严格阈值变体，宁缺毋错。
func (c *Converter) ExtractHeaders(ctx context.Context, fileName string, data []byte) ([]string, error) {
	grid, _, _, err := c.extractGrid(ctx, fileName, data)
	if err != nil {
		return nil, err
	}
	header, err := locator.LocateHeaderStrict(grid)
	if err != nil {
		return nil, err
	}
	return header.Fields, nil
}

// extractGrid 识别格式并读出原始网格
func (c *Converter) extractGrid(ctx context.Context, fileName string, data []byte) (*model.RawCellGrid, model.FileFormat, string, error) {
	format := sniffer.ClassifyWithName(data, fileName)
	switch format {
	case model.FormatCSV:
		text, encoding := decoder.DecodeText(data)
		grid, err := reader.ParseCSV(text)
		if err != nil {
			return nil, format, "", model.NewConvertErrorWithCauses(
				model.CodeWorkbookUnreadable, "CSV文件无法读取", []string{err.Error()})
		}
		return grid, format, encoding, nil

	case model.FormatLegacyBinary:
		if err := sniffer.CheckLegacySize(data, c.options.LegacyMaxBytes); err != nil {
			return nil, format, "", err
		}
		grid, err := c.reader.ReadGrid(ctx, data, reader.Hints{
			TreatAsLegacy: true,
			CodePage:      c.options.LegacyCodePage,
		})
		if err != nil {
			return nil, format, "", err
		}
		return grid, format, "", nil

	case model.FormatZipBased:
		grid, err := c.reader.ReadGrid(ctx, data, reader.Hints{})
		if err != nil {
			return nil, format, "", err
		}
		return grid, format, "", nil

	default:
		return nil, format, "", model.NewConvertError(model.CodeUnsupportedFormat,
			fmt.Sprintf("无法识别的文件格式: %s", fileName))
	}
}

// outputFileName 生成输出文件名：模板名_原文件名_日期.xlsx
func outputFileName(sourceName, templateName string) string {
	base := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	if base == "" || base == "." {
		base = "orders"
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", templateName, base, time.Now().Format("20060102"))
}
