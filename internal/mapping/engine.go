// Package mapping 按模板把源记录映射为目标记录。
//
// 映射只认显式配置：手工覆盖 > 固定字段 > 映射规则 > 留空。
// 不做同名字段的隐式自动匹配——字段名碰巧相同曾导致整列错配，
// 显式配置是唯一可信来源。
package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"orderbridge/internal/model"
	"orderbridge/internal/normalizer"
)

// placeholderPattern 计算模板里的 {占位符}
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// 内置占位符
const (
	placeholderTemplateName = "template_name"
	placeholderTimestamp    = "timestamp"
)

const timestampLayout = "2006-01-02 15:04:05"

// Engine 映射引擎
type Engine struct {
	now func() time.Time
}

// NewEngine 创建映射引擎
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt 创建固定时钟的映射引擎，测试用
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// ApplyTemplate 对每条源记录套用模板
//
// 单行失败只记入错误列表并跳过该行，其余行照常产出。
func (e *Engine) ApplyTemplate(tpl *model.Template, records []model.SourceRecord, overrides map[string]string) ([]model.TargetRecord, []model.RowError) {
	targets := make([]model.TargetRecord, 0, len(records))
	var rowErrors []model.RowError
	for i, record := range records {
		target, err := e.applyRow(tpl, record, overrides)
		if err != nil {
			rowErrors = append(rowErrors, model.RowError{RowIndex: i, Message: err.Error()})
			continue
		}
		targets = append(targets, target)
	}
	return targets, rowErrors
}

func (e *Engine) applyRow(tpl *model.Template, record model.SourceRecord, overrides map[string]string) (target model.TargetRecord, err error) {
	defer func() {
		// 规则里的异常值不拖垮整个请求，收敛为行错误
		if p := recover(); p != nil {
			err = fmt.Errorf("行转换异常: %v", p)
		}
	}()

	target = make(model.TargetRecord, len(tpl.OrderedTargetFields))
	for _, field := range tpl.OrderedTargetFields {
		value := e.resolveField(tpl, record, overrides, field)
		target[field] = coerceValue(field, value)
	}
	return target, nil
}

// resolveField 按优先级解析单个目标字段的值
func (e *Engine) resolveField(tpl *model.Template, record model.SourceRecord, overrides map[string]string, field string) string {
	if v, ok := overrides[field]; ok {
		return v
	}
	if v, ok := tpl.FixedFields[field]; ok {
		return v
	}
	rule, ok := tpl.Rules[field]
	if !ok {
		return ""
	}
	switch rule.Kind {
	case model.RuleDirect:
		return record[rule.Source].Flatten()
	case model.RuleFixed:
		return rule.Value
	case model.RuleComputed:
		return e.expandPlaceholders(tpl, record, rule.Value)
	default:
		return ""
	}
}

// expandPlaceholders 展开计算模板里的占位符
//
// {template_name} 与 {timestamp} 是内置占位符，其余按源字段名取值，
// 未知字段展开为空串。
func (e *Engine) expandPlaceholders(tpl *model.Template, record model.SourceRecord, text string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.TrimSpace(m[1 : len(m)-1])
		switch name {
		case placeholderTemplateName:
			return tpl.Name
		case placeholderTimestamp:
			return e.now().Format(timestampLayout)
		default:
			return record[name].Flatten()
		}
	})
}

// coerceValue 按目标字段名做类型收敛
//
// 数量字段解析为整数、金额字段解析为浮点数，解析失败一律置空
// 而不是报错；日期字段把序列值转回可读形式。
func coerceValue(field, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	switch {
	case model.IsQuantityField(field):
		return coerceInt(trimmed)
	case model.IsPriceField(field):
		return coerceFloat(trimmed)
	case model.IsDateTimeField(field):
		return normalizer.RenderDateValue(trimmed)
	default:
		return trimmed
	}
}

func coerceInt(s string) string {
	cleaned := strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

func coerceFloat(s string) string {
	cleaned := strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
