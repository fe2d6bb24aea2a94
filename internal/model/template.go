package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuleKind 映射规则类型
type RuleKind string

const (
	// RuleDirect 直接引用源字段
	RuleDirect RuleKind = "direct"
	// RuleFixed 固定字面量
	RuleFixed RuleKind = "fixed"
	// RuleComputed 模板表达式，支持 {字段} 占位符
	RuleComputed RuleKind = "computed"
)

// MappingRule 单个目标字段的映射规则
type MappingRule struct {
	Kind   RuleKind `json:"kind"`
	Source string   `json:"source,omitempty"` // direct: 源字段名
	Value  string   `json:"value,omitempty"`  // fixed/computed: 字面量或表达式
}

// Template 字段映射模板
//
// 由外部模板管理界面创建，核心只读。OrderedTargetFields 决定输出列顺序，
// Rules/FixedFields 中不在列表内的键一律忽略（列表为准）。
type Template struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	OrderedTargetFields []string               `json:"orderedTargetFields"`
	Rules               map[string]MappingRule `json:"rules"`
	FixedFields         map[string]string      `json:"fixedFields"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// Validate 校验模板完整性
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return NewConvertError(CodeTemplateInvalid, "模板名称不能为空")
	}
	if len(t.OrderedTargetFields) == 0 {
		return NewConvertError(CodeTemplateInvalid, "模板缺少目标字段列表")
	}

	seen := make(map[string]bool, len(t.OrderedTargetFields))
	for _, f := range t.OrderedTargetFields {
		f = strings.TrimSpace(f)
		if f == "" {
			return NewConvertError(CodeTemplateInvalid, "目标字段名不能为空")
		}
		if seen[f] {
			return NewConvertError(CodeTemplateInvalid, fmt.Sprintf("目标字段重复: %s", f))
		}
		seen[f] = true
	}

	for target, rule := range t.Rules {
		switch rule.Kind {
		case RuleDirect:
			if strings.TrimSpace(rule.Source) == "" {
				return NewConvertError(CodeTemplateInvalid, fmt.Sprintf("字段 %s 的 direct 规则缺少源字段", target))
			}
		case RuleFixed, RuleComputed:
			// 允许空字面量
		default:
			return NewConvertError(CodeTemplateInvalid, fmt.Sprintf("字段 %s 的规则类型未知: %s", target, rule.Kind))
		}
	}

	return nil
}

// ContentHash 计算模板内容哈希
//
// 用于保存去重：同一映射内容重复保存时不再写库。
func (t *Template) ContentHash() string {
	type hashRule struct {
		Target string      `json:"target"`
		Rule   MappingRule `json:"rule"`
	}
	type hashFixed struct {
		Target string `json:"target"`
		Value  string `json:"value"`
	}

	rules := make([]hashRule, 0, len(t.Rules))
	for target, rule := range t.Rules {
		rules = append(rules, hashRule{Target: target, Rule: rule})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Target < rules[j].Target })

	fixed := make([]hashFixed, 0, len(t.FixedFields))
	for target, value := range t.FixedFields {
		fixed = append(fixed, hashFixed{Target: target, Value: value})
	}
	sort.Slice(fixed, func(i, j int) bool { return fixed[i].Target < fixed[j].Target })

	payload, _ := json.Marshal(struct {
		Name   string      `json:"name"`
		Fields []string    `json:"fields"`
		Rules  []hashRule  `json:"rules"`
		Fixed  []hashFixed `json:"fixed"`
	}{t.Name, t.OrderedTargetFields, rules, fixed})

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
