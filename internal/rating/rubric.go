package rating

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRubric 评分细则校验失败
var ErrInvalidRubric = errors.New("评分细则无效")

// weightTolerance 权重和的浮点容差
const weightTolerance = 1e-9

// Criterion 单项评分标准
type Criterion struct {
	Name           string                 `yaml:"name"`            // 标准名，在细则内唯一
	Weight         float64                `yaml:"weight"`          // 权重，全部标准的权重和须为1.0
	ScoringFn      string                 `yaml:"scoring_fn"`      // 打分函数引用
	RequiredFields []string               `yaml:"required_fields"` // 缺失即判零分的前置字段
	Params         map[string]interface{} `yaml:"params"`          // 打分函数的参数
}

// Rubric 评分细则，加载时校验，之后只读
type Rubric struct {
	Version  string      `yaml:"version"` // 细则版本，用于区分评分缓存，可选
	Criteria []Criterion `yaml:"criteria"`
}

// LoadRubric 从YAML文件加载并校验评分细则
func LoadRubric(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取评分细则文件失败: %w", err)
	}
	return ParseRubric(data)
}

// ParseRubric 解析并校验评分细则
// 校验失败返回包裹ErrInvalidRubric的错误，细则在修复前不可用于评分
func ParseRubric(data []byte) (*Rubric, error) {
	var rubric Rubric
	if err := yaml.Unmarshal(data, &rubric); err != nil {
		return nil, fmt.Errorf("%w: YAML解析失败: %v", ErrInvalidRubric, err)
	}
	if err := rubric.Validate(); err != nil {
		return nil, err
	}
	return &rubric, nil
}

// Validate 校验细则结构
// 规则：至少一项标准；标准名非空且唯一；权重在[0,1]且总和为1.0；
// 打分函数必须是已注册的；函数特有的必填参数齐全
func (r *Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return fmt.Errorf("%w: 未定义任何评分标准", ErrInvalidRubric)
	}

	seen := make(map[string]bool)
	sum := 0.0
	for i, c := range r.Criteria {
		if c.Name == "" {
			return fmt.Errorf("%w: 第%d项标准缺少名称", ErrInvalidRubric, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: 标准名重复: %s", ErrInvalidRubric, c.Name)
		}
		seen[c.Name] = true

		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("%w: 标准 %s 的权重 %v 超出[0,1]", ErrInvalidRubric, c.Name, c.Weight)
		}
		sum += c.Weight

		if _, ok := scoringFns[c.ScoringFn]; !ok {
			return fmt.Errorf("%w: 标准 %s 引用了未知的打分函数: %s", ErrInvalidRubric, c.Name, c.ScoringFn)
		}
		if c.ScoringFn == fnSkillCoverage && len(stringsParam(c.Params, paramTargetSkills)) == 0 {
			return fmt.Errorf("%w: 标准 %s 缺少参数 %s", ErrInvalidRubric, c.Name, paramTargetSkills)
		}
	}

	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: 权重和为 %v，必须等于1.0", ErrInvalidRubric, sum)
	}
	return nil
}

// floatParam 从参数表取浮点参数，兼容YAML解析出的整型
func floatParam(params map[string]interface{}, key string, fallback float64) float64 {
	raw, ok := params[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// stringsParam 从参数表取字符串列表参数
func stringsParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
