package rating

import (
	"math"
	"strings"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// 打分函数引用名
const (
	fnYearsOfExperience   = "years_of_experience"
	fnSkillCoverage       = "skill_coverage"
	fnEducationLevel      = "education_level"
	fnContactCompleteness = "contact_completeness"
)

// 打分函数参数名
const (
	paramFullScoreYears = "full_score_years"
	paramTargetSkills   = "target_skills"
)

// noteMissingRequired 前置字段缺失的判零说明
const noteMissingRequired = "missing_required_field"

// scoringFn 单项打分函数，返回[0,1]内的子分
type scoringFn func(record types.ProfileRecord, c Criterion) float64

// scoringFns 已注册的打分函数，细则校验对照这张表
var scoringFns = map[string]scoringFn{
	fnYearsOfExperience:   scoreYearsOfExperience,
	fnSkillCoverage:       scoreSkillCoverage,
	fnEducationLevel:      scoreEducationLevel,
	fnContactCompleteness: scoreContactCompleteness,
}

// Engine 评分引擎
// 纯确定性：同一档案加同一细则，两次评分结果逐位相同
type Engine struct {
	log zerolog.Logger
}

// NewEngine 创建评分引擎
func NewEngine() *Engine {
	return &Engine{log: logger.WithComponent("rating")}
}

// Rate 按细则给档案打分
// 细则先整体校验，不通过时在任何打分发生前返回ErrInvalidRubric；
// 前置字段缺失的标准判零分并注明原因，引擎从不对缺失数据做猜测
func (e *Engine) Rate(record types.ProfileRecord, rubric *Rubric) (types.Rating, error) {
	if err := rubric.Validate(); err != nil {
		return types.Rating{}, err
	}

	rating := types.Rating{
		SubScores:   make(map[string]float64, len(rubric.Criteria)),
		Explanation: make([]types.ExplanationItem, 0, len(rubric.Criteria)),
	}

	for _, c := range rubric.Criteria {
		item := types.ExplanationItem{
			Criterion:         c.Name,
			ContributingField: strings.Join(c.RequiredFields, ","),
			Weight:            c.Weight,
		}

		if missing := firstMissingField(record, c.RequiredFields); missing != "" {
			item.Score = 0
			item.Note = noteMissingRequired
			item.ContributingField = missing
		} else {
			item.Score = clamp01(scoringFns[c.ScoringFn](record, c))
		}

		rating.SubScores[c.Name] = item.Score
		rating.Aggregate += c.Weight * item.Score
		rating.Explanation = append(rating.Explanation, item)
	}

	e.log.Debug().
		Float64("aggregate", rating.Aggregate).
		Int("criteria", len(rubric.Criteria)).
		Msg("评分完成")

	return rating, nil
}

// firstMissingField 返回首个缺失或未裁决的前置字段，全部就绪返回空串
func firstMissingField(record types.ProfileRecord, fields []string) string {
	for _, field := range fields {
		if !fieldPresent(record, field) {
			return field
		}
	}
	return ""
}

// fieldPresent 判断档案里某个具名字段是否可用
// 未知字段名按缺失处理，宁可判零也不冒进
func fieldPresent(record types.ProfileRecord, field string) bool {
	switch field {
	case "name":
		return record.Contact.Name.Resolved && record.Contact.Name.Value != ""
	case "email":
		return record.Contact.Email.Resolved && record.Contact.Email.Value != ""
	case "phone":
		return record.Contact.Phone.Resolved && record.Contact.Phone.Value != ""
	case "location":
		return record.Contact.Location.Resolved && record.Contact.Location.Value != ""
	case "website":
		return record.Contact.Website.Resolved && record.Contact.Website.Value != ""
	case "linkedin":
		return record.Contact.LinkedIn.Resolved && record.Contact.LinkedIn.Value != ""
	case "education":
		return len(record.Education) > 0
	case "experience":
		return len(record.Experience) > 0
	case "skills":
		return len(record.Skills) > 0
	case "years_of_experience":
		return record.TotalExperience.TotalMonths > 0
	case "contact":
		return true // 联系方式整体参与的标准自己处理缺失字段
	default:
		return false
	}
}

// scoreYearsOfExperience 工作年限打分：按满分年限线性折算
func scoreYearsOfExperience(record types.ProfileRecord, c Criterion) float64 {
	fullYears := floatParam(c.Params, paramFullScoreYears, 10)
	if fullYears <= 0 {
		fullYears = 10
	}
	years := float64(record.TotalExperience.TotalMonths) / 12
	return years / fullYears
}

// scoreSkillCoverage 技能覆盖打分：目标技能的命中比例，大小写不敏感
func scoreSkillCoverage(record types.ProfileRecord, c Criterion) float64 {
	targets := stringsParam(c.Params, paramTargetSkills)
	if len(targets) == 0 {
		return 0
	}

	extracted := make(map[string]bool, len(record.Skills))
	for _, s := range record.Skills {
		extracted[strings.ToLower(s.Term)] = true
	}

	hits := 0
	for _, target := range targets {
		if extracted[strings.ToLower(target)] {
			hits++
		}
	}
	return float64(hits) / float64(len(targets))
}

// educationLevels 学历关键词到分值的阶梯，高学历在前
var educationLevels = []struct {
	keyword string
	score   float64
}{
	{"ph.d", 1.0}, {"phd", 1.0}, {"doctorate", 1.0},
	{"master", 0.85}, {"m.sc", 0.85}, {"msc", 0.85}, {"mba", 0.85}, {"m.tech", 0.85},
	{"bachelor", 0.7}, {"b.sc", 0.7}, {"bsc", 0.7}, {"b.tech", 0.7}, {"bba", 0.7},
	{"associate", 0.5}, {"diploma", 0.5},
}

// scoreEducationLevel 学历打分：取全部教育经历里的最高学历档位
// 有学历但不入档的给保底分
func scoreEducationLevel(record types.ProfileRecord, _ Criterion) float64 {
	best := 0.0
	for _, entry := range record.Education {
		degree := strings.ToLower(entry.Degree)
		if degree == "" {
			continue
		}
		matched := 0.3
		for _, level := range educationLevels {
			if strings.Contains(degree, level.keyword) {
				matched = level.score
				break
			}
		}
		best = math.Max(best, matched)
	}
	return best
}

// scoreContactCompleteness 联系方式完整度：已裁决字段的占比
func scoreContactCompleteness(record types.ProfileRecord, _ Criterion) float64 {
	fields := []types.FieldValue{
		record.Contact.Name, record.Contact.Email, record.Contact.Phone,
		record.Contact.Location, record.Contact.Website, record.Contact.LinkedIn,
	}
	present := 0
	for _, f := range fields {
		if f.Resolved && f.Value != "" {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
