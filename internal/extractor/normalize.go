package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PresentValue 进行中日期的规范值
const PresentValue = "PRESENT"

// monthToNum 英文月份缩写到月号的映射
var monthToNum = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	monthYearPattern = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+((?:19|20)\d{2})\b`)
	yearPattern      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	presentPattern   = regexp.MustCompile(`(?i)\b(present|current|now|ongoing)\b`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// deaccent 去重音转换器：NFD分解后去掉组合记号，再合成为NFC
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeEmail 邮箱归一化：去空白并转小写
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone 电话归一化：只保留数字和前导加号
func NormalizePhone(raw string) string {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r == '+' && i == 0 {
			sb.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NormalizeOrg 机构名归一化：Unicode规范化、去重音、折叠空白
func NormalizeOrg(raw string) string {
	out, _, err := transform.String(deaccent, strings.TrimSpace(raw))
	if err != nil {
		out = strings.TrimSpace(raw) // 转换失败时保留原文
	}
	return whitespaceRun.ReplaceAllString(out, " ")
}

// NormalizeDateToken 把单个日期记号归一化为 YYYY-MM 或 PRESENT
// isEnd 指示该记号是否处于区间结束位置：仅有年份时，
// 起始取1月、结束取12月（与区间长度估算保持一致）
// 无法解析时返回空串
func NormalizeDateToken(raw string, isEnd bool) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}

	if presentPattern.MatchString(token) {
		return PresentValue
	}

	if m := monthYearPattern.FindStringSubmatch(token); m != nil {
		month := monthToNum[strings.ToLower(m[1][:3])]
		return fmt.Sprintf("%s-%02d", m[2], month)
	}

	if m := yearPattern.FindStringSubmatch(token); m != nil {
		if isEnd {
			return m[1] + "-12"
		}
		return m[1] + "-01"
	}

	return ""
}

// DateOrdinal 把规范日期转换为可比较的月序号
// PRESENT映射为最大值，空串返回-1表示缺失
func DateOrdinal(normalized string) int {
	if normalized == "" {
		return -1
	}
	if normalized == PresentValue {
		return 1 << 30
	}
	var year, month int
	if _, err := fmt.Sscanf(normalized, "%d-%d", &year, &month); err != nil {
		return -1
	}
	return year*12 + month - 1
}

// collapseWhitespace 折叠连续空白为单个空格
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
