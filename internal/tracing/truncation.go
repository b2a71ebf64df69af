package tracing

import (
	"strings"
)

const (
	// DefaultMaxLength 默认最大属性长度
	DefaultMaxLength = 200

	// MaxSQLLength SQL语句最大长度
	MaxSQLLength = 500

	// MaxRedisLength Redis键值最大长度
	MaxRedisLength = 100

	// MaxResumeLength 简历文本内容最大长度
	MaxResumeLength = 150
)

// maskPIILookup 需要掩码处理的关键字映射
// 候选人档案里几乎处处是个人信息，span属性必须先过这一层
var maskPIILookup = map[string]bool{
	"email":    true,
	"phone":    true,
	"name":     true,
	"address":  true,
	"location": true,
	"linkedin": true,
	"password": true,
	"secret":   true,
	"token":    true,
	"姓名":       true,
	"邮箱":       true,
	"电话":       true,
	"地址":       true,
}

// SafeAttributeValue 确保属性值安全，不包含敏感信息
// 1. 如果属性名命中敏感关键字，返回掩码处理后的值
// 2. 如果长度超过maxLength，则截断并添加省略号
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for keyword := range maskPIILookup {
		if strings.Contains(lowerName, keyword) {
			return maskValue(value)
		}
	}

	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if len(value) > maxLength {
		return value[:maxLength] + "..."
	}
	return value
}

// maskValue 保留首尾各一个字符，中间以星号代替
func maskValue(value string) string {
	runes := []rune(value)
	if len(runes) <= 2 {
		return "**"
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}
