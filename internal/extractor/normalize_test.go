package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeDateToken 验证日期记号归一化
func TestNormalizeDateToken(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		isEnd bool
		want  string
	}{
		{"月年", "Mar 2020", false, "2020-03"},
		{"全称月份", "January 2019", false, "2019-01"},
		{"仅年份起始取1月", "2016", false, "2016-01"},
		{"仅年份结束取12月", "2020", true, "2020-12"},
		{"进行中", "Present", true, "PRESENT"},
		{"进行中变体", "current", true, "PRESENT"},
		{"无法解析", "随便写的", false, ""},
		{"空串", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDateToken(tt.raw, tt.isEnd))
		})
	}
}

// TestDateOrdinal 验证月序号的全序关系
func TestDateOrdinal(t *testing.T) {
	assert.Equal(t, -1, DateOrdinal(""))
	assert.Less(t, DateOrdinal("2019-06"), DateOrdinal("2020-01"))
	assert.Less(t, DateOrdinal("2020-01"), DateOrdinal("2020-02"))
	// PRESENT排在一切具体日期之后
	assert.Greater(t, DateOrdinal(PresentValue), DateOrdinal("2099-12"))
}

// TestNormalizePhone 验证电话归一化
func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+8613800138000", NormalizePhone("+86 138-0013-8000"))
	assert.Equal(t, "5551234567", NormalizePhone("(555) 123-4567"))
	assert.Equal(t, "15551234567", NormalizePhone("1.555.123.4567"))
}

// TestNormalizeOrg 验证机构名的去重音与空白折叠
func TestNormalizeOrg(t *testing.T) {
	assert.Equal(t, "Ecole Polytechnique", NormalizeOrg("École  Polytechnique"))
	assert.Equal(t, "Universidad de Sao Paulo", NormalizeOrg(" Universidad de São Paulo "))
	assert.Equal(t, "Acme Corp", NormalizeOrg("Acme Corp"))
}

// TestNormalizeEmail 验证邮箱归一化
func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "john.doe@example.com", NormalizeEmail(" John.Doe@Example.COM "))
}
