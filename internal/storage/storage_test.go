package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/config"
)

// TestObjectNames 验证对象存储路径的布局约定
func TestObjectNames(t *testing.T) {
	assert.Equal(t, "uploads/doc-1.pdf", originalObjectName("doc-1"))
	assert.Equal(t, "profiles/prof-1.json", profileObjectName("prof-1"))
}

// TestMD5ExpiryDefault 验证去重记录过期时间的缺省回退
func TestMD5ExpiryDefault(t *testing.T) {
	r := &Redis{cfg: &config.RedisConfig{}}
	assert.Equal(t, 365*24*time.Hour, r.md5Expiry(), "未配置时默认一年")

	r = &Redis{cfg: &config.RedisConfig{MD5RecordExpireDays: 30}}
	assert.Equal(t, 30*24*time.Hour, r.md5Expiry())
}

// TestMessageWireFormat 验证消息体的JSON字段名，消费方依赖这些键名
func TestMessageWireFormat(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uploaded := DocumentUploadedMessage{
		DocumentUUID:     "d-1",
		ObjectPathOSS:    "uploads/d-1.pdf",
		OriginalFilename: "张三简历.pdf",
		RawFileMD5:       "0123456789abcdef0123456789abcdef",
		SubmittedAt:      submitted,
	}
	data, err := json.Marshal(uploaded)
	require.NoError(t, err)

	var keys map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Contains(t, keys, "document_uuid")
	assert.Contains(t, keys, "object_path_oss")
	assert.Contains(t, keys, "raw_file_md5")

	// 未评分时aggregate键整个省略，而不是输出null
	ready := ProfileReadyMessage{DocumentUUID: "d-1", ProfileUUID: "p-1"}
	data, err = json.Marshal(ready)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "aggregate")

	score := 0.75
	ready.Aggregate = &score
	data, err = json.Marshal(ready)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"aggregate":0.75`)
}

// TestRedisRegisterFileMD5 集成测试，需要可用的Redis实例
// 通过环境变量 RESUME_ANALYZER_TEST_REDIS 指定地址，未设置时跳过
func TestRedisRegisterFileMD5(t *testing.T) {
	addr := os.Getenv("RESUME_ANALYZER_TEST_REDIS")
	if addr == "" {
		t.Skip("未设置 RESUME_ANALYZER_TEST_REDIS，跳过Redis集成测试")
	}

	r, err := NewRedisAdapter(&config.RedisConfig{
		Address:             addr,
		DialTimeoutSeconds:  3,
		ReadTimeoutSeconds:  3,
		WriteTimeoutSeconds: 3,
		MD5RecordExpireDays: 1,
	})
	require.NoError(t, err, "应该成功连接Redis")
	defer r.Close()

	ctx := context.Background()
	md5 := uuid.NewString()[:32]
	firstUUID := uuid.NewString()

	// 首次登记：不算重复
	duplicate, existing, err := r.RegisterFileMD5(ctx, md5, firstUUID)
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Empty(t, existing)

	// 再次登记同一MD5：返回首次的文档UUID
	duplicate, existing, err = r.RegisterFileMD5(ctx, md5, uuid.NewString())
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Equal(t, firstUUID, existing)

	// 直接查询也应命中
	found, err := r.LookupFileMD5(ctx, md5)
	require.NoError(t, err)
	assert.Equal(t, firstUUID, found)

	// 空MD5是调用方错误
	_, _, err = r.RegisterFileMD5(ctx, "", firstUUID)
	assert.Error(t, err)
}
