package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// MinIO 对象存储：原始PDF和合成档案JSON
type MinIO struct {
	client          *minio.Client
	cfg             *config.MinIOConfig
	originalsBucket string
	profilesBucket  string
	log             zerolog.Logger
}

// NewMinIO 创建MinIO客户端并准备存储桶
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalsBucket := cfg.OriginalsBucket
	if originalsBucket == "" {
		originalsBucket = "resume-originals"
	}
	profilesBucket := cfg.ProfilesBucket
	if profilesBucket == "" {
		profilesBucket = "resume-profiles"
	}

	m := &MinIO{
		client:          client,
		cfg:             cfg,
		originalsBucket: originalsBucket,
		profilesBucket:  profilesBucket,
		log:             logger.WithComponent("minio"),
	}

	for _, bucket := range []string{originalsBucket, profilesBucket} {
		if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
			return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", bucket, err)
		}
	}

	// 原始文件按配置设定过期，档案JSON不过期
	if cfg.OriginalFileExpireDays > 0 {
		if err := m.setupLifecycleRules(context.Background()); err != nil {
			m.log.Warn().Err(err).Msg("设置对象生命周期规则失败")
		}
	}

	m.log.Debug().Str("endpoint", cfg.Endpoint).Msg("MinIO客户端初始化完成")
	return m, nil
}

// ensureBucketExists 存储桶不存在时创建
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	ctx := context.Background()
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.log.Info().Str("bucket", bucketName).Msg("存储桶创建成功")
	return nil
}

// setupLifecycleRules 原始文件按天数自动过期
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     "expire-original-documents",
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(m.cfg.OriginalFileExpireDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, m.originalsBucket, lc)
}

// originalObjectName 原始文档的对象路径
func originalObjectName(documentUUID string) string {
	return fmt.Sprintf("uploads/%s.pdf", documentUUID)
}

// profileObjectName 档案JSON的对象路径
func profileObjectName(profileUUID string) string {
	return fmt.Sprintf("profiles/%s.json", profileUUID)
}

// UploadOriginalDocument 上传原始PDF，返回对象路径
func (m *MinIO) UploadOriginalDocument(ctx context.Context, documentUUID string, data []byte) (string, error) {
	objectName := originalObjectName(documentUUID)
	_, err := m.client.PutObject(ctx, m.originalsBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("上传原始文档失败: %w", err)
	}
	return objectName, nil
}

// GetOriginalDocument 下载原始PDF
func (m *MinIO) GetOriginalDocument(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.originalsBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取原始文档失败: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取原始文档失败: %w", err)
	}
	return data, nil
}

// UploadProfileJSON 上传合成档案的JSON快照
func (m *MinIO) UploadProfileJSON(ctx context.Context, record types.ProfileRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化档案失败: %w", err)
	}

	objectName := profileObjectName(record.ProfileID)
	_, err = m.client.PutObject(ctx, m.profilesBucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("上传档案JSON失败: %w", err)
	}
	return objectName, nil
}

// GetProfileJSON 下载档案JSON快照
func (m *MinIO) GetProfileJSON(ctx context.Context, profileUUID string) (types.ProfileRecord, error) {
	obj, err := m.client.GetObject(ctx, m.profilesBucket, profileObjectName(profileUUID), minio.GetObjectOptions{})
	if err != nil {
		return types.ProfileRecord{}, fmt.Errorf("获取档案JSON失败: %w", err)
	}
	defer obj.Close()

	var record types.ProfileRecord
	if err := json.NewDecoder(obj).Decode(&record); err != nil {
		return types.ProfileRecord{}, fmt.Errorf("解析档案JSON失败: %w", err)
	}
	return record, nil
}

// DeleteOriginalDocument 删除原始PDF
func (m *MinIO) DeleteOriginalDocument(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.originalsBucket, objectName, minio.RemoveObjectOptions{})
}
