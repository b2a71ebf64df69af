package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/types"
)

var mysqlTracer = otel.Tracer("resume-analyzer/storage/mysql")

// gormSpanKey GORM语句上下文里保存span的键
type gormSpanKeyType struct{}

var gormSpanKey gormSpanKeyType

// GormTracingPlugin GORM插件，为数据库操作创建追踪span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	return cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after())
}

// before 在GORM操作前开启span
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			))

		db.Statement.Context = context.WithValue(newCtx, gormSpanKey, span)
	}
}

// after 在GORM操作后结束span并记录错误
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}

// MySQL 档案持久化层
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = gormlogger.Silent
	case 2:
		logLevel = gormlogger.Error
	case 3:
		logLevel = gormlogger.Warn
	default:
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}
	return m, nil
}

// autoMigrateSchema 自动迁移全部表结构
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	return silentDB.AutoMigrate(
		&models.Document{},
		&models.Profile{},
		&models.CandidateSpanRow{},
		&models.ConflictNoteRow{},
		&models.RatingRow{},
		&models.ManualEditRow{},
	)
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateDocument 登记一篇新文档
func (m *MySQL) CreateDocument(ctx context.Context, doc *models.Document) error {
	return m.db.WithContext(ctx).Create(doc).Error
}

// UpdateDocumentStatus 更新文档处理状态，失败时附带原因
func (m *MySQL) UpdateDocumentStatus(ctx context.Context, documentUUID, status, reason string) error {
	updates := map[string]interface{}{"processing_status": status}
	if reason != "" {
		updates["failure_reason"] = reason
	}
	return m.db.WithContext(ctx).Model(&models.Document{}).
		Where("document_uuid = ?", documentUUID).
		Updates(updates).Error
}

// GetDocument 查询文档记录
func (m *MySQL) GetDocument(ctx context.Context, documentUUID string) (*models.Document, error) {
	var doc models.Document
	err := m.db.WithContext(ctx).First(&doc, "document_uuid = ?", documentUUID).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveProfile 保存合成档案，同一档案重复保存时覆盖
func (m *MySQL) SaveProfile(ctx context.Context, documentUUID string, record types.ProfileRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化档案失败: %w", err)
	}

	row := &models.Profile{
		ProfileUUID:           record.ProfileID,
		DocumentUUID:          documentUUID,
		CandidateName:         record.Contact.Name.Value,
		PrimaryEmail:          record.Contact.Email.Value,
		PrimaryPhone:          record.Contact.Phone.Value,
		TotalExperienceMonths: record.TotalExperience.TotalMonths,
		NeedsReview:           record.NeedsReview,
		ProfileJSON:           datatypes.JSON(payload),
	}

	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"candidate_name", "primary_email", "primary_phone",
			"total_experience_months", "needs_review", "profile_json", "updated_at",
		}),
	}).Create(row).Error
}

// GetProfile 按UUID取回档案
func (m *MySQL) GetProfile(ctx context.Context, profileUUID string) (types.ProfileRecord, error) {
	var row models.Profile
	if err := m.db.WithContext(ctx).First(&row, "profile_uuid = ?", profileUUID).Error; err != nil {
		return types.ProfileRecord{}, err
	}

	var record types.ProfileRecord
	if err := json.Unmarshal(row.ProfileJSON, &record); err != nil {
		return types.ProfileRecord{}, fmt.Errorf("反序列化档案失败: %w", err)
	}
	return record, nil
}

// ListProfilesNeedingReview 列出待人工复核的档案UUID，按更新时间倒序
func (m *MySQL) ListProfilesNeedingReview(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	var uuids []string
	err := m.db.WithContext(ctx).Model(&models.Profile{}).
		Where("needs_review = ?", true).
		Order("updated_at DESC").
		Limit(limit).
		Pluck("profile_uuid", &uuids).Error
	return uuids, err
}

// SaveCandidateSpans 批量落库候选池，供冲突记录按ID回查
func (m *MySQL) SaveCandidateSpans(ctx context.Context, documentUUID string, spans []types.CandidateSpan) error {
	if len(spans) == 0 {
		return nil
	}
	rows := make([]models.CandidateSpanRow, len(spans))
	for i, s := range spans {
		rows[i] = models.CandidateSpanRow{
			SpanID:        s.ID,
			DocumentUUID:  documentUUID,
			Field:         string(s.Field),
			Value:         s.Value,
			RawText:       s.RawText,
			SourceSection: s.SourceSection,
			SectionIndex:  s.SectionIndex,
			Confidence:    s.Confidence,
			ExtractorID:   s.ExtractorID,
		}
	}
	return m.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// SaveConflictNotes 落库冲突审计记录
func (m *MySQL) SaveConflictNotes(ctx context.Context, profileUUID string, notes []types.ConflictNote) error {
	if len(notes) == 0 {
		return nil
	}
	rows := make([]models.ConflictNoteRow, len(notes))
	for i, n := range notes {
		candidates, err := json.Marshal(n.Candidates)
		if err != nil {
			return fmt.Errorf("序列化冲突候选失败: %w", err)
		}
		rows[i] = models.ConflictNoteRow{
			ProfileUUID:    profileUUID,
			Field:          string(n.Field),
			Resolution:     string(n.Resolution),
			ChosenSpanID:   n.ChosenID,
			SupersededBy:   n.SupersededBy,
			CandidatesJSON: datatypes.JSON(candidates),
		}
	}
	return m.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// SaveRating 落库评分快照，绑定档案的更新时间版本
func (m *MySQL) SaveRating(ctx context.Context, profileUUID string, profileUpdatedAt time.Time, rating types.Rating) error {
	subScores, err := json.Marshal(rating.SubScores)
	if err != nil {
		return fmt.Errorf("序列化子分失败: %w", err)
	}
	explanation, err := json.Marshal(rating.Explanation)
	if err != nil {
		return fmt.Errorf("序列化评分解释失败: %w", err)
	}
	return m.db.WithContext(ctx).Create(&models.RatingRow{
		ProfileUUID:      profileUUID,
		ProfileUpdatedAt: profileUpdatedAt,
		Aggregate:        rating.Aggregate,
		SubScoresJSON:    datatypes.JSON(subScores),
		ExplanationJSON:  datatypes.JSON(explanation),
	}).Error
}

// RecordManualEdit 记录一次人工编辑
func (m *MySQL) RecordManualEdit(ctx context.Context, edit *models.ManualEditRow) error {
	return m.db.WithContext(ctx).Create(edit).Error
}
