package models

import (
	"time"

	"gorm.io/datatypes"
)

// 文档处理状态
const (
	StatusPendingParsing = "PENDING_PARSING"
	StatusProcessing     = "PROCESSING"
	StatusProcessed      = "PROCESSED"
	StatusUnreadable     = "UNREADABLE"
	StatusFailed         = "FAILED"
)

// Document 原始文档提交表
type Document struct {
	DocumentUUID        string    `gorm:"type:char(36);primaryKey"`
	OriginalFilename    string    `gorm:"type:varchar(255)"`
	OriginalFilePathOSS string    `gorm:"type:varchar(1024)"`
	RawFileMD5          string    `gorm:"type:char(32);index:idx_documents_raw_file_md5"`
	LoaderVersion       string    `gorm:"type:varchar(50)"`
	ProcessingStatus    string    `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_documents_processing_status"`
	FailureReason       string    `gorm:"type:text"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

// Profile 合成档案表
// 档案全文以JSON存储，常用检索字段冗余成列
type Profile struct {
	ProfileUUID           string         `gorm:"type:char(36);primaryKey"`
	DocumentUUID          string         `gorm:"type:char(36);index:idx_profiles_document_uuid"`
	CandidateName         string         `gorm:"type:varchar(255)"`
	PrimaryEmail          string         `gorm:"type:varchar(255);index:idx_profiles_primary_email"`
	PrimaryPhone          string         `gorm:"type:varchar(50)"`
	TotalExperienceMonths int            `gorm:"type:int"`
	NeedsReview           bool           `gorm:"index:idx_profiles_needs_review"`
	ProfileJSON           datatypes.JSON `gorm:"type:json"`
	CreatedAt             time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt             time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	Document *Document `gorm:"foreignKey:DocumentUUID;references:DocumentUUID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Profile) TableName() string {
	return "profiles"
}

// CandidateSpanRow 候选池审计表
// 冲突记录和评分解释按SpanID弱引用这张表
type CandidateSpanRow struct {
	SpanID        string    `gorm:"type:char(36);primaryKey"`
	DocumentUUID  string    `gorm:"type:char(36);index:idx_candidate_spans_document_uuid"`
	Field         string    `gorm:"type:varchar(30);index:idx_candidate_spans_field"`
	Value         string    `gorm:"type:varchar(1024)"`
	RawText       string    `gorm:"type:text"`
	SourceSection string    `gorm:"type:varchar(50)"`
	SectionIndex  int       `gorm:"type:int"`
	Confidence    float64   `gorm:"type:double"`
	ExtractorID   string    `gorm:"type:varchar(50)"`
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (CandidateSpanRow) TableName() string {
	return "candidate_spans"
}

// ConflictNoteRow 字段冲突审计表，只追加不删除
type ConflictNoteRow struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement"`
	ProfileUUID    string         `gorm:"type:char(36);index:idx_conflict_notes_profile_uuid"`
	Field          string         `gorm:"type:varchar(30)"`
	Resolution     string         `gorm:"type:varchar(20)"`
	ChosenSpanID   string         `gorm:"type:char(36)"`
	SupersededBy   string         `gorm:"type:varchar(50)"`
	CandidatesJSON datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ConflictNoteRow) TableName() string {
	return "conflict_notes"
}

// RatingRow 评分快照表
// 评分随档案版本派生，每条记录绑定计算时的档案更新时间
type RatingRow struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement"`
	ProfileUUID      string         `gorm:"type:char(36);index:idx_ratings_profile_uuid"`
	ProfileUpdatedAt time.Time      `gorm:"type:datetime(6)"`
	Aggregate        float64        `gorm:"type:double"`
	SubScoresJSON    datatypes.JSON `gorm:"type:json"`
	ExplanationJSON  datatypes.JSON `gorm:"type:json"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (RatingRow) TableName() string {
	return "ratings"
}

// ManualEditRow 人工编辑审计表
type ManualEditRow struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ProfileUUID string    `gorm:"type:char(36);index:idx_manual_edits_profile_uuid"`
	Field       string    `gorm:"type:varchar(30)"`
	OldValue    string    `gorm:"type:varchar(1024)"`
	NewValue    string    `gorm:"type:varchar(1024)"`
	EditedBy    string    `gorm:"type:varchar(100)"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ManualEditRow) TableName() string {
	return "manual_edits"
}
