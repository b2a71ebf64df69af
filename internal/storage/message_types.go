package storage

import "time"

// DocumentUploadedMessage 文档上传事件
// 由上传层发布到 document.uploaded 路由，处理端消费后跑完整流水线
type DocumentUploadedMessage struct {
	DocumentUUID     string    `json:"document_uuid"`
	ObjectPathOSS    string    `json:"object_path_oss"` // 原始PDF在对象存储里的路径
	OriginalFilename string    `json:"original_filename"`
	RawFileMD5       string    `json:"raw_file_md5"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// ProfileReadyMessage 档案就绪事件
// 流水线处理完成后发布到 profile.ready 路由，供下游展示层消费
type ProfileReadyMessage struct {
	DocumentUUID string    `json:"document_uuid"`
	ProfileUUID  string    `json:"profile_uuid"`
	NeedsReview  bool      `json:"needs_review"`
	Aggregate    *float64  `json:"aggregate,omitempty"` // 未配置评分细则时为空
	CompletedAt  time.Time `json:"completed_at"`
}
