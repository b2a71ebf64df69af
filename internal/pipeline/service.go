package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/loader"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/rating"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/storage/models"
	"resume-analyzer-go/internal/synthesizer"
	"resume-analyzer-go/internal/tracing"
)

// DocumentService 文档处理服务门面
// 消费上传事件，驱动流水线并把产物写入各存储组件
type DocumentService interface {
	// ProcessUploadedDocument 处理一条文档上传消息
	// 返回错误表示本次处理失败，由消息队列决定是否重试
	ProcessUploadedDocument(ctx context.Context, msg storage.DocumentUploadedMessage) error
}

// documentServiceImpl DocumentService的默认实现
type documentServiceImpl struct {
	pipeline      *Pipeline
	storage       *storage.Storage
	cfg           *config.Config
	loaderVersion string
	rubricVersion string
	log           zerolog.Logger
	tracer        trace.Tracer
}

// NewDocumentService 根据配置组装流水线和存储依赖
// 未配置评分细则时跳过评分阶段，其余阶段不受影响
func NewDocumentService(ctx context.Context, cfg *config.Config, st *storage.Storage) (DocumentService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if st == nil {
		return nil, fmt.Errorf("存储管理器不能为空")
	}
	if st.MinIO == nil {
		return nil, fmt.Errorf("文档处理服务需要MinIO组件")
	}

	docLoader, err := buildLoader(ctx, cfg.ActiveLoaderVersion)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLoader(docLoader),
		WithSynthesizer(synthesizer.NewSynthesizer(
			synthesizer.WithThreshold(cfg.Pipeline.ResolutionThreshold))),
	}
	if cfg.Pipeline.ExtractorWorkers > 0 {
		opts = append(opts, WithWorkers(cfg.Pipeline.ExtractorWorkers))
	}

	rubricVersion := ""
	if cfg.RubricPath != "" {
		rubric, err := rating.LoadRubric(cfg.RubricPath)
		if err != nil {
			return nil, fmt.Errorf("加载评分细则失败: %w", err)
		}
		rubricVersion = rubric.Version
		if rubricVersion == "" {
			rubricVersion = "v1"
		}
		opts = append(opts, WithRubric(rubric))
	}

	return &documentServiceImpl{
		pipeline:      NewPipeline(opts...),
		storage:       st,
		cfg:           cfg,
		loaderVersion: docLoader.Version(),
		rubricVersion: rubricVersion,
		log:           logger.WithComponent("document_service"),
		tracer:        otel.Tracer(tracerName),
	}, nil
}

// buildLoader 按配置的版本标识选择加载器
func buildLoader(ctx context.Context, version string) (loader.DocumentLoader, error) {
	switch version {
	case "", "layout-v1":
		return loader.NewLayoutPDFLoader(), nil
	case "eino-plaintext-v1":
		return loader.NewEinoPDFLoader(ctx)
	default:
		return nil, fmt.Errorf("未知的加载器版本: %s", version)
	}
}

// ProcessUploadedDocument 处理一条文档上传消息
// 核心路径：MD5去重 → 拉取原始PDF → 流水线处理 → 档案落库 → 状态流转 → 发布就绪事件
// 旁路写入（候选池、冲突记录、评分缓存、档案JSON快照）失败只记警告不中断
func (s *documentServiceImpl) ProcessUploadedDocument(ctx context.Context, msg storage.DocumentUploadedMessage) error {
	ctx, span := s.tracer.Start(ctx, "service.process_document",
		trace.WithAttributes(attribute.String("document.uuid", msg.DocumentUUID)))
	defer span.End()

	log := s.log.With().Str("document_uuid", msg.DocumentUUID).Logger()

	s.ensureDocumentRecord(ctx, msg, log)

	// 相同内容的文件只处理一次，重复上传直接关联首次的处理结果
	if duplicate, firstUUID := s.checkDuplicate(ctx, msg, log); duplicate {
		span.SetAttributes(attribute.String("document.duplicate_of", firstUUID))
		if err := s.storage.MySQL.UpdateDocumentStatus(ctx, msg.DocumentUUID, models.StatusProcessed,
			fmt.Sprintf("重复文档，首次处理记录: %s", firstUUID)); err != nil {
			log.Warn().Err(err).Msg("更新重复文档状态失败")
		}
		log.Info().Str("first_document_uuid", firstUUID).Msg("跳过重复文档")
		return nil
	}

	if err := s.storage.MySQL.UpdateDocumentStatus(ctx, msg.DocumentUUID, models.StatusProcessing, ""); err != nil {
		log.Warn().Err(err).Msg("更新文档状态为处理中失败")
	}

	data, err := s.storage.MinIO.GetOriginalDocument(ctx, msg.ObjectPathOSS)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		s.markFailed(ctx, msg.DocumentUUID, models.StatusFailed, err, log)
		return fmt.Errorf("拉取原始文档失败: %w", err)
	}

	result, err := s.pipeline.Process(ctx, msg.DocumentUUID, data)
	if err != nil {
		if errors.Is(err, loader.ErrUnreadableDocument) {
			s.markFailed(ctx, msg.DocumentUUID, models.StatusUnreadable, err, log)
		} else {
			s.markFailed(ctx, msg.DocumentUUID, models.StatusFailed, err, log)
		}
		return err
	}

	if err := s.storage.MySQL.SaveProfile(ctx, msg.DocumentUUID, result.Profile); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		s.markFailed(ctx, msg.DocumentUUID, models.StatusFailed, err, log)
		return fmt.Errorf("保存档案失败: %w", err)
	}

	s.persistSideArtifacts(ctx, msg.DocumentUUID, result, log)

	if err := s.storage.MySQL.UpdateDocumentStatus(ctx, msg.DocumentUUID, models.StatusProcessed, ""); err != nil {
		log.Warn().Err(err).Msg("更新文档状态为已处理失败")
	}

	s.publishProfileReady(ctx, msg.DocumentUUID, result, log)

	log.Info().
		Str("profile_uuid", result.Profile.ProfileID).
		Bool("needs_review", result.Profile.NeedsReview).
		Msg("文档处理服务完成")
	return nil
}

// ensureDocumentRecord 登记文档记录，已存在时忽略
func (s *documentServiceImpl) ensureDocumentRecord(ctx context.Context, msg storage.DocumentUploadedMessage, log zerolog.Logger) {
	if s.storage.MySQL == nil {
		return
	}
	doc := &models.Document{
		DocumentUUID:        msg.DocumentUUID,
		OriginalFilename:    msg.OriginalFilename,
		OriginalFilePathOSS: msg.ObjectPathOSS,
		RawFileMD5:          msg.RawFileMD5,
		LoaderVersion:       s.loaderVersion,
		ProcessingStatus:    models.StatusPendingParsing,
	}
	if err := s.storage.MySQL.CreateDocument(ctx, doc); err != nil {
		// 消息重投时记录已存在，不视为失败
		log.Debug().Err(err).Msg("登记文档记录失败")
	}
}

// checkDuplicate 通过Redis登记文件MD5判断是否重复上传
func (s *documentServiceImpl) checkDuplicate(ctx context.Context, msg storage.DocumentUploadedMessage, log zerolog.Logger) (bool, string) {
	if s.storage.Redis == nil || msg.RawFileMD5 == "" {
		return false, ""
	}
	duplicate, firstUUID, err := s.storage.Redis.RegisterFileMD5(ctx, msg.RawFileMD5, msg.DocumentUUID)
	if err != nil {
		log.Warn().Err(err).Msg("登记文件MD5失败，按非重复继续处理")
		return false, ""
	}
	return duplicate, firstUUID
}

// markFailed 标记文档处理失败并记录原因
func (s *documentServiceImpl) markFailed(ctx context.Context, documentUUID, status string, cause error, log zerolog.Logger) {
	if s.storage.MySQL == nil {
		return
	}
	if err := s.storage.MySQL.UpdateDocumentStatus(ctx, documentUUID, status, cause.Error()); err != nil {
		log.Warn().Err(err).Str("status", status).Msg("更新文档失败状态出错")
	}
}

// persistSideArtifacts 写入审计与缓存类旁路产物，失败只警告
func (s *documentServiceImpl) persistSideArtifacts(ctx context.Context, documentUUID string, result *Result, log zerolog.Logger) {
	if s.storage.MySQL != nil {
		if err := s.storage.MySQL.SaveCandidateSpans(ctx, documentUUID, result.Candidates); err != nil {
			log.Warn().Err(err).Msg("落库候选池失败")
		}
		if err := s.storage.MySQL.SaveConflictNotes(ctx, result.Profile.ProfileID, result.Profile.UnresolvedConflicts); err != nil {
			log.Warn().Err(err).Msg("落库冲突记录失败")
		}
		if result.Rating != nil {
			if err := s.storage.MySQL.SaveRating(ctx, result.Profile.ProfileID, time.Now(), *result.Rating); err != nil {
				log.Warn().Err(err).Msg("落库评分失败")
			}
		}
	}

	if s.storage.Redis != nil && result.Rating != nil {
		if err := s.storage.Redis.CacheRating(ctx, result.Profile.ProfileID, s.rubricVersion, *result.Rating); err != nil {
			log.Warn().Err(err).Msg("缓存评分失败")
		}
	}

	if _, err := s.storage.MinIO.UploadProfileJSON(ctx, result.Profile); err != nil {
		log.Warn().Err(err).Msg("上传档案JSON快照失败")
	}
}

// publishProfileReady 发布档案就绪事件，下游展示层据此拉取档案
func (s *documentServiceImpl) publishProfileReady(ctx context.Context, documentUUID string, result *Result, log zerolog.Logger) {
	if s.storage.RabbitMQ == nil {
		return
	}
	ready := storage.ProfileReadyMessage{
		DocumentUUID: documentUUID,
		ProfileUUID:  result.Profile.ProfileID,
		NeedsReview:  result.Profile.NeedsReview,
		CompletedAt:  time.Now(),
	}
	if result.Rating != nil {
		ready.Aggregate = &result.Rating.Aggregate
	}
	if err := s.storage.RabbitMQ.PublishProfileReady(ctx, ready); err != nil {
		log.Warn().Err(err).Msg("发布档案就绪事件失败")
	}
}
