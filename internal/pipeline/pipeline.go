package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/loader"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/rating"
	"resume-analyzer-go/internal/segmenter"
	"resume-analyzer-go/internal/synthesizer"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

const tracerName = "resume-analyzer/pipeline"

// defaultExtractorWorkers 提取阶段的默认并发度
const defaultExtractorWorkers = 4

// Result 单篇文档的完整处理产物
type Result struct {
	DocumentUUID string
	Blocks       []types.TextBlock
	Sections     []types.Section
	Candidates   []types.CandidateSpan // 审计用候选池，合成后仍保留
	Profile      types.ProfileRecord
	Rating       *types.Rating // 未配置评分细则时为nil
}

// Pipeline 文档处理流水线：加载 → 切分 → 并发提取 → 合成 → 评分
// 各篇文档相互独立，同一个Pipeline可被多goroutine并发使用
type Pipeline struct {
	loader      loader.DocumentLoader
	segmenter   *segmenter.Segmenter
	registry    *extractor.Registry
	synthesizer *synthesizer.Synthesizer
	engine      *rating.Engine
	rubric      *rating.Rubric
	workers     int
	log         zerolog.Logger
	tracer      trace.Tracer
}

// Option 流水线配置选项
type Option func(*Pipeline)

// WithLoader 替换文档加载器
func WithLoader(l loader.DocumentLoader) Option {
	return func(p *Pipeline) {
		p.loader = l
	}
}

// WithSegmenter 替换切分器
func WithSegmenter(s *segmenter.Segmenter) Option {
	return func(p *Pipeline) {
		p.segmenter = s
	}
}

// WithRegistry 替换提取器注册表
func WithRegistry(r *extractor.Registry) Option {
	return func(p *Pipeline) {
		p.registry = r
	}
}

// WithSynthesizer 替换合成器
func WithSynthesizer(s *synthesizer.Synthesizer) Option {
	return func(p *Pipeline) {
		p.synthesizer = s
	}
}

// WithRubric 配置评分细则，配置后每篇文档处理完附带评分
func WithRubric(rubric *rating.Rubric) Option {
	return func(p *Pipeline) {
		p.rubric = rubric
	}
}

// WithWorkers 设置提取阶段的并发度
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPipelineLogger 设置日志器
func WithPipelineLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline 创建流水线，未覆盖的组件用默认实现
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:      loader.NewLayoutPDFLoader(),
		segmenter:   segmenter.New(),
		registry:    extractor.DefaultRegistry(),
		synthesizer: synthesizer.NewSynthesizer(),
		engine:      rating.NewEngine(),
		workers:     defaultExtractorWorkers,
		log:         logger.WithComponent("pipeline"),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 处理一篇文档
// 加载失败使整篇文档失败；其余阶段是输入上的总函数，
// 文档可读就必然产出档案，低质量体现为未裁决字段而不是错误
func (p *Pipeline) Process(ctx context.Context, documentUUID string, data []byte) (*Result, error) {
	if documentUUID == "" {
		documentUUID = uuid.NewString()
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("document.uuid", documentUUID),
			attribute.Int("document.bytes", len(data)),
		))
	defer span.End()

	log := p.log.With().Str("document_uuid", documentUUID).Logger()

	blocks, err := p.loadStage(ctx, documentUUID, data)
	if err != nil {
		log.Error().Err(err).Msg("文档加载失败")
		tracing.RecordError(span, err, tracing.ErrorTypeDocument)
		return nil, err
	}

	sections := p.segmentStage(ctx, blocks)

	candidates, err := p.extractStage(ctx, documentUUID, sections)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	profile := p.synthesizeStage(ctx, candidates)
	profile.ProfileID = uuid.NewString()

	result := &Result{
		DocumentUUID: documentUUID,
		Blocks:       blocks,
		Sections:     sections,
		Candidates:   candidates,
		Profile:      profile,
	}

	if p.rubric != nil {
		ratingResult, err := p.rateStage(ctx, documentUUID, profile)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeValidation)
			return nil, err
		}
		result.Rating = ratingResult
	}

	log.Info().
		Int("blocks", len(blocks)).
		Int("sections", len(sections)).
		Int("candidates", len(candidates)).
		Bool("needs_review", profile.NeedsReview).
		Msg("文档处理完成")

	return result, nil
}

func (p *Pipeline) loadStage(ctx context.Context, documentUUID string, data []byte) ([]types.TextBlock, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.load",
		trace.WithAttributes(attribute.String("loader.version", p.loader.Version())))
	defer span.End()

	blocks, err := p.loader.Load(ctx, data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDocument)
		return nil, NewLoadError(documentUUID, err)
	}
	span.SetAttributes(attribute.Int("blocks.count", len(blocks)))
	return blocks, nil
}

func (p *Pipeline) segmentStage(ctx context.Context, blocks []types.TextBlock) []types.Section {
	_, span := p.tracer.Start(ctx, "pipeline.segment")
	defer span.End()

	sections := p.segmenter.Segment(blocks)
	span.SetAttributes(attribute.Int("sections.count", len(sections)))
	return sections
}

// extractStage 并发运行提取器
// 任务粒度是（章节，提取器）对；提取器是纯函数，结果按任务序号
// 回填固定槽位，候选池内容与调度顺序无关
func (p *Pipeline) extractStage(ctx context.Context, documentUUID string, sections []types.Section) ([]types.CandidateSpan, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	type task struct {
		section   types.Section
		extractor extractor.Extractor
	}
	var tasks []task
	for _, section := range sections {
		for _, e := range p.registry.ForSection(section.Kind) {
			tasks = append(tasks, task{section: section, extractor: e})
		}
	}
	span.SetAttributes(attribute.Int("tasks.count", len(tasks)))

	results := make([][]types.CandidateSpan, len(tasks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				// 取消后放弃剩余任务，部分产出被整体丢弃
				if ctx.Err() != nil {
					continue
				}
				results[idx] = tasks[idx].extractor.Extract(ctx, tasks[idx].section)
			}
		}()
	}
	for idx := range tasks {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, NewCancelledError(documentUUID, "extract", err)
	}

	var candidates []types.CandidateSpan
	for _, spans := range results {
		candidates = append(candidates, spans...)
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	return candidates, nil
}

func (p *Pipeline) synthesizeStage(ctx context.Context, candidates []types.CandidateSpan) types.ProfileRecord {
	_, span := p.tracer.Start(ctx, "pipeline.synthesize")
	defer span.End()

	profile := p.synthesizer.Synthesize(candidates)
	span.SetAttributes(
		attribute.Int("conflicts.count", len(profile.UnresolvedConflicts)),
		attribute.Bool("needs_review", profile.NeedsReview),
	)
	return profile
}

func (p *Pipeline) rateStage(ctx context.Context, documentUUID string, profile types.ProfileRecord) (*types.Rating, error) {
	_, span := p.tracer.Start(ctx, "pipeline.rate")
	defer span.End()

	ratingResult, err := p.engine.Rate(profile, p.rubric)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, NewRateError(documentUUID, err)
	}
	span.SetAttributes(attribute.Float64("rating.aggregate", ratingResult.Aggregate))
	return &ratingResult, nil
}
