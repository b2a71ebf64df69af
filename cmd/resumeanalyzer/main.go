package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/loader"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/pipeline"
	"resume-analyzer-go/internal/rating"
	"resume-analyzer-go/internal/segmenter"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/tracing"
	"resume-analyzer-go/internal/types"
)

// 命令行参数定义
var (
	command      = pflag.String("cmd", "process", "执行的命令: extract=输出候选池, segment=输出章节, process=完整流水线, rate=为已有档案评分, worker=消费上传队列")
	configPath   = pflag.StringP("config", "c", "", "配置文件路径，留空时在常见位置查找")
	pdfPath      = pflag.StringP("pdf", "p", "", "PDF简历文件路径")
	profilePath  = pflag.String("profile", "", "档案JSON文件路径 (rate命令必填)")
	rubricPath   = pflag.StringP("rubric", "r", "", "评分细则YAML路径，覆盖配置文件里的rubric_path")
	outputPath   = pflag.StringP("output", "o", "", "输出文件路径，留空输出到标准输出")
	workers      = pflag.Int("workers", 0, "提取阶段并发度，0使用配置值")
	genConfigDst = pflag.String("gen-config", "", "生成示例配置文件到指定路径后退出")
)

func main() {
	pflag.Parse()

	if *genConfigDst != "" {
		if err := config.CreateSampleConfig(*genConfigDst); err != nil {
			fatalf("生成示例配置失败: %v", err)
		}
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatalf("加载配置失败: %v", err)
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	if *rubricPath != "" {
		cfg.RubricPath = *rubricPath
	}
	if *workers > 0 {
		cfg.Pipeline.ExtractorWorkers = *workers
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, &cfg.Tracing)
	if err != nil {
		fatalf("初始化追踪失败: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("关闭追踪上报失败")
		}
	}()

	switch *command {
	case "extract":
		err = runExtract(ctx, cfg)
	case "segment":
		err = runSegment(ctx, cfg)
	case "process":
		err = runProcess(ctx, cfg)
	case "rate":
		err = runRate(cfg)
	case "worker":
		err = runWorker(ctx, cfg)
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'。支持的命令: extract, segment, process, rate, worker\n", *command)
		pflag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadPDF 读入命令行指定的PDF文件
func loadPDF() ([]byte, error) {
	if *pdfPath == "" {
		return nil, fmt.Errorf("必须通过 --pdf 指定PDF文件路径")
	}
	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		return nil, fmt.Errorf("读取PDF文件失败: %w", err)
	}
	return data, nil
}

// writeJSON 把结果以缩进JSON写到输出文件或标准输出
func writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化输出失败: %w", err)
	}
	if *outputPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(*outputPath, data, 0644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

// buildLoader 按配置选择文档加载器
func buildLoader(ctx context.Context, cfg *config.Config) (loader.DocumentLoader, error) {
	switch cfg.ActiveLoaderVersion {
	case "", "layout-v1":
		return loader.NewLayoutPDFLoader(), nil
	case "eino-plaintext-v1":
		return loader.NewEinoPDFLoader(ctx)
	default:
		return nil, fmt.Errorf("未知的加载器版本: %s", cfg.ActiveLoaderVersion)
	}
}

// loadSections 加载并切分文档，extract和segment命令的公共前半段
func loadSections(ctx context.Context, cfg *config.Config) ([]types.Section, error) {
	data, err := loadPDF()
	if err != nil {
		return nil, err
	}
	docLoader, err := buildLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	blocks, err := docLoader.Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("加载文档失败: %w", err)
	}
	return segmenter.New().Segment(blocks), nil
}

// runSegment 输出切分出的章节
func runSegment(ctx context.Context, cfg *config.Config) error {
	sections, err := loadSections(ctx, cfg)
	if err != nil {
		return err
	}
	return writeJSON(sections)
}

// runExtract 输出全部提取器产出的候选池
func runExtract(ctx context.Context, cfg *config.Config) error {
	sections, err := loadSections(ctx, cfg)
	if err != nil {
		return err
	}

	registry := extractor.DefaultRegistry()
	var candidates []types.CandidateSpan
	for _, section := range sections {
		for _, e := range registry.ForSection(section.Kind) {
			candidates = append(candidates, e.Extract(ctx, section)...)
		}
	}
	return writeJSON(candidates)
}

// runProcess 跑完整流水线并输出处理结果
func runProcess(ctx context.Context, cfg *config.Config) error {
	data, err := loadPDF()
	if err != nil {
		return err
	}
	docLoader, err := buildLoader(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []pipeline.Option{pipeline.WithLoader(docLoader)}
	if cfg.Pipeline.ExtractorWorkers > 0 {
		opts = append(opts, pipeline.WithWorkers(cfg.Pipeline.ExtractorWorkers))
	}
	if cfg.RubricPath != "" {
		rubric, err := rating.LoadRubric(cfg.RubricPath)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithRubric(rubric))
	}

	if timeout := config.GetDuration(cfg.Pipeline.ProcessTimeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := pipeline.NewPipeline(opts...).Process(ctx, "", data)
	if err != nil {
		return err
	}

	out := struct {
		Profile types.ProfileRecord `json:"profile"`
		Rating  *types.Rating       `json:"rating,omitempty"`
	}{Profile: result.Profile, Rating: result.Rating}
	return writeJSON(out)
}

// runRate 为已合成的档案JSON单独评分
func runRate(cfg *config.Config) error {
	if *profilePath == "" {
		return fmt.Errorf("必须通过 --profile 指定档案JSON路径")
	}
	if cfg.RubricPath == "" {
		return fmt.Errorf("必须通过 --rubric 或配置文件指定评分细则")
	}

	data, err := os.ReadFile(*profilePath)
	if err != nil {
		return fmt.Errorf("读取档案文件失败: %w", err)
	}
	var record types.ProfileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("解析档案JSON失败: %w", err)
	}

	rubric, err := rating.LoadRubric(cfg.RubricPath)
	if err != nil {
		return err
	}
	result, err := rating.NewEngine().Rate(record, rubric)
	if err != nil {
		return err
	}
	return writeJSON(result)
}

// runWorker 以常驻进程消费上传队列，直到收到退出信号
func runWorker(ctx context.Context, cfg *config.Config) error {
	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("初始化存储失败: %w", err)
	}
	defer storageManager.Close()

	if storageManager.RabbitMQ == nil {
		return fmt.Errorf("worker模式需要RabbitMQ组件")
	}

	service, err := pipeline.NewDocumentService(ctx, cfg, storageManager)
	if err != nil {
		return fmt.Errorf("初始化文档处理服务失败: %w", err)
	}

	logger.Info().Msg("文档处理worker启动")
	if err := storageManager.RabbitMQ.ConsumeRawDocuments(ctx, service.ProcessUploadedDocument); err != nil && err != context.Canceled {
		return fmt.Errorf("消费上传队列失败: %w", err)
	}
	logger.Info().Msg("文档处理worker退出")
	return nil
}
