package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/loader"
	"resume-analyzer-go/internal/rating"
	"resume-analyzer-go/internal/types"
)

// stubLoader 测试用加载器，返回预置文本块
type stubLoader struct {
	blocks []types.TextBlock
	err    error
}

func (s *stubLoader) Load(ctx context.Context, data []byte) ([]types.TextBlock, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.blocks, nil
}

func (s *stubLoader) Version() string { return "stub-v1" }

// resumeBlocks 一份典型简历的文本块
func resumeBlocks() []types.TextBlock {
	lines := []struct {
		text   string
		bucket types.FontSizeBucket
		bold   bool
	}{
		{"JOHN DOE", types.FontSizeHeadline, true},
		{"San Francisco, CA ⋄ john.doe@example.com ⋄ +1 555-123-4567", types.FontSizeBody, false},
		{"EXPERIENCE", types.FontSizeSubhead, true},
		{"Software Engineer  Mar 2020 - Present", types.FontSizeBody, true},
		{"Acme Technologies, San Francisco, CA", types.FontSizeBody, false},
		{"• Built data pipelines in Go", types.FontSizeBody, false},
		{"EDUCATION", types.FontSizeSubhead, true},
		{"Bachelor of Science in Computer Science", types.FontSizeBody, false},
		{"Stanford University  2016 – 2020", types.FontSizeBody, false},
		{"SKILLS", types.FontSizeSubhead, true},
		{"Languages: golang, Python, SQL", types.FontSizeBody, false},
	}
	blocks := make([]types.TextBlock, len(lines))
	for i, l := range lines {
		blocks[i] = types.TextBlock{
			Text:  l.text,
			Style: types.TextStyle{FontSizeBucket: l.bucket, IsBold: l.bold},
		}
	}
	return blocks
}

// TestProcessEndToEnd 全流程冒烟：加载→切分→提取→合成
func TestProcessEndToEnd(t *testing.T) {
	p := NewPipeline(WithLoader(&stubLoader{blocks: resumeBlocks()}))

	result, err := p.Process(context.Background(), "doc-1", []byte("unused"))
	require.NoError(t, err)

	assert.Equal(t, "doc-1", result.DocumentUUID)
	assert.NotEmpty(t, result.Profile.ProfileID)
	assert.NotEmpty(t, result.Candidates)

	profile := result.Profile
	assert.Equal(t, "JOHN DOE", profile.Contact.Name.Value)
	assert.Equal(t, "john.doe@example.com", profile.Contact.Email.Value)
	assert.Equal(t, "+15551234567", profile.Contact.Phone.Value)

	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "Acme Technologies", profile.Experience[0].Organization)
	assert.Equal(t, "Software Engineer", profile.Experience[0].Title)
	assert.Equal(t, "2020-03", profile.Experience[0].Start)
	assert.Equal(t, "PRESENT", profile.Experience[0].End)
	assert.Equal(t, []string{"Built data pipelines in Go"}, profile.Experience[0].Description)

	require.Len(t, profile.Education, 1)
	assert.Equal(t, "Stanford University", profile.Education[0].Institution)
	assert.Equal(t, "Bachelor in Computer Science", profile.Education[0].Degree)

	var terms []string
	for _, s := range profile.Skills {
		terms = append(terms, s.Term)
	}
	assert.Contains(t, terms, "Go")
	assert.Contains(t, terms, "Python")

	// 未配置细则时不评分
	assert.Nil(t, result.Rating)
}

// TestProcessWithRubric 配置细则后结果附带评分
func TestProcessWithRubric(t *testing.T) {
	rubric, err := rating.ParseRubric([]byte(`
criteria:
  - name: skills
    weight: 1.0
    scoring_fn: skill_coverage
    required_fields: [skills]
    params:
      target_skills: [Go, Python]
`))
	require.NoError(t, err)

	p := NewPipeline(
		WithLoader(&stubLoader{blocks: resumeBlocks()}),
		WithRubric(rubric),
	)

	result, err := p.Process(context.Background(), "doc-2", nil)
	require.NoError(t, err)
	require.NotNil(t, result.Rating)
	assert.InDelta(t, 1.0, result.Rating.SubScores["skills"], 1e-9)
	assert.InDelta(t, 1.0, result.Rating.Aggregate, 1e-9)
}

// TestProcessLoadFailure 加载失败使整篇文档失败并保留失败原因
func TestProcessLoadFailure(t *testing.T) {
	cause := loader.NewUnreadableError("doc-3", "不是有效的PDF", nil)
	p := NewPipeline(WithLoader(&stubLoader{err: cause}))

	_, err := p.Process(context.Background(), "doc-3", []byte("garbage"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadDocumentFailed)
	assert.ErrorIs(t, err, loader.ErrUnreadableDocument)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "doc-3", procErr.DocumentUUID)
	assert.Equal(t, "load", procErr.Op)
}

// TestProcessCancellation 取消后丢弃部分产出并返回取消错误
func TestProcessCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(WithLoader(&stubLoader{blocks: resumeBlocks()}))
	_, err := p.Process(ctx, "doc-4", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestProcessDeterministicPool 并发提取不影响候选池内容
func TestProcessDeterministicPool(t *testing.T) {
	single := NewPipeline(WithLoader(&stubLoader{blocks: resumeBlocks()}), WithWorkers(1))
	many := NewPipeline(WithLoader(&stubLoader{blocks: resumeBlocks()}), WithWorkers(8))

	first, err := single.Process(context.Background(), "doc-5", nil)
	require.NoError(t, err)
	second, err := many.Process(context.Background(), "doc-5", nil)
	require.NoError(t, err)

	require.Len(t, second.Candidates, len(first.Candidates))
	for i := range first.Candidates {
		assert.Equal(t, first.Candidates[i].Field, second.Candidates[i].Field)
		assert.Equal(t, first.Candidates[i].Value, second.Candidates[i].Value)
	}
}
