package fastpath

import (
	"context"
	"testing"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/pkg/llm/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	resp  *gateway.Response
	err   error
	delay time.Duration
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

type testLogger struct{}

func (testLogger) Debug(module, message string, details map[string]interface{}) {}
func (testLogger) Info(module, message string, details map[string]interface{})  {}
func (testLogger) Warn(module, message string, details map[string]interface{})  {}
func (testLogger) Error(module, message string, details map[string]interface{}) {}
func (testLogger) Sync() error                                                  { return nil }

func testGuide(questions int) *entity.MarkingGuide {
	guide := &entity.MarkingGuide{Id: uuid.New(), UserId: uuid.New(), Title: "Biology exam"}
	for i := 0; i < questions; i++ {
		guide.Questions = append(guide.Questions, entity.GuideQuestion{
			Id:          uuid.New(),
			GuideId:     guide.Id,
			Number:      i + 1,
			Text:        "Explain the process",
			ModelAnswer: "light energy becomes chemical energy",
			MaxScore:    10,
		})
	}
	return guide
}

func TestMapAnswersParsesModelResponse(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{
		Text: `{"mappings":[{"question_number":1,"answer_text":"plants use light","confidence":0.9},{"question_number":2,"answer_text":"cells divide","confidence":0.8}]}`,
	}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(2)
	submission := &entity.Submission{Id: uuid.New(), Text: "plants use light\n\ncells divide"}

	records, err := engine.MapAnswers(context.Background(), guide, submission, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, guide.Questions[0].Id, records[0].QuestionId)
	assert.Equal(t, "plants use light", records[0].AnswerText)
	assert.InDelta(t, 0.9, records[0].Confidence, 0.001)
	assert.Equal(t, float64(10), records[0].MaxScore)
}

func TestMapAnswersChunkFallbackOnGarbage(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{Text: "sorry, I cannot help with that"}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(2)
	submission := &entity.Submission{Id: uuid.New(), Text: "first answer block\n\nsecond answer block"}

	records, err := engine.MapAnswers(context.Background(), guide, submission, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first answer block", records[0].AnswerText)
	assert.Equal(t, "second answer block", records[1].AnswerText)
}

func TestMapAnswersChunkFallbackOnTimeout(t *testing.T) {
	gen := &fakeGenerator{
		resp:  &gateway.Response{Text: `{"mappings":[]}`},
		delay: 200 * time.Millisecond,
	}
	engine := NewEngine(gen, testLogger{}, Config{Timeout: 20 * time.Millisecond})

	guide := testGuide(1)
	submission := &entity.Submission{Id: uuid.New(), Text: "the only answer"}

	start := time.Now()
	records, err := engine.MapAnswers(context.Background(), guide, submission, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	require.Len(t, records, 1)
	assert.Equal(t, "the only answer", records[0].AnswerText)
}

func TestGradeBatchUsesModelScores(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{
		Text: `{"grades":[{"question_number":1,"score":8.5,"feedback":"solid","confidence":0.9}]}`,
	}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(1)
	mappings := []*entity.MappingRecord{{
		Id:           uuid.New(),
		QuestionId:   guide.Questions[0].Id,
		QuestionText: guide.Questions[0].Text,
		AnswerText:   "light energy becomes chemical energy",
		MaxScore:     10,
	}}

	graded, err := engine.GradeBatch(context.Background(), mappings, guide)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Equal(t, entity.GradingMethodModel, graded[0].Method)
	assert.InDelta(t, 8.5, graded[0].Score, 0.001)
	assert.InDelta(t, 85.0, graded[0].Percentage, 0.001)
	assert.False(t, graded[0].RequiresManualReview)
}

func TestGradeBatchCapsScoreAtMax(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{
		Text: `{"grades":[{"question_number":1,"score":25,"feedback":"","confidence":0.9}]}`,
	}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(1)
	mappings := []*entity.MappingRecord{{
		Id:         uuid.New(),
		QuestionId: guide.Questions[0].Id,
		AnswerText: "an answer",
		MaxScore:   10,
	}}

	graded, err := engine.GradeBatch(context.Background(), mappings, guide)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, graded[0].Score, 0.001)
}

func TestGradeBatchHeuristicOnGatewayFallback(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{Text: gateway.FallbackText, Fallback: true}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(1)
	mappings := []*entity.MappingRecord{{
		Id:         uuid.New(),
		QuestionId: guide.Questions[0].Id,
		AnswerText: "light energy becomes chemical energy",
		MaxScore:   10,
	}}

	graded, err := engine.GradeBatch(context.Background(), mappings, guide)
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Equal(t, entity.GradingMethodHeuristic, graded[0].Method)
	assert.True(t, graded[0].RequiresManualReview)
	assert.GreaterOrEqual(t, graded[0].Percentage, 0.0)
	assert.LessOrEqual(t, graded[0].Percentage, 100.0)
}

func TestGradeBatchPartialGradesFillHeuristically(t *testing.T) {
	gen := &fakeGenerator{resp: &gateway.Response{
		Text: `{"grades":[{"question_number":1,"score":7,"feedback":"","confidence":0.8}]}`,
	}}
	engine := NewEngine(gen, testLogger{}, Config{})

	guide := testGuide(2)
	mappings := []*entity.MappingRecord{
		{Id: uuid.New(), QuestionId: guide.Questions[0].Id, AnswerText: "first", MaxScore: 10},
		{Id: uuid.New(), QuestionId: guide.Questions[1].Id, AnswerText: "light energy chemical energy", MaxScore: 10},
	}

	graded, err := engine.GradeBatch(context.Background(), mappings, guide)
	require.NoError(t, err)
	require.Len(t, graded, 2)
	assert.Equal(t, entity.GradingMethodModel, graded[0].Method)
	assert.Equal(t, entity.GradingMethodHeuristic, graded[1].Method)
}
