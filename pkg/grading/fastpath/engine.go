package fastpath

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"exam-grading-be/internal/entity"
	"exam-grading-be/internal/pkg/logger"
	"exam-grading-be/pkg/llm/gateway"

	"github.com/google/uuid"
)

// Generator is the slice of the gateway the engine needs. Satisfied by
// *gateway.Gateway.
type Generator interface {
	Generate(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

type Config struct {
	Timeout    time.Duration
	CharBudget int
	Model      string
}

// Engine is the latency-bounded mapper/grader. Each operation is a
// single combined strict-JSON model call under a wall clock timeout,
// with deterministic parameters so the gateway cache makes repeat runs
// reproducible. On timeout, parse failure, or a gateway fallback it
// degrades to index-based chunk mapping and heuristic scoring.
type Engine struct {
	gw         Generator
	log        logger.ILogger
	timeout    time.Duration
	charBudget int
	model      string
}

func NewEngine(gw Generator, log logger.ILogger, cfg Config) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	if cfg.CharBudget <= 0 {
		cfg.CharBudget = 6000
	}
	return &Engine{
		gw:         gw,
		log:        log,
		timeout:    cfg.Timeout,
		charBudget: cfg.CharBudget,
		model:      cfg.Model,
	}
}

// Deterministic call parameters. Grading must be reproducible, so the
// temperature is zero and the seed fixed.
const (
	callTemperature = 0.0
	callSeed        = 42
)

type mappingPayload struct {
	Mappings []struct {
		QuestionNumber int     `json:"question_number"`
		AnswerText     string  `json:"answer_text"`
		Confidence     float64 `json:"confidence"`
	} `json:"mappings"`
}

type gradingPayload struct {
	Grades []struct {
		QuestionNumber int     `json:"question_number"`
		Score          float64 `json:"score"`
		Feedback       string  `json:"feedback"`
		Confidence     float64 `json:"confidence"`
	} `json:"grades"`
}

// MapAnswers extracts one answer per guide question from the
// submission. The result is unbounded by the guide's question limit;
// selection happens downstream.
func (e *Engine) MapAnswers(ctx context.Context, guide *entity.MarkingGuide, submission *entity.Submission, maxQuestions *int) ([]*entity.MappingRecord, error) {
	if len(guide.Questions) == 0 {
		return nil, fmt.Errorf("guide %s has no questions", guide.Id)
	}

	resp, err := e.generateTimed(ctx, e.mappingPrompt(guide, submission, maxQuestions))
	if err == nil && !resp.Fallback {
		records, parseErr := e.parseMappings(resp.Text, guide, resp.Confidence)
		if parseErr == nil {
			return records, nil
		}
		e.log.Warn("fastpath", "mapping response not parseable, using chunk assignment", map[string]interface{}{
			"guide_id": guide.Id.String(),
			"error":    parseErr.Error(),
		})
	} else if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("fastpath", "mapping call failed, using chunk assignment", map[string]interface{}{
			"guide_id": guide.Id.String(),
			"error":    err.Error(),
		})
	}

	return e.chunkMappings(guide, submission), nil
}

// GradeBatch scores every mapping independently. A mapping whose model
// grade is missing or invalid gets a heuristic score instead of
// aborting the batch.
func (e *Engine) GradeBatch(ctx context.Context, mappings []*entity.MappingRecord, guide *entity.MarkingGuide) ([]*entity.GradedMapping, error) {
	if len(mappings) == 0 {
		return nil, nil
	}

	modelAnswers := modelAnswersByQuestion(guide)

	var grades map[int]gradeEntry
	resp, err := e.generateTimed(ctx, e.gradingPrompt(mappings, guide))
	if err == nil && !resp.Fallback {
		parsed, parseErr := parseGrades(resp.Text)
		if parseErr == nil {
			grades = parsed
		} else {
			e.log.Warn("fastpath", "grading response not parseable, scoring heuristically", map[string]interface{}{
				"guide_id": guide.Id.String(),
				"error":    parseErr.Error(),
			})
		}
	} else if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("fastpath", "grading call failed, scoring heuristically", map[string]interface{}{
			"guide_id": guide.Id.String(),
			"error":    err.Error(),
		})
	}

	graded := make([]*entity.GradedMapping, 0, len(mappings))
	for i, m := range mappings {
		if g, ok := grades[i+1]; ok && g.Score >= 0 {
			score := g.Score
			if m.MaxScore > 0 && score > m.MaxScore {
				score = m.MaxScore
			}
			graded = append(graded, &entity.GradedMapping{
				Mapping:    *m,
				Score:      score,
				Percentage: percentage(score, m.MaxScore),
				Feedback:   g.Feedback,
				Confidence: g.Confidence,
				Method:     entity.GradingMethodModel,
			})
			continue
		}
		graded = append(graded, e.heuristicGrade(m, modelAnswers[m.QuestionId]))
	}
	return graded, nil
}

type gradeEntry struct {
	Score      float64
	Feedback   string
	Confidence float64
}

func (e *Engine) heuristicGrade(m *entity.MappingRecord, modelAnswer string) *entity.GradedMapping {
	pct := HeuristicScore(modelAnswer, m.AnswerText)
	score := pct
	if m.MaxScore > 0 {
		score = pct / 100 * m.MaxScore
	}
	return &entity.GradedMapping{
		Mapping:              *m,
		Score:                score,
		Percentage:           pct,
		Feedback:             "Scored by lexical overlap; model grading was unavailable.",
		Confidence:           0.3,
		Method:               entity.GradingMethodHeuristic,
		RequiresManualReview: true,
	}
}

func (e *Engine) generateTimed(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		resp *gateway.Response
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := e.gw.Generate(callCtx, req)
		resCh <- result{resp, err}
	}()

	select {
	case r := <-resCh:
		return r.resp, r.err
	case <-callCtx.Done():
		// The worker's late result lands in the buffered channel and
		// is discarded.
		return nil, callCtx.Err()
	}
}

func (e *Engine) mappingPrompt(guide *entity.MarkingGuide, submission *entity.Submission, maxQuestions *int) gateway.Request {
	var sb strings.Builder
	sb.WriteString("Questions:\n")
	for i, q := range guide.Questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, TruncateAtBoundary(q.Text, 500))
	}
	if maxQuestions != nil {
		fmt.Fprintf(&sb, "\nThe student was required to answer at most %d questions.\n", *maxQuestions)
	}
	sb.WriteString("\nSubmission:\n")
	sb.WriteString(TruncateAtBoundary(submission.Text, e.charBudget))

	return gateway.Request{
		System: "You map student exam answers to questions. Respond with strict JSON only: " +
			`{"mappings":[{"question_number":1,"answer_text":"...","confidence":0.0}]}. ` +
			"Include every question you find an answer for. No prose.",
		User:        sb.String(),
		Temperature: callTemperature,
		Seed:        callSeed,
		Model:       e.model,
		UseCache:    true,
	}
}

func (e *Engine) gradingPrompt(mappings []*entity.MappingRecord, guide *entity.MarkingGuide) gateway.Request {
	modelAnswers := modelAnswersByQuestion(guide)

	perMapping := e.charBudget / len(mappings)
	if perMapping < 400 {
		perMapping = 400
	}

	var sb strings.Builder
	for i, m := range mappings {
		fmt.Fprintf(&sb, "Question %d (max score %.1f): %s\n", i+1, m.MaxScore, TruncateAtBoundary(m.QuestionText, 500))
		if ref := modelAnswers[m.QuestionId]; ref != "" {
			fmt.Fprintf(&sb, "Reference answer: %s\n", TruncateAtBoundary(ref, perMapping/2))
		}
		fmt.Fprintf(&sb, "Student answer: %s\n\n", TruncateAtBoundary(m.AnswerText, perMapping))
	}

	return gateway.Request{
		System: "You grade student exam answers. Respond with strict JSON only: " +
			`{"grades":[{"question_number":1,"score":0.0,"feedback":"...","confidence":0.0}]}. ` +
			"Score each question from 0 to its max score. No prose.",
		User:        sb.String(),
		Temperature: callTemperature,
		Seed:        callSeed,
		Model:       e.model,
		UseCache:    true,
	}
}

func (e *Engine) parseMappings(text string, guide *entity.MarkingGuide, confidence float64) ([]*entity.MappingRecord, error) {
	var payload mappingPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return nil, err
	}
	if len(payload.Mappings) == 0 {
		return nil, fmt.Errorf("no mappings in response")
	}

	records := make([]*entity.MappingRecord, 0, len(payload.Mappings))
	for _, m := range payload.Mappings {
		idx := m.QuestionNumber - 1
		if idx < 0 || idx >= len(guide.Questions) {
			continue
		}
		if strings.TrimSpace(m.AnswerText) == "" {
			continue
		}
		q := guide.Questions[idx]
		conf := m.Confidence
		if conf <= 0 {
			conf = confidence
		}
		records = append(records, &entity.MappingRecord{
			Id:           uuid.New(),
			QuestionId:   q.Id,
			QuestionText: q.Text,
			AnswerText:   m.AnswerText,
			MaxScore:     q.MaxScore,
			Confidence:   conf,
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no usable mappings in response")
	}
	return records, nil
}

func parseGrades(text string) (map[int]gradeEntry, error) {
	var payload gradingPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return nil, err
	}
	if len(payload.Grades) == 0 {
		return nil, fmt.Errorf("no grades in response")
	}
	grades := make(map[int]gradeEntry, len(payload.Grades))
	for _, g := range payload.Grades {
		grades[g.QuestionNumber] = gradeEntry{
			Score:      g.Score,
			Feedback:   g.Feedback,
			Confidence: g.Confidence,
		}
	}
	return grades, nil
}

// chunkMappings is the no-model fallback: split the submission and
// assign chunks to questions by position.
func (e *Engine) chunkMappings(guide *entity.MarkingGuide, submission *entity.Submission) []*entity.MappingRecord {
	chunks := SplitChunks(submission.Text, len(guide.Questions))
	records := make([]*entity.MappingRecord, 0, len(guide.Questions))
	for i, q := range guide.Questions {
		if i >= len(chunks) || strings.TrimSpace(chunks[i]) == "" {
			continue
		}
		records = append(records, &entity.MappingRecord{
			Id:           uuid.New(),
			QuestionId:   q.Id,
			QuestionText: q.Text,
			AnswerText:   chunks[i],
			MaxScore:     q.MaxScore,
			Confidence:   0.2,
		})
	}
	return records
}

func modelAnswersByQuestion(guide *entity.MarkingGuide) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(guide.Questions))
	for _, q := range guide.Questions {
		out[q.Id] = q.ModelAnswer
	}
	return out
}

func percentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return score / maxScore * 100
}

// extractJSON tolerates models that wrap the JSON object in code fences
// or prose.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
