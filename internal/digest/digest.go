package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"scholarcast/internal/logging"
	"scholarcast/internal/services"
	"scholarcast/internal/services/llm"
	"scholarcast/internal/store"
)

// Summary is the structured summary generated for a paper.
type Summary struct {
	Overview     string   `json:"overview"`
	KeyFindings  []string `json:"key_findings"`
	Methodology  string   `json:"methodology"`
	Implications string   `json:"implications"`
}

const quizQuestionCount = 4

// Completer is the LLM surface the digest service needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service generates summaries and quizzes for papers. Unlike the video
// stages these surface LLM failures directly; a deterministic fallback has
// no value for reading material.
type Service struct {
	client Completer
	store  *store.Store
	logger *slog.Logger
}

// NewService constructs a digest service.
func NewService(client Completer, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		client: client,
		store:  st,
		logger: logging.NewComponentLogger(logger, "digest"),
	}
}

const summarySystemPrompt = "You summarize academic papers for a general technical audience. " +
	"Respond with a JSON object: {\"overview\": string, \"key_findings\": [string], " +
	"\"methodology\": string, \"implications\": string}."

// GenerateSummary produces and persists a summary for the paper, replacing
// any previous one.
func (s *Service) GenerateSummary(ctx context.Context, paperID string) (*Summary, error) {
	paper, err := s.lookupPaper(ctx, paperID, "summary")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Summarize this paper.\n\nTitle: %s\nAuthors: %s\nAbstract: %s",
		paper.Title, strings.Join(paper.Authors, ", "), paper.Abstract)
	content, err := s.client.CompleteJSON(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "digest", "summary", "generate summary", err)
	}

	var summary Summary
	if err := llm.DecodeLLMJSON(content, &summary); err != nil {
		return nil, services.Wrap(services.ErrParse, "digest", "summary", "decode summary", err)
	}
	if strings.TrimSpace(summary.Overview) == "" {
		return nil, services.Wrap(services.ErrParse, "digest", "summary", "summary has no overview", nil)
	}

	stored, err := json.Marshal(summary)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "digest", "summary", "encode summary", err)
	}
	if _, err := s.store.UpsertSummary(ctx, paperID, string(stored)); err != nil {
		return nil, services.Wrap(services.ErrStorage, "digest", "summary", "persist summary", err)
	}

	s.logger.InfoContext(ctx, "summary generated", logging.String(logging.FieldPaperID, paperID))
	return &summary, nil
}

// GetSummary returns the stored summary for a paper.
func (s *Service) GetSummary(ctx context.Context, paperID string) (*Summary, error) {
	record, err := s.store.GetSummary(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, services.Wrap(services.ErrNotFound, "digest", "summary", fmt.Sprintf("no summary for paper %s", paperID), nil)
	}
	var summary Summary
	if err := json.Unmarshal([]byte(record.Content), &summary); err != nil {
		return nil, services.Wrap(services.ErrParse, "digest", "summary", "decode stored summary", err)
	}
	return &summary, nil
}

const quizSystemPrompt = "You write quizzes that test understanding of academic papers. " +
	"Respond with a JSON object: {\"questions\": [{\"question\": string, \"options\": [string, string, string, string], " +
	"\"correct_answer\": string, \"explanation\": string}]}. correct_answer must exactly match one of the options."

// GenerateQuiz produces and persists a multiple-choice quiz for the paper.
func (s *Service) GenerateQuiz(ctx context.Context, paperID string) (*store.Quiz, error) {
	paper, err := s.lookupPaper(ctx, paperID, "quiz")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Write exactly %d multiple-choice questions about this paper.\n\nTitle: %s\nAbstract: %s",
		quizQuestionCount, paper.Title, paper.Abstract)
	content, err := s.client.CompleteJSON(ctx, quizSystemPrompt, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "digest", "quiz", "generate quiz", err)
	}

	var payload struct {
		Questions []store.QuizQuestion `json:"questions"`
	}
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return nil, services.Wrap(services.ErrParse, "digest", "quiz", "decode quiz", err)
	}
	questions, err := validateQuestions(payload.Questions)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "digest", "quiz", err.Error(), nil)
	}

	quiz, err := s.store.UpsertQuiz(ctx, paperID, questions)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "digest", "quiz", "persist quiz", err)
	}

	s.logger.InfoContext(ctx, "quiz generated",
		logging.String(logging.FieldPaperID, paperID),
		logging.Int("questions", len(questions)))
	return quiz, nil
}

// GetQuiz returns the stored quiz for a paper.
func (s *Service) GetQuiz(ctx context.Context, paperID string) (*store.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, services.Wrap(services.ErrNotFound, "digest", "quiz", fmt.Sprintf("no quiz for paper %s", paperID), nil)
	}
	return quiz, nil
}

func (s *Service) lookupPaper(ctx context.Context, paperID, operation string) (*store.Paper, error) {
	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, services.Wrap(services.ErrNotFound, "digest", operation, fmt.Sprintf("paper %s not found", paperID), nil)
	}
	if strings.TrimSpace(paper.Abstract) == "" && strings.TrimSpace(paper.Title) == "" {
		return nil, services.Wrap(services.ErrPrecondition, "digest", operation, fmt.Sprintf("paper %s has no text to digest", paperID), nil)
	}
	return paper, nil
}

// validateQuestions enforces the quiz shape: exactly quizQuestionCount
// questions, four options each, and a correct answer matching one option.
func validateQuestions(questions []store.QuizQuestion) ([]store.QuizQuestion, error) {
	if len(questions) < quizQuestionCount {
		return nil, fmt.Errorf("expected %d questions, got %d", quizQuestionCount, len(questions))
	}
	questions = questions[:quizQuestionCount]
	for i, question := range questions {
		if strings.TrimSpace(question.Question) == "" {
			return nil, fmt.Errorf("question %d is empty", i)
		}
		if len(question.Options) != 4 {
			return nil, fmt.Errorf("question %d has %d options", i, len(question.Options))
		}
		found := false
		for _, option := range question.Options {
			if option == question.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("question %d answer does not match any option", i)
		}
	}
	return questions, nil
}
