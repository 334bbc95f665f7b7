package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"coursewise_backend/internal/config"
	"coursewise_backend/internal/model"
	"coursewise_backend/internal/util"
	"coursewise_backend/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const recommendSystemPrompt = `You are an academic advisor for a computer science program graded on a 0-20 scale.
You receive the student's verified academic context as JSON. Recommend courses for the coming semester.
Rules you must follow:
- Only recommend courses listed under eligibleCourses.
- The total credits must not exceed standing.maxCredits.
- Prefer mandatory courses the student is behind on.
Answer with JSON only, in this shape:
{"courses":[{"code":"...","reason":"..."}],"summary":"..."}`

const chatSystemPrompt = `You are a concise academic advisor. Use the student's context when it is relevant and say so when a question is outside academic planning.`

// AIService talks to an OpenAI-compatible endpoint. Any transport failure
// or malformed reply surfaces as a CapabilityError so the caller can fall
// back to the deterministic recommender.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(cfg *config.AIConfig) *AIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &AIService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

type rawPlan struct {
	Courses []struct {
		Code   string `json:"code"`
		Reason string `json:"reason"`
	} `json:"courses"`
	Summary string `json:"summary"`
}

// Recommend asks for a plan and shape-validates the reply: every course
// must come from the eligible set and the total must respect the cap. A
// reply violating either is treated the same as no reply at all.
func (s *AIService) Recommend(ctx context.Context, rc *model.RecommendationContext) (*model.RecommendationPlan, error) {
	payload, err := json.Marshal(rc)
	if err != nil {
		return nil, &util.CapabilityError{Detail: "marshal context", Cause: err}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: recommendSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, &util.CapabilityError{Detail: "chat completion", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &util.CapabilityError{Detail: "empty completion"}
	}

	plan, err := parsePlan(resp.Choices[0].Message.Content, rc)
	if err != nil {
		logger.Log.Warn("rejected malformed generation reply", zap.Error(err))
		return nil, err
	}
	return plan, nil
}

func parsePlan(content string, rc *model.RecommendationContext) (*model.RecommendationPlan, error) {
	content = stripCodeFence(content)

	var raw rawPlan
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &util.CapabilityError{Detail: "reply is not valid JSON", Cause: err}
	}
	if len(raw.Courses) == 0 {
		return nil, &util.CapabilityError{Detail: "reply names no courses"}
	}

	eligible := map[string]model.ContextCourse{}
	for _, c := range rc.EligibleCourses {
		eligible[c.Code] = c
	}

	plan := &model.RecommendationPlan{Source: "llm", Summary: raw.Summary}
	seen := map[string]bool{}
	for _, pc := range raw.Courses {
		course, ok := eligible[pc.Code]
		if !ok {
			// When the context knows why the course is blocked, carry the
			// reasons so the caller can log something actionable.
			capErr := &util.CapabilityError{Detail: fmt.Sprintf("reply names ineligible course %s", pc.Code)}
			for _, blocked := range rc.IneligibleCourses {
				if blocked.Code == pc.Code {
					capErr.Cause = &util.IneligibleCourseError{CourseCode: pc.Code, Reasons: blocked.Reasons}
					break
				}
			}
			return nil, capErr
		}
		if seen[pc.Code] {
			return nil, &util.CapabilityError{Detail: fmt.Sprintf("reply repeats course %s", pc.Code)}
		}
		seen[pc.Code] = true
		plan.Courses = append(plan.Courses, model.PlannedCourse{
			Code:    course.Code,
			Name:    course.Name,
			Credits: course.Credits,
			Reason:  pc.Reason,
		})
		plan.TotalCredits += course.Credits
	}

	if plan.TotalCredits > rc.Standing.MaxCredits {
		return nil, &util.CapabilityError{
			Detail: fmt.Sprintf("reply plans %d credits over the %d cap", plan.TotalCredits, rc.Standing.MaxCredits),
		}
	}
	return plan, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
	}
	return strings.TrimSpace(content)
}

// Chat answers a free-form advising question against the student context.
func (s *AIService) Chat(ctx context.Context, question string, rc *model.RecommendationContext) (string, error) {
	contextJSON, err := json.Marshal(rc)
	if err != nil {
		return "", &util.CapabilityError{Detail: "marshal context", Cause: err}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Student context:\n" + string(contextJSON)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", &util.CapabilityError{Detail: "chat completion", Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &util.CapabilityError{Detail: "empty completion"}
	}
	return resp.Choices[0].Message.Content, nil
}
