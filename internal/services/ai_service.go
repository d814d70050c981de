package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// AIService estimates nutrition from free-text descriptions using an
// external model. Stateless: pure request/response.
type AIService struct {
	geminiClient *genai.Client
	geminiModel  string
	openaiClient *openai.Client
	provider     string
}

const mealSystemPrompt = `You are an expert nutritionist. Your goal is to provide accurate calorie and macronutrient estimates based on vague or detailed user descriptions. Make reasonable assumptions for portion sizes if not specified. If the input is nonsense or not food, return 0 for all values and a polite message in the healthTip.

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object
- Do not include any markdown formatting or explanatory text before or after the JSON
- The JSON must have these exact fields:
  {
    "totalCalories": 0,
    "proteinGrams": 0,
    "carbsGrams": 0,
    "fatGrams": 0,
    "foodItems": [{"name": "", "quantity": "e.g. '2 patties', '100g', '1 slice'", "calories": 0, "proteinGrams": 0, "carbsGrams": 0, "fatGrams": 0}],
    "healthTip": "A short, actionable health tip related to this meal (max 20 words)."
  }
All numeric values are integers.`

const itemSystemPrompt = `You are an expert nutritionist. Estimate the nutrition of a single food item given its name and a free-form quantity (e.g. "2 slices", "100g", "1 glass"). If the item is nonsense or not food, return 0 for all values.

CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a valid JSON object with no surrounding text
- The JSON must have these exact fields:
  {
    "name": "",
    "quantity": "",
    "calories": 0,
    "proteinGrams": 0,
    "carbsGrams": 0,
    "fatGrams": 0
  }
All numeric values are integers.`

func NewAIService(ctx context.Context, cfg AIConfig) (*AIService, error) {
	s := &AIService{
		provider:    cfg.Provider,
		geminiModel: cfg.GeminiModel,
	}

	if cfg.Provider == ProviderGemini {
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
	} else {
		s.openaiClient = openai.NewClient(cfg.OpenAIAPIKey)
	}

	return s, nil
}

// AIConfig mirrors config.AIConfig without importing the config package, so
// the service stays wireable from tests.
type AIConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
}

// EstimateMeal analyzes a whole meal description.
func (s *AIService) EstimateMeal(ctx context.Context, text string) (*domain.MealEstimate, error) {
	prompt := fmt.Sprintf("Analyze the following meal description and estimate the nutritional content.\nInput: %q", text)

	raw, err := s.generate(ctx, mealSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var estimate domain.MealEstimate
	if err := decodeResponse(raw, &estimate); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// EstimateItem analyzes a single food item by name and quantity.
func (s *AIService) EstimateItem(ctx context.Context, name, quantity string) (*domain.FoodItem, error) {
	prompt := fmt.Sprintf("Estimate the nutrition for this single food item.\nName: %q\nQuantity: %q", name, quantity)

	raw, err := s.generate(ctx, itemSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var item domain.FoodItem
	if err := decodeResponse(raw, &item); err != nil {
		return nil, err
	}
	// The model occasionally drops the echo fields; keep the caller's.
	if item.Name == "" {
		item.Name = name
	}
	if item.Quantity == "" {
		item.Quantity = quantity
	}
	return &item, nil
}

func (s *AIService) generate(ctx context.Context, system, prompt string) (string, error) {
	if s.provider == ProviderOpenAI {
		return s.generateWithOpenAI(ctx, system, prompt)
	}
	return s.generateWithGemini(ctx, system, prompt)
}

func (s *AIService) generateWithGemini(ctx context.Context, system, prompt string) (string, error) {
	model := s.geminiClient.GenerativeModel(s.geminiModel)

	resp, err := model.GenerateContent(ctx, genai.Text(system+"\n\n"+prompt))
	if err != nil {
		return "", apperrors.NewExternalAPIError(err, "Gemini")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.ErrNoAIResponse
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return "", apperrors.ErrNoAIResponse
	}
	return string(text), nil
}

func (s *AIService) generateWithOpenAI(ctx context.Context, system, prompt string) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", apperrors.NewExternalAPIError(err, "OpenAI")
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperrors.ErrNoAIResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func decodeResponse(raw string, out any) error {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return apperrors.New(apperrors.ErrorTypeExternal, "AI_PARSE", "No valid JSON found in response")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeExternal, "AI_PARSE", "Failed to process nutrition data")
	}
	return nil
}

// extractJSON attempts to extract a valid JSON object from the given string.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```)
// or other text.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
