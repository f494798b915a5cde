package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"backend/utils"

	"go.uber.org/zap"
)

const geminiModel = "gemini-2.5-flash-lite"

const analysisPrompt = `Analyze this food image and return a JSON response with the following structure: {"detected_foods": ["food1", "food2"], "total_calories": number}. Only identify the food items visible in the image and estimate their total calories. Be specific about the food items you can see.`

// Conservative placeholder when the model answers with no parseable JSON.
// The user always gets a meal record, never a dead end.
const (
	fallbackFoodLabel = "Food detected"
	fallbackCalories  = 200
)

// Classifier failure reasons, mapped from upstream status codes so the
// handler can tell the user what actually went wrong.
var (
	ErrRateLimited   = errors.New("rate limit exceeded, please wait a moment and try again")
	ErrBadRequest    = errors.New("invalid request, please check your image and try again")
	ErrBadCredential = errors.New("API key is invalid or has insufficient permissions")
	ErrServerError   = errors.New("classifier server error, please try again later")
)

// FoodAnalysis is the classifier's best-effort read of one photo.
type FoodAnalysis struct {
	Foods    []string
	Calories float64
}

type GeminiService struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// No client timeout: an in-flight analysis cannot be aborted once started,
// the caller waits for a response or transport error.
func NewGeminiService(log *zap.Logger) *GeminiService {
	return &GeminiService{
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models/" + geminiModel + ":generateContent",
		client:  &http.Client{},
		log:     log,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type analysisPayload struct {
	DetectedFoods []string `json:"detected_foods"`
	TotalCalories float64  `json:"total_calories"`
}

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// AnalyzeFoodImage submits a base64 data-URI image with the caller's API
// key and returns detected foods plus a total calorie estimate.
func (gs *GeminiService) AnalyzeFoodImage(ctx context.Context, base64Image, apiKey string) (FoodAnalysis, error) {
	mimeType, data, err := utils.SplitDataURI(base64Image)
	if err != nil {
		return FoodAnalysis{}, err
	}
	// Gemini has no HEIC support; the payload bytes usually decode fine as JPEG
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		mimeType = "image/jpeg"
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: analysisPrompt},
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: data}},
			},
		}},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return FoodAnalysis{}, fmt.Errorf("failed to marshal classifier payload: %w", err)
	}

	u := fmt.Sprintf("%s?key=%s", gs.baseURL, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return FoodAnalysis{}, fmt.Errorf("failed to create classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := gs.client.Do(req)
	if err != nil {
		return FoodAnalysis{}, fmt.Errorf("failed to call classifier: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FoodAnalysis{}, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return FoodAnalysis{}, statusError(resp.StatusCode, body)
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return FoodAnalysis{}, fmt.Errorf("failed to parse classifier JSON: %w", err)
	}

	var text string
	if len(gr.Candidates) > 0 && len(gr.Candidates[0].Content.Parts) > 0 {
		text = gr.Candidates[0].Content.Parts[0].Text
	}

	parsed := gs.parseAnalysis(text)

	foods := parsed.DetectedFoods
	if foods == nil {
		foods = []string{}
	}
	return FoodAnalysis{Foods: foods, Calories: parsed.TotalCalories}, nil
}

func statusError(code int, body []byte) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusBadRequest:
		return ErrBadRequest
	case code == http.StatusForbidden:
		return ErrBadCredential
	case code >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return fmt.Errorf("classifier call failed with status %d: %s", code, string(body))
	}
}

// parseAnalysis pulls the structured payload out of the model's free-form
// answer. Unparseable text downgrades to the fallback placeholder; this is
// logged but never surfaced as an error.
func (gs *GeminiService) parseAnalysis(text string) analysisPayload {
	if match := jsonBlockRe.FindString(text); match != "" {
		var p analysisPayload
		if err := json.Unmarshal([]byte(match), &p); err == nil {
			return p
		}
		gs.log.Warn("classifier returned malformed JSON, using fallback",
			zap.String("snippet", snippet(match)))
	} else {
		gs.log.Warn("no JSON object in classifier response, using fallback",
			zap.String("snippet", snippet(text)))
	}
	return analysisPayload{
		DetectedFoods: []string{fallbackFoodLabel},
		TotalCalories: fallbackCalories,
	}
}

func snippet(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
