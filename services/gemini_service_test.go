package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testGemini(t *testing.T, handler http.HandlerFunc) (*GeminiService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	gs := NewGeminiService(zap.NewNop())
	gs.baseURL = srv.URL
	return gs, srv
}

func geminiBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			},
		}},
	})
	return b
}

const testImage = "data:image/jpeg;base64,Zm9vZA=="

func TestAnalyzeFoodImage(t *testing.T) {
	gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, "Zm9vZA==", req.Contents[0].Parts[1].InlineData.Data)

		w.Write(geminiBody(`Here you go: {"detected_foods": ["apple", "toast"], "total_calories": 300}`))
	})

	got, err := gs.AnalyzeFoodImage(context.Background(), testImage, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "toast"}, got.Foods)
	assert.Equal(t, 300.0, got.Calories)
}

// Free text with no JSON object must downgrade to the placeholder meal,
// never fail the capture.
func TestAnalyzeFoodImageFallback(t *testing.T) {
	gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiBody("I can see what appears to be some kind of food on a plate."))
	})

	got, err := gs.AnalyzeFoodImage(context.Background(), testImage, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food detected"}, got.Foods)
	assert.Equal(t, 200.0, got.Calories)
}

func TestAnalyzeFoodImageMalformedJSONFallback(t *testing.T) {
	gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiBody(`{"detected_foods": ["apple",`)) // truncated — no closing brace, no JSON block
	})

	got, err := gs.AnalyzeFoodImage(context.Background(), testImage, "secret")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food detected"}, got.Foods)
	assert.Equal(t, 200.0, got.Calories)
}

func TestAnalyzeFoodImageStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusForbidden, ErrBadCredential},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusServiceUnavailable, ErrServerError},
	}

	for _, tt := range tests {
		gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		_, err := gs.AnalyzeFoodImage(context.Background(), testImage, "secret")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestAnalyzeFoodImageUnexpectedStatus(t *testing.T) {
	gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	_, err := gs.AnalyzeFoodImage(context.Background(), testImage, "secret")
	require.Error(t, err)
	for _, sentinel := range []error{ErrRateLimited, ErrBadRequest, ErrBadCredential, ErrServerError} {
		assert.False(t, errors.Is(err, sentinel))
	}
}

func TestAnalyzeFoodImageHEICRewrite(t *testing.T) {
	gs, _ := testGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
		w.Write(geminiBody(`{"detected_foods": [], "total_calories": 0}`))
	})

	_, err := gs.AnalyzeFoodImage(context.Background(), "data:image/heic;base64,Zm9vZA==", "secret")
	require.NoError(t, err)
}

func TestParseAnalysisMissingFields(t *testing.T) {
	gs := NewGeminiService(zap.NewNop())

	// Parseable JSON with absent fields is not the fallback case: foods
	// stay empty and calories stay zero.
	p := gs.parseAnalysis(`{"something_else": true}`)
	assert.Nil(t, p.DetectedFoods)
	assert.Equal(t, 0.0, p.TotalCalories)
}
