package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClassifier struct {
	analyzeFn func(ctx context.Context, base64Image, apiKey string) (FoodAnalysis, error)
}

func (m *mockClassifier) AnalyzeFoodImage(ctx context.Context, base64Image, apiKey string) (FoodAnalysis, error) {
	return m.analyzeFn(ctx, base64Image, apiKey)
}

type mockImageStore struct {
	uploadFn func(base64Data, prefix string) (string, error)
}

func (m *mockImageStore) UploadBase64Image(base64Data, prefix string) (string, error) {
	return m.uploadFn(base64Data, prefix)
}

type mockMealStore struct {
	insertFn func(meal *models.Meal) error
	inserted []*models.Meal
}

func (m *mockMealStore) InsertMeal(meal *models.Meal) error {
	if err := m.insertFn(meal); err != nil {
		return err
	}
	meal.CreatedAt = time.Now()
	m.inserted = append(m.inserted, meal)
	return nil
}

func newCaptureFixture() (*CaptureService, *mockMealStore, *DayTracker) {
	classifier := &mockClassifier{
		analyzeFn: func(_ context.Context, _, _ string) (FoodAnalysis, error) {
			return FoodAnalysis{Foods: []string{"apple", "toast"}, Calories: 300}, nil
		},
	}
	images := &mockImageStore{
		uploadFn: func(_, prefix string) (string, error) {
			return "https://cdn.example.com/" + prefix + "/photo.jpg", nil
		},
	}
	meals := &mockMealStore{insertFn: func(*models.Meal) error { return nil }}
	tracker := NewDayTracker()
	svc := NewCaptureService(classifier, images, meals, tracker, zap.NewNop())
	return svc, meals, tracker
}

func TestCaptureMeal(t *testing.T) {
	svc, meals, tracker := newCaptureFixture()
	tracker.Set(1, time.Now(), nil, DailySummary{})

	meal, err := svc.CaptureMeal(context.Background(), 1, testImage, "secret")
	require.NoError(t, err)

	assert.Equal(t, []string{"apple", "toast"}, []string(meal.Foods))
	assert.Equal(t, 300.0, meal.Calories)
	assert.Equal(t, 22.5, meal.Protein)
	assert.Equal(t, 30.0, meal.Carbs)
	assert.InDelta(t, 10.0, meal.Fats, 1e-9)
	assert.Equal(t, "https://cdn.example.com/user-1/photo.jpg", meal.Image)

	require.Len(t, meals.inserted, 1)

	// The viewed day absorbs exactly this one meal.
	view, ok := tracker.View(1)
	require.True(t, ok)
	require.Len(t, view.Meals, 1)
	assert.Equal(t, 300.0, view.Totals.Calories)
	assert.Equal(t, 22.5, view.Totals.Protein)
}

func TestCaptureMealMissingInputs(t *testing.T) {
	svc, meals, _ := newCaptureFixture()

	_, err := svc.CaptureMeal(context.Background(), 1, "", "secret")
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = svc.CaptureMeal(context.Background(), 1, testImage, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	assert.Empty(t, meals.inserted, "nothing persisted on validation failure")
}

func TestCaptureMealBadImage(t *testing.T) {
	svc, _, _ := newCaptureFixture()

	_, err := svc.CaptureMeal(context.Background(), 1, "bogus;base64,Zm9vZA==", "secret")
	assert.ErrorIs(t, err, ErrImageProcess)
}

func TestCaptureMealClassifierErrorPropagates(t *testing.T) {
	svc, meals, _ := newCaptureFixture()
	svc.classifier = &mockClassifier{
		analyzeFn: func(context.Context, string, string) (FoodAnalysis, error) {
			return FoodAnalysis{}, ErrRateLimited
		},
	}

	_, err := svc.CaptureMeal(context.Background(), 1, testImage, "secret")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, meals.inserted)
}

func TestCaptureMealUploadFailure(t *testing.T) {
	svc, meals, _ := newCaptureFixture()
	svc.images = &mockImageStore{
		uploadFn: func(string, string) (string, error) {
			return "", errors.New("s3 unavailable")
		},
	}

	_, err := svc.CaptureMeal(context.Background(), 1, testImage, "secret")
	assert.ErrorIs(t, err, ErrImageProcess)
	assert.Empty(t, meals.inserted)
}

func TestCaptureMealPersistFailureLeavesViewAlone(t *testing.T) {
	svc, _, tracker := newCaptureFixture()
	tracker.Set(1, time.Now(), nil, DailySummary{})
	svc.meals = &mockMealStore{insertFn: func(*models.Meal) error {
		return errors.New("connection reset")
	}}

	_, err := svc.CaptureMeal(context.Background(), 1, testImage, "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save meal")

	view, ok := tracker.View(1)
	require.True(t, ok)
	assert.Empty(t, view.Meals, "unsaved meal must not show up in the day view")
	assert.Equal(t, DailySummary{}, view.Totals)
}
