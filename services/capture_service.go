package services

import (
	"context"
	"errors"
	"fmt"

	"backend/models"
	"backend/utils"

	"go.uber.org/zap"
)

// Stage failures the capture handler maps to distinct responses.
var (
	ErrNoImage      = errors.New("no image provided")
	ErrNoAPIKey     = errors.New("classifier API key not configured")
	ErrImageProcess = errors.New("could not process the image")
)

// Classifier turns an encoded image plus a caller-supplied credential into
// a best-effort food list and calorie estimate.
type Classifier interface {
	AnalyzeFoodImage(ctx context.Context, base64Image, apiKey string) (FoodAnalysis, error)
}

// ImageStore keeps the captured photo and returns a durable reference.
type ImageStore interface {
	UploadBase64Image(base64Data, prefix string) (string, error)
}

// MealStore persists the finished meal record (id and timestamp assigned
// by the store).
type MealStore interface {
	InsertMeal(meal *models.Meal) error
}

// CaptureService runs the capture-to-meal pipeline:
// validate → classify → estimate macros → store image → persist → update
// the in-memory day view. Each stage fails on its own terms; a persistence
// failure does not undo the classification work, it is simply reported.
type CaptureService struct {
	classifier Classifier
	images     ImageStore
	meals      MealStore
	tracker    *DayTracker
	log        *zap.Logger
}

func NewCaptureService(classifier Classifier, images ImageStore, meals MealStore, tracker *DayTracker, log *zap.Logger) *CaptureService {
	return &CaptureService{
		classifier: classifier,
		images:     images,
		meals:      meals,
		tracker:    tracker,
		log:        log,
	}
}

// S3ImageStore adapts the shared S3 uploader to the pipeline interface.
type S3ImageStore struct{}

func (S3ImageStore) UploadBase64Image(base64Data, prefix string) (string, error) {
	return utils.UploadBase64ImageToS3(base64Data, prefix)
}

func (s *CaptureService) CaptureMeal(ctx context.Context, userID uint, base64Image, apiKey string) (*models.Meal, error) {
	if base64Image == "" {
		return nil, ErrNoImage
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if _, _, err := utils.SplitDataURI(base64Image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageProcess, err)
	}

	analysis, err := s.classifier.AnalyzeFoodImage(ctx, base64Image, apiKey)
	if err != nil {
		return nil, err
	}

	macros := utils.EstimateMealMacros(analysis.Calories)

	imageURL, err := s.images.UploadBase64Image(base64Image, fmt.Sprintf("user-%d", userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageProcess, err)
	}

	meal := &models.Meal{
		UserID:   userID,
		Foods:    analysis.Foods,
		Calories: analysis.Calories,
		Protein:  macros.Protein,
		Carbs:    macros.Carbs,
		Fats:     macros.Fats,
		Image:    imageURL,
	}
	if err := s.meals.InsertMeal(meal); err != nil {
		// Classification already happened and is not retried; the caller
		// just hears that saving failed.
		return nil, fmt.Errorf("failed to save meal: %w", err)
	}

	s.tracker.Add(userID, *meal)

	s.log.Info("meal captured",
		zap.Uint("user_id", userID),
		zap.Int("foods", len(meal.Foods)),
		zap.Float64("calories", meal.Calories))

	return meal, nil
}
