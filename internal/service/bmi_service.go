package service

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidMeasurement = errors.New("weight and height must be positive numbers")
)

// BMIResult is a freshly computed sample plus target-weight guidance for the
// user's height.
type BMIResult struct {
	Sample          domain.BMISample `json:"sample"`
	NormalMinWeight float64          `json:"normalMinWeight"`
	NormalMaxWeight float64          `json:"normalMaxWeight"`
	WeightToLose    float64          `json:"weightToLose"` // kg above the normal band, 0 otherwise
	WeightToGain    float64          `json:"weightToGain"` // kg below the normal band, 0 otherwise
}

// BMIHistory is the listing served to the history view.
type BMIHistory struct {
	Samples   []domain.BMISample `json:"samples"` // newest first
	Yesterday *domain.BMISample  `json:"yesterday,omitempty"`
}

// --- Service Interface ---
type BMIService interface {
	Record(ctx context.Context, userID primitive.ObjectID, weight, height float64) (*BMIResult, error)
	History(ctx context.Context, userID primitive.ObjectID) (*BMIHistory, error)
	Latest(ctx context.Context, userID primitive.ObjectID) (*domain.BMISample, error)
	ClearHistory(ctx context.Context, userID primitive.ObjectID) error
}

// --- Service Implementation ---

type bmiService struct {
	bmiRepo repository.BMIRepository
	now     func() time.Time
}

// NewBMIService creates a new instance of bmiService.
func NewBMIService(bmiRepo repository.BMIRepository) BMIService {
	return &bmiService{
		bmiRepo: bmiRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Record validates the measurement, computes and categorizes the BMI, appends
// the sample to the user's history and returns target-weight guidance.
func (s *bmiService) Record(ctx context.Context, userID primitive.ObjectID, weight, height float64) (*BMIResult, error) {
	if weight <= 0 || height <= 0 {
		return nil, ErrInvalidMeasurement
	}

	bmi := domain.ComputeBMI(weight, height)
	sample := &domain.BMISample{
		UserID:     userID,
		Weight:     weight,
		Height:     height,
		BMI:        bmi,
		Category:   domain.CategoryForBMI(bmi),
		RecordedAt: s.now(),
	}

	id, err := s.bmiRepo.Insert(ctx, sample)
	if err != nil {
		return nil, err
	}
	sample.ID = id

	minWeight, maxWeight := domain.NormalWeightRange(height)
	result := &BMIResult{
		Sample:          *sample,
		NormalMinWeight: minWeight,
		NormalMaxWeight: maxWeight,
	}
	if bmi >= 25 {
		result.WeightToLose = domain.WeightToLose(weight, height)
	} else if bmi < 18.5 {
		result.WeightToGain = domain.WeightToGain(weight, height)
	}

	return result, nil
}

// History returns all samples newest-first plus the most recent sample from
// a previous day, which the UI uses as the comparison point.
func (s *bmiService) History(ctx context.Context, userID primitive.ObjectID) (*BMIHistory, error) {
	samples, err := s.bmiRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history := &BMIHistory{Samples: samples}

	today := s.now().Truncate(24 * time.Hour)
	for i := range samples {
		if samples[i].RecordedAt.UTC().Truncate(24 * time.Hour).Before(today) {
			history.Yesterday = &samples[i]
			break
		}
	}

	return history, nil
}

// Latest returns the most recent sample, or ErrNoBMIRecorded when the user
// has never calculated a BMI.
func (s *bmiService) Latest(ctx context.Context, userID primitive.ObjectID) (*domain.BMISample, error) {
	sample, err := s.bmiRepo.GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoBMIRecorded
		}
		return nil, err
	}
	return sample, nil
}

// ClearHistory deletes the user's entire BMI history.
func (s *bmiService) ClearHistory(ctx context.Context, userID primitive.ObjectID) error {
	return s.bmiRepo.DeleteByUser(ctx, userID)
}
