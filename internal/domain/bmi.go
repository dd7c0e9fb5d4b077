package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BMICategory classifies a BMI value.
type BMICategory string

const (
	CategoryUnderweight BMICategory = "Underweight"
	CategoryNormal      BMICategory = "Normal"
	CategoryOverweight  BMICategory = "Overweight"
	CategoryObese       BMICategory = "Obese"
)

// WHO normal-range BMI bounds used for target weight suggestions.
const (
	normalBMIMin = 18.5
	normalBMIMax = 24.9
)

// BMISample is one recorded calculation for a user. Samples are append-only;
// history is never updated in place.
type BMISample struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Weight     float64            `bson:"weight" json:"weight"` // kilograms
	Height     float64            `bson:"height" json:"height"` // meters
	BMI        float64            `bson:"bmi" json:"bmi"`
	Category   BMICategory        `bson:"category" json:"category"`
	RecordedAt time.Time          `bson:"recordedAt" json:"recordedAt"`
}

// ComputeBMI returns weight/height² rounded to two decimals.
// Height is in meters, weight in kilograms.
func ComputeBMI(weight, height float64) float64 {
	return round(weight/(height*height), 2)
}

// CategoryForBMI maps a BMI value onto its category band.
func CategoryForBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}

// NormalWeightRange returns the min and max weight (kg, one decimal) that put a
// person of the given height into the normal BMI band.
func NormalWeightRange(height float64) (min, max float64) {
	return round(normalBMIMin*height*height, 1), round(normalBMIMax*height*height, 1)
}

// WeightToLose returns how many kg above the normal band the given weight is,
// or 0 when already at or below the upper bound.
func WeightToLose(weight, height float64) float64 {
	_, maxWeight := NormalWeightRange(height)
	delta := round(weight-maxWeight, 1)
	if delta < 0 {
		return 0
	}
	return delta
}

// WeightToGain returns how many kg below the normal band the given weight is,
// or 0 when already at or above the lower bound.
func WeightToGain(weight, height float64) float64 {
	minWeight, _ := NormalWeightRange(height)
	delta := round(minWeight-weight, 1)
	if delta < 0 {
		return 0
	}
	return delta
}

func round(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
