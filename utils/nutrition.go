package utils

import "math"

// Fixed activity multiplier applied to BMR — moderate activity assumed,
// not configurable.
const activityFactor = 1.55

// Calorie offset applied on top of TDEE for the lose/gain goals.
const goalOffset = 500

// MacroTargets are daily gram targets, rounded to whole grams.
type MacroTargets struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

// MealMacros are the estimated grams for a single captured meal. Values
// stay fractional; rounding happens at display time.
type MealMacros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// CalculateBMR estimates basal metabolic rate with the Mifflin-St Jeor
// equation. Expects height in centimeters and weight in kilograms. Inputs
// are not range-checked; callers must supply plausible values.
func CalculateBMR(gender string, weightKg, heightCm float64, age int) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == "male" {
		return bmr + 5
	}
	return bmr - 161
}

// CalculateTargetCalories scales BMR to TDEE and applies the goal offset:
// lose -500, gain +500, anything else unchanged. Rounded to the nearest
// whole calorie. No floor — a very low BMR with "lose" can yield an
// implausibly low target.
func CalculateTargetCalories(bmr float64, goal string) int {
	tdee := bmr * activityFactor

	switch goal {
	case "lose":
		return int(math.Round(tdee - goalOffset))
	case "gain":
		return int(math.Round(tdee + goalOffset))
	default: // maintain
		return int(math.Round(tdee))
	}
}

// CalculateMacroTargets splits a calorie target into protein/carb/fat gram
// targets using goal-specific ratios. Each gram value is rounded
// independently, so the rounded grams may not add back to the exact input.
func CalculateMacroTargets(calories int, goal string) MacroTargets {
	var proteinRatio, carbsRatio, fatsRatio float64

	switch goal {
	case "lose":
		proteinRatio, carbsRatio, fatsRatio = 0.35, 0.35, 0.30
	case "gain":
		proteinRatio, carbsRatio, fatsRatio = 0.30, 0.45, 0.25
	default: // maintain
		proteinRatio, carbsRatio, fatsRatio = 0.30, 0.40, 0.30
	}

	c := float64(calories)
	return MacroTargets{
		Protein: int(math.Round(c * proteinRatio / 4)), // 4 kcal/g
		Carbs:   int(math.Round(c * carbsRatio / 4)),   // 4 kcal/g
		Fats:    int(math.Round(c * fatsRatio / 9)),    // 9 kcal/g
	}
}

// EstimateMealMacros converts an estimated calorie count for one meal into
// gram estimates using a fixed 30% protein / 40% carbs / 30% fat split.
// Unlike the target calculator this split is goal-independent.
func EstimateMealMacros(calories float64) MealMacros {
	return MealMacros{
		Protein: calories * 0.3 / 4,
		Carbs:   calories * 0.4 / 4,
		Fats:    calories * 0.3 / 9,
	}
}
