package utils

import (
	"math"
	"testing"
)

func TestCalculateBMR(t *testing.T) {
	tests := []struct {
		name     string
		gender   string
		weightKg float64
		heightCm float64
		age      int
		want     float64
	}{
		// 10*70 + 6.25*175 - 5*30 + 5 = 1648.75
		{"male", "male", 70, 175, 30, 1648.75},
		// 10*60 + 6.25*165 - 5*25 - 161 = 1345.25
		{"female", "female", 60, 165, 25, 1345.25},
		// anything that isn't "male" takes the -161 constant
		{"unknown gender", "other", 60, 165, 25, 1345.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBMR(tt.gender, tt.weightKg, tt.heightCm, tt.age)
			if got != tt.want {
				t.Errorf("CalculateBMR = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateTargetCalories(t *testing.T) {
	bmr := 1648.75
	tdee := bmr * 1.55 // 2555.5625

	tests := []struct {
		goal string
		want int
	}{
		{"lose", int(math.Round(tdee - 500))},    // 2056
		{"gain", int(math.Round(tdee + 500))},    // 3056
		{"maintain", int(math.Round(tdee))},      // 2556
		{"anything else", int(math.Round(tdee))}, // unknown goal falls back to maintain
	}

	for _, tt := range tests {
		t.Run(tt.goal, func(t *testing.T) {
			got := CalculateTargetCalories(bmr, tt.goal)
			if got != tt.want {
				t.Errorf("CalculateTargetCalories(%v, %q) = %d; want %d", bmr, tt.goal, got, tt.want)
			}
		})
	}
}

func TestCalculateTargetCaloriesNoFloor(t *testing.T) {
	// A very low BMR with "lose" legally yields a negative target;
	// nothing clamps it.
	got := CalculateTargetCalories(100, "lose")
	if got >= 0 {
		t.Errorf("CalculateTargetCalories(100, lose) = %d; expected a negative value", got)
	}
}

func TestCalculateMacroTargets(t *testing.T) {
	ratios := map[string][3]float64{
		"lose":     {0.35, 0.35, 0.30},
		"gain":     {0.30, 0.45, 0.25},
		"maintain": {0.30, 0.40, 0.30},
		"other":    {0.30, 0.40, 0.30},
	}

	for goal, r := range ratios {
		if sum := r[0] + r[1] + r[2]; math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("ratios for %q sum to %v; want 1.0", goal, sum)
		}

		for _, calories := range []int{0, 1800, 2556, 3056} {
			got := CalculateMacroTargets(calories, goal)
			c := float64(calories)
			want := MacroTargets{
				Protein: int(math.Round(c * r[0] / 4)),
				Carbs:   int(math.Round(c * r[1] / 4)),
				Fats:    int(math.Round(c * r[2] / 9)),
			}
			if got != want {
				t.Errorf("CalculateMacroTargets(%d, %q) = %+v; want %+v", calories, goal, got, want)
			}
		}
	}
}

func TestEstimateMealMacros(t *testing.T) {
	// Fixed 30/40/30 split, no rounding, goal plays no part.
	got := EstimateMealMacros(200)
	if got.Protein != 15 {
		t.Errorf("protein = %v; want 15", got.Protein)
	}
	if got.Carbs != 20 {
		t.Errorf("carbs = %v; want 20", got.Carbs)
	}
	if math.Abs(got.Fats-6.6666666667) > 1e-9 {
		t.Errorf("fats = %v; want ~6.667", got.Fats)
	}
}

func TestEstimateMealMacrosEdges(t *testing.T) {
	if got := EstimateMealMacros(0); got != (MealMacros{}) {
		t.Errorf("EstimateMealMacros(0) = %+v; want all zeros", got)
	}

	// Negative calories are not rejected; negative grams propagate.
	got := EstimateMealMacros(-100)
	if got.Protein >= 0 || got.Carbs >= 0 || got.Fats >= 0 {
		t.Errorf("EstimateMealMacros(-100) = %+v; expected negative grams", got)
	}
}
