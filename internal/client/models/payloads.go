package models

import "time"

type FoodLog struct {
	FoodName    string  `json:"foodName"`
	MealType    string  `json:"mealType,omitempty"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein,omitempty"`
	Carbs       float64 `json:"carbs,omitempty"`
	Fat         float64 `json:"fat,omitempty"`
	ServingSize float64 `json:"servingSize,omitempty"`
	ServingUnit string  `json:"servingUnit,omitempty"`
	Date        string  `json:"date"`
}

func (FoodLog) Kind() Kind { return KindFoodLog }
func (f FoodLog) LogDate() string { return f.Date }

type MealItem struct {
	FoodName string  `json:"foodName"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
	Calories float64 `json:"calories"`
}

type MealLog struct {
	Name          string     `json:"name"`
	MealType      string     `json:"mealType,omitempty"`
	Items         []MealItem `json:"items,omitempty"`
	TotalCalories float64    `json:"totalCalories"`
	Date          string     `json:"date"`
}

func (MealLog) Kind() Kind { return KindMealLog }
func (m MealLog) LogDate() string { return m.Date }

// WaterLog records an intake in millilitres.
type WaterLog struct {
	Amount int    `json:"amount"`
	Date   string `json:"date"`
}

func (WaterLog) Kind() Kind { return KindWaterLog }
func (w WaterLog) LogDate() string { return w.Date }

type ExerciseLog struct {
	ExerciseType    string  `json:"exerciseType"`
	DurationMinutes int     `json:"durationMinutes"`
	CaloriesBurned  float64 `json:"caloriesBurned,omitempty"`
	Date            string  `json:"date"`
}

func (ExerciseLog) Kind() Kind { return KindExerciseLog }
func (e ExerciseLog) LogDate() string { return e.Date }

// Habit is a tracked routine. Date is the day the habit applies to.
type Habit struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Frequency   string     `json:"frequency,omitempty"`
	Date        string     `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (Habit) Kind() Kind { return KindHabit }
func (h Habit) LogDate() string { return h.Date }

// Toggle flips the completion flag, stamping or clearing CompletedAt.
func (h *Habit) Toggle(now time.Time) {
	h.Completed = !h.Completed
	if h.Completed {
		t := now.UTC()
		h.CompletedAt = &t
		return
	}
	h.CompletedAt = nil
}
