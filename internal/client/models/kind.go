// Package models defines the client-side records kept in the local cache and
// the log payloads they carry.
package models

import "fmt"

// Kind names an entity type handled by the sync layer.
type Kind string

const (
	KindFoodLog     Kind = "food_log"
	KindMealLog     Kind = "meal_log"
	KindWaterLog    Kind = "water_log"
	KindExerciseLog Kind = "exercise_log"
	KindHabit       Kind = "habit"
)

// Kinds lists every entity type in sync order.
var Kinds = []Kind{KindFoodLog, KindMealLog, KindWaterLog, KindExerciseLog, KindHabit}

type kindInfo struct {
	table    string
	resource string
}

var kinds = map[Kind]kindInfo{
	KindFoodLog:     {"food_logs", "food-logs"},
	KindMealLog:     {"meal_logs", "meal-logs"},
	KindWaterLog:    {"water_logs", "water-logs"},
	KindExerciseLog: {"exercise_logs", "exercise-logs"},
	KindHabit:       {"habits", "habits"},
}

// Table is the local SQLite table holding records of this kind.
func (k Kind) Table() string { return kinds[k].table }

// Resource is the REST collection name, e.g. "water-logs".
func (k Kind) Resource() string { return kinds[k].resource }

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// ParseKind accepts either the kind ("water_log"), its resource name
// ("water-logs") or a short alias ("water").
func ParseKind(s string) (Kind, error) {
	for k, info := range kinds {
		if s == string(k) || s == info.resource {
			return k, nil
		}
	}
	switch s {
	case "food":
		return KindFoodLog, nil
	case "meal":
		return KindMealLog, nil
	case "water":
		return KindWaterLog, nil
	case "exercise":
		return KindExerciseLog, nil
	case "habits":
		return KindHabit, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}
