package services

import (
	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/remote"
	"github.com/dmitrijs2005/nutrisync/internal/client/repositories/records"
	"github.com/dmitrijs2005/nutrisync/internal/dbx"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
)

// Repositories bundles one repository per entity kind.
type Repositories struct {
	Food     *Repository[models.FoodLog]
	Meals    *Repository[models.MealLog]
	Water    *Repository[models.WaterLog]
	Exercise *Repository[models.ExerciseLog]
	Habits   *HabitRepository
}

// NewRepositories wires every kind to the cache db and the API client rc.
func NewRepositories(db dbx.DBTX, rc *remote.Client, oracle Oracle, log logging.Logger, opts ...Option) *Repositories {
	return &Repositories{
		Food: NewRepository[models.FoodLog](records.NewSQLiteStore[models.FoodLog](db),
			remote.NewEndpoint[models.FoodLog](rc), oracle, log, opts...),
		Meals: NewRepository[models.MealLog](records.NewSQLiteStore[models.MealLog](db),
			remote.NewEndpoint[models.MealLog](rc), oracle, log, opts...),
		Water: NewRepository[models.WaterLog](records.NewSQLiteStore[models.WaterLog](db),
			remote.NewEndpoint[models.WaterLog](rc), oracle, log, opts...),
		Exercise: NewRepository[models.ExerciseLog](records.NewSQLiteStore[models.ExerciseLog](db),
			remote.NewEndpoint[models.ExerciseLog](rc), oracle, log, opts...),
		Habits: NewHabitRepository(records.NewSQLiteStore[models.Habit](db),
			remote.NewEndpoint[models.Habit](rc), oracle, log, opts...),
	}
}
