package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/services"
	"github.com/dmitrijs2005/nutrisync/internal/common"
	"github.com/fatih/color"
)

var errUsage = errors.New("wrong arguments, see 'help'")

// arg returns args[i] or def when absent.
func arg(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func (a *App) today() string { return models.Today(a.now()) }

func (a *App) saved(kind models.Kind, res services.Created) {
	fmt.Fprintf(a.out, "saved %s %s (server id: %s)\n", kind, res.LocalID, res.ID())
}

func (a *App) addWater(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	ml, err := strconv.Atoi(args[0])
	if err != nil || ml <= 0 {
		return fmt.Errorf("amount must be a positive number of ml: %q", args[0])
	}
	date, err := a.dateArg(args, 1)
	if err != nil {
		return err
	}
	res, err := a.repos.Water.Create(ctx, a.owner, models.WaterLog{Amount: ml, Date: date})
	if err != nil {
		return err
	}
	a.saved(models.KindWaterLog, res)
	return nil
}

func (a *App) addFood(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	kcal, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("calories: %w", err)
	}
	date, err := a.dateArg(args, 3)
	if err != nil {
		return err
	}
	res, err := a.repos.Food.Create(ctx, a.owner, models.FoodLog{
		FoodName: args[0],
		Calories: kcal,
		MealType: arg(args, 2, ""),
		Date:     date,
	})
	if err != nil {
		return err
	}
	a.saved(models.KindFoodLog, res)
	return nil
}

func (a *App) addMeal(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	kcal, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("calories: %w", err)
	}
	date, err := a.dateArg(args, 3)
	if err != nil {
		return err
	}
	res, err := a.repos.Meals.Create(ctx, a.owner, models.MealLog{
		Name:          args[0],
		TotalCalories: kcal,
		MealType:      arg(args, 2, ""),
		Date:          date,
	})
	if err != nil {
		return err
	}
	a.saved(models.KindMealLog, res)
	return nil
}

func (a *App) addExercise(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("minutes: %w", err)
	}
	var burned float64
	if len(args) > 2 {
		if burned, err = strconv.ParseFloat(args[2], 64); err != nil {
			return fmt.Errorf("calories: %w", err)
		}
	}
	date, err := a.dateArg(args, 3)
	if err != nil {
		return err
	}
	res, err := a.repos.Exercise.Create(ctx, a.owner, models.ExerciseLog{
		ExerciseType:    args[0],
		DurationMinutes: minutes,
		CaloriesBurned:  burned,
		Date:            date,
	})
	if err != nil {
		return err
	}
	a.saved(models.KindExerciseLog, res)
	return nil
}

func (a *App) addHabit(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	date, err := a.dateArg(args, 2)
	if err != nil {
		return err
	}
	res, err := a.repos.Habits.Create(ctx, a.owner, models.Habit{
		Name:      args[0],
		Frequency: arg(args, 1, "daily"),
		Date:      date,
	})
	if err != nil {
		return err
	}
	a.saved(models.KindHabit, res)
	return nil
}

func (a *App) toggleHabit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	rec, err := a.repos.Habits.ToggleCompletion(ctx, args[0])
	if err != nil {
		return err
	}
	state := "not done"
	if rec.Payload.Completed {
		state = "done"
	}
	fmt.Fprintf(a.out, "%s marked %s\n", rec.Payload.Name, state)
	return nil
}

var pendingMark = color.New(color.FgYellow).Sprint("*")

func syncMark(state models.State) string {
	if state == models.StateSynced {
		return " "
	}
	return pendingMark
}

func (a *App) list(ctx context.Context, args []string) error {
	date, err := a.dateArg(args, 0)
	if err != nil {
		return err
	}

	food, err := a.repos.Food.ReadByDate(ctx, a.owner, date)
	if err != nil {
		return err
	}
	meals, err := a.repos.Meals.ReadByDate(ctx, a.owner, date)
	if err != nil {
		return err
	}
	water, err := a.repos.Water.ReadByDate(ctx, a.owner, date)
	if err != nil {
		return err
	}
	exercise, err := a.repos.Exercise.ReadByDate(ctx, a.owner, date)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (* = not synced yet)\n", date)
	total := 0
	for _, r := range water {
		total += r.Payload.Amount
		fmt.Fprintf(a.out, "%s water    %5d ml                 %s\n", syncMark(r.State()), r.Payload.Amount, r.LocalID)
	}
	for _, r := range food {
		fmt.Fprintf(a.out, "%s food     %-16s %6.0f kcal %s\n", syncMark(r.State()), r.Payload.FoodName, r.Payload.Calories, r.LocalID)
	}
	for _, r := range meals {
		fmt.Fprintf(a.out, "%s meal     %-16s %6.0f kcal %s\n", syncMark(r.State()), r.Payload.Name, r.Payload.TotalCalories, r.LocalID)
	}
	for _, r := range exercise {
		fmt.Fprintf(a.out, "%s exercise %-16s %4d min    %s\n", syncMark(r.State()), r.Payload.ExerciseType, r.Payload.DurationMinutes, r.LocalID)
	}
	if len(food)+len(meals)+len(water)+len(exercise) == 0 {
		fmt.Fprintln(a.out, "nothing logged")
		return nil
	}
	fmt.Fprintf(a.out, "water total: %d ml\n", total)
	return nil
}

func (a *App) listHabits(ctx context.Context) error {
	habits, err := a.repos.Habits.ReadActive(ctx, a.owner)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Fprintln(a.out, "no habits")
		return nil
	}
	for _, r := range habits {
		check := "[ ]"
		if r.Payload.Completed {
			check = "[x]"
		}
		fmt.Fprintf(a.out, "%s %s %s %-20s %s %s\n", syncMark(r.State()), check, r.Date, r.Payload.Name, r.Payload.Frequency, r.LocalID)
	}
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		return err
	}
	err = a.deleters[kind].Delete(ctx, args[1])
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("no %s with id %s", kind, args[1])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s %s\n", kind, args[1])
	return nil
}

func (a *App) sync(ctx context.Context) error {
	out, err := a.sched.SyncNow(ctx)
	switch {
	case errors.Is(err, common.ErrOffline):
		fmt.Fprintln(a.out, "offline: changes stay local until the server is reachable")
		return nil
	case errors.Is(err, common.ErrPartialSync):
		fmt.Fprintf(a.out, "synced %d, %d still pending (will retry)\n", out.Pushed(), out.Failed())
		a.sched.Trigger()
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(a.out, "synced %d, refreshed %d\n", out.Pushed(), out.Refreshed)
	return nil
}

func (a *App) printStatus() {
	fmt.Fprintf(a.out, "owner: %s\nserver: %s\n", a.owner, a.cfg.ServerBaseURL)
	if a.monitor.IsOnline() {
		fmt.Fprintln(a.out, "connectivity: online")
	} else {
		fmt.Fprintln(a.out, "connectivity: offline")
	}
	last := a.sched.Last()
	switch {
	case last.At.IsZero():
		fmt.Fprintln(a.out, "last sync: never")
	case last.Err != nil:
		fmt.Fprintf(a.out, "last sync: %s (%v)\n", last.At.Format("2006-01-02 15:04:05"), last.Err)
	default:
		fmt.Fprintf(a.out, "last sync: %s ok\n", last.At.Format("2006-01-02 15:04:05"))
	}
}
