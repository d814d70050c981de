package services

import (
	"sort"
	"time"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/utils"
)

const dayKeyLayout = "2006-01-02"

// GroupByDay buckets history records by local calendar day for the full
// history view. Days are ordered newest first; meals within a day are
// re-sorted by timestamp descending. Day totals are plain sums over the
// records' stored totals.
func GroupByDay(history []domain.MealAnalysis, now time.Time) []domain.DayGroup {
	byDay := make(map[string]*domain.DayGroup)

	for _, meal := range history {
		t := utils.FromMillis(meal.Timestamp)
		key := t.Format(dayKeyLayout)

		group, ok := byDay[key]
		if !ok {
			group = &domain.DayGroup{
				Date:        key,
				DisplayDate: displayDate(t, now),
			}
			byDay[key] = group
		}

		group.Meals = append(group.Meals, meal)
		group.TotalCalories += meal.TotalCalories
		group.ProteinGrams += meal.ProteinGrams
		group.CarbsGrams += meal.CarbsGrams
		group.FatGrams += meal.FatGrams
	}

	groups := make([]domain.DayGroup, 0, len(byDay))
	for _, group := range byDay {
		sort.Slice(group.Meals, func(i, j int) bool {
			return group.Meals[i].Timestamp > group.Meals[j].Timestamp
		})
		groups = append(groups, *group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})

	return groups
}

func displayDate(t, now time.Time) string {
	switch t.Format(dayKeyLayout) {
	case now.Format(dayKeyLayout):
		return "Today"
	case now.AddDate(0, 0, -1).Format(dayKeyLayout):
		return "Yesterday"
	}
	return t.Format("Monday, January 2")
}
