// Package progress turns raw attempt history into level, difficulty and game mode statistics.
// Everything here is a pure function of its inputs.
package progress

import (
	"sort"

	"quiz-progress-service/internal/catalog"
	"quiz-progress-service/internal/domain"
)

// RecentAttemptsWindow caps every RecentAttempts list.
const RecentAttemptsWindow = 5

// Resolver maps a quiz identifier to its owning level. *catalog.Index satisfies it.
type Resolver interface {
	Lookup(quizID string) (catalog.Entry, bool)
}

// Catalog is the view of the content index needed to build a full overview.
type Catalog interface {
	Resolver
	Modes() []domain.GameMode
	Levels(mode domain.GameMode, difficulty domain.Difficulty) []domain.Level
}

// Categorized is the result of splitting attempts by game mode.
type Categorized struct {
	ByMode       map[domain.GameMode][]domain.Attempt
	Unclassified []domain.Attempt
}

// Categorize buckets attempts by owning mode. Attempts whose id does not resolve go to
// Unclassified and never into a mode bucket.
func Categorize(r Resolver, attempts []domain.Attempt) Categorized {
	out := Categorized{ByMode: make(map[domain.GameMode][]domain.Attempt)}
	for _, a := range attempts {
		entry, ok := r.Lookup(a.QuizID)
		if !ok {
			out.Unclassified = append(out.Unclassified, a)
			continue
		}
		out.ByMode[entry.Mode] = append(out.ByMode[entry.Mode], a)
	}
	return out
}

// BuildLevelProgress aggregates the attempts of a single level.
func BuildLevelProgress(levelID string, attempts []domain.Attempt) domain.LevelProgress {
	lp := domain.LevelProgress{
		LevelID:        levelID,
		TotalAttempts:  len(attempts),
		RecentAttempts: []domain.Attempt{},
	}
	for _, a := range attempts {
		if a.IsCorrect {
			lp.CorrectAttempts++
			lp.IsCompleted = true
		}
		lp.TotalTimeSpent += a.TimeSpent
		if lp.LastAttemptDate == nil || a.AttemptedAt.After(*lp.LastAttemptDate) {
			at := a.AttemptedAt
			lp.LastAttemptDate = &at
		}
	}
	lp.RecentAttempts = recent(attempts)
	return lp
}

// BuildDifficultyProgress aggregates the levels of one difficulty.
func BuildDifficultyProgress(difficulty domain.Difficulty, levels []domain.LevelProgress) domain.DifficultyProgress {
	dp := domain.DifficultyProgress{
		Difficulty:  difficulty,
		TotalLevels: len(levels),
		Levels:      levels,
	}
	if dp.Levels == nil {
		dp.Levels = []domain.LevelProgress{}
	}

	var (
		scoreSum    float64
		scoredCount int
		attempts    []domain.Attempt
	)
	for _, lp := range levels {
		dp.TotalAttempts += lp.TotalAttempts
		dp.CorrectAttempts += lp.CorrectAttempts
		dp.TotalTimeSpent += lp.TotalTimeSpent
		if lp.TotalAttempts > 0 {
			scoreSum += percent(lp.CorrectAttempts, lp.TotalAttempts)
			scoredCount++
		}
		if lp.IsCompleted {
			dp.CompletedLevels++
			dp.BestTime = minTime(dp.BestTime, lp.TotalTimeSpent)
			dp.WorstTime = maxTime(dp.WorstTime, lp.TotalTimeSpent)
		}
		attempts = append(attempts, lp.RecentAttempts...)
	}

	dp.CompletionRate = percent(dp.CompletedLevels, dp.TotalLevels)
	if scoredCount > 0 {
		dp.AverageScore = scoreSum / float64(scoredCount)
	}
	dp.RecentAttempts = recent(attempts)
	return dp
}

// BuildModeProgress rolls difficulty aggregates up into one game mode.
// AverageScore is recomputed over every attempted level rather than averaging the tier averages.
func BuildModeProgress(mode domain.GameMode, difficulties []domain.DifficultyProgress) domain.ModeProgress {
	mp := domain.ModeProgress{
		Mode:                mode,
		DifficultyBreakdown: difficulties,
	}
	if mp.DifficultyBreakdown == nil {
		mp.DifficultyBreakdown = []domain.DifficultyProgress{}
	}

	var (
		scoreSum    float64
		scoredCount int
		attempts    []domain.Attempt
	)
	for _, dp := range difficulties {
		mp.TotalLevels += dp.TotalLevels
		mp.CompletedLevels += dp.CompletedLevels
		mp.TotalAttempts += dp.TotalAttempts
		mp.CorrectAttempts += dp.CorrectAttempts
		mp.TotalTimeSpent += dp.TotalTimeSpent
		if dp.BestTime != nil {
			mp.BestTime = minTime(mp.BestTime, *dp.BestTime)
		}
		if dp.WorstTime != nil {
			mp.WorstTime = maxTime(mp.WorstTime, *dp.WorstTime)
		}
		for _, lp := range dp.Levels {
			if lp.TotalAttempts > 0 {
				scoreSum += percent(lp.CorrectAttempts, lp.TotalAttempts)
				scoredCount++
			}
		}
		attempts = append(attempts, dp.RecentAttempts...)
	}

	mp.CompletionRate = percent(mp.CompletedLevels, mp.TotalLevels)
	if scoredCount > 0 {
		mp.AverageScore = scoreSum / float64(scoredCount)
	}
	mp.RecentAttempts = recent(attempts)
	return mp
}

// percent returns part/whole*100, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func minTime(cur *int, v int) *int {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxTime(cur *int, v int) *int {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

// recent returns a newest-first copy of attempts capped at RecentAttemptsWindow.
func recent(attempts []domain.Attempt) []domain.Attempt {
	out := make([]domain.Attempt, len(attempts))
	copy(out, attempts)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AttemptedAt.Equal(out[j].AttemptedAt) {
			return out[i].AttemptedAt.After(out[j].AttemptedAt)
		}
		return out[i].AttemptNumber > out[j].AttemptNumber
	})
	if len(out) > RecentAttemptsWindow {
		out = out[:RecentAttemptsWindow]
	}
	return out
}
