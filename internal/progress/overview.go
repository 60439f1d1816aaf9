package progress

import "quiz-progress-service/internal/domain"

// Overview is the dashboard view of a player's whole attempt history.
type Overview struct {
	Modes        []domain.ModeProgress `json:"modes"`
	Unclassified int                   `json:"unclassified"`
}

// Mode returns the aggregate for mode, if the catalog has it.
func (o Overview) Mode(mode domain.GameMode) (domain.ModeProgress, bool) {
	for _, mp := range o.Modes {
		if mp.Mode == mode {
			return mp, true
		}
	}
	return domain.ModeProgress{}, false
}

// Build runs the full pipeline: categorize, group by level, and aggregate every catalog
// level, including those never attempted.
func Build(c Catalog, attempts []domain.Attempt) Overview {
	cat := Categorize(c, attempts)
	out := Overview{
		Modes:        make([]domain.ModeProgress, 0, len(c.Modes())),
		Unclassified: len(cat.Unclassified),
	}
	for _, mode := range c.Modes() {
		out.Modes = append(out.Modes, buildMode(c, mode, cat.ByMode[mode]))
	}
	return out
}

func buildMode(c Catalog, mode domain.GameMode, attempts []domain.Attempt) domain.ModeProgress {
	byLevel := make(map[string][]domain.Attempt)
	for _, a := range attempts {
		if entry, ok := c.Lookup(a.QuizID); ok {
			byLevel[entry.LevelID] = append(byLevel[entry.LevelID], a)
		}
	}

	difficulties := make([]domain.DifficultyProgress, 0, len(domain.Difficulties))
	for _, diff := range domain.Difficulties {
		levels := c.Levels(mode, diff)
		lps := make([]domain.LevelProgress, 0, len(levels))
		for _, level := range levels {
			lp := BuildLevelProgress(level.ID, byLevel[level.ID])
			lp.Title = level.Title
			lps = append(lps, lp)
		}
		AssignLevelStatus(lps)
		difficulties = append(difficulties, BuildDifficultyProgress(diff, lps))
	}
	return BuildModeProgress(mode, difficulties)
}

// AssignLevelStatus marks completed levels, makes the first unfinished level current
// and locks the rest.
func AssignLevelStatus(levels []domain.LevelProgress) {
	currentSet := false
	for i := range levels {
		switch {
		case levels[i].IsCompleted:
			levels[i].Status = domain.LevelCompleted
		case !currentSet:
			levels[i].Status = domain.LevelCurrent
			currentSet = true
		default:
			levels[i].Status = domain.LevelLocked
		}
	}
}
