package domain

import "time"

// Difficulty is the tier a level belongs to within a game mode.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the tiers in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GameMode names a family of levels (e.g. "translate", "listen").
type GameMode string

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

// LevelStatus is the unlock state shown on level pickers.
type LevelStatus string

const (
	LevelLocked    LevelStatus = "locked"
	LevelCurrent   LevelStatus = "current"
	LevelCompleted LevelStatus = "completed"
)

// Level is one playable quiz level. Levels come from content seeding and never change at runtime.
type Level struct {
	ID         string      `json:"id"`
	Number     int         `json:"number"`
	Title      string      `json:"title"`
	Difficulty Difficulty  `json:"difficulty"`
	Mode       GameMode    `json:"mode"`
	Status     LevelStatus `json:"status,omitempty"`
}

// Attempt is a single recorded submission for a quiz question.
type Attempt struct {
	QuizID        string    `json:"quizId"`
	AttemptedAt   time.Time `json:"attemptDate"`
	IsCorrect     bool      `json:"isCorrect"`
	TimeSpent     int       `json:"timeSpent"` // seconds
	AttemptNumber int       `json:"attemptNumber"`
}

// SessionState is the snapshot handed to the presentation layer.
type SessionState struct {
	Status       Status     `json:"status"`
	LevelID      string     `json:"levelId"`
	GameMode     GameMode   `json:"gameMode"`
	Difficulty   Difficulty `json:"difficulty"`
	TimeElapsed  int        `json:"timeElapsed"`
	TimerRunning bool       `json:"timerRunning"`
}

// LevelProgress aggregates the attempt history of one level.
type LevelProgress struct {
	LevelID         string      `json:"levelId"`
	Title           string      `json:"title,omitempty"`
	Status          LevelStatus `json:"status,omitempty"`
	IsCompleted     bool        `json:"isCompleted"`
	TotalAttempts   int         `json:"totalAttempts"`
	CorrectAttempts int         `json:"correctAttempts"`
	TotalTimeSpent  int         `json:"totalTimeSpent"`
	LastAttemptDate *time.Time  `json:"lastAttemptDate,omitempty"`
	RecentAttempts  []Attempt   `json:"recentAttempts"`
}

// DifficultyProgress aggregates all levels of one difficulty within a mode.
// BestTime and WorstTime are nil when no level has been completed.
type DifficultyProgress struct {
	Difficulty      Difficulty      `json:"difficulty"`
	TotalLevels     int             `json:"totalLevels"`
	CompletedLevels int             `json:"completedLevels"`
	CompletionRate  float64         `json:"completionRate"`
	AverageScore    float64         `json:"averageScore"`
	BestTime        *int            `json:"bestTime,omitempty"`
	WorstTime       *int            `json:"worstTime,omitempty"`
	TotalAttempts   int             `json:"totalAttempts"`
	CorrectAttempts int             `json:"correctAttempts"`
	TotalTimeSpent  int             `json:"totalTimeSpent"`
	Levels          []LevelProgress `json:"levels"`
	RecentAttempts  []Attempt       `json:"recentAttempts"`
}

// ModeProgress aggregates every difficulty of one game mode.
type ModeProgress struct {
	Mode                GameMode             `json:"mode"`
	TotalLevels         int                  `json:"totalLevels"`
	CompletedLevels     int                  `json:"completedLevels"`
	CompletionRate      float64              `json:"completionRate"`
	AverageScore        float64              `json:"averageScore"`
	BestTime            *int                 `json:"bestTime,omitempty"`
	WorstTime           *int                 `json:"worstTime,omitempty"`
	TotalAttempts       int                  `json:"totalAttempts"`
	CorrectAttempts     int                  `json:"correctAttempts"`
	TotalTimeSpent      int                  `json:"totalTimeSpent"`
	DifficultyBreakdown []DifficultyProgress `json:"difficultyBreakdown"`
	RecentAttempts      []Attempt            `json:"recentAttempts"`
}

// ProgressResult is what a progress store returns for a single level:
// either NoProgress or SingleLevelProgress.
type ProgressResult interface {
	isProgressResult()
}

// NoProgress means the level has never been attempted.
type NoProgress struct{}

// SingleLevelProgress carries the stored aggregate for one level.
type SingleLevelProgress struct {
	Progress LevelProgress
}

func (NoProgress) isProgressResult()          {}
func (SingleLevelProgress) isProgressResult() {}

// TimeSpent returns the persisted elapsed time carried by r, or 0.
func TimeSpent(r ProgressResult) int {
	if p, ok := r.(SingleLevelProgress); ok {
		return p.Progress.TotalTimeSpent
	}
	return 0
}
