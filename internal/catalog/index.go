package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"quiz-progress-service/internal/domain"
)

// Entry is what an identifier resolves to.
type Entry struct {
	Mode       domain.GameMode
	Difficulty domain.Difficulty
	LevelID    string
	Number     int
	Title      string
}

// Index is built once from Content and is read-only afterwards; concurrent reads are safe.
type Index struct {
	modes    []domain.GameMode
	prefixes []prefixMode // longest prefix first
	byMode   map[domain.GameMode]map[int]Entry
	byLevel  map[string]Entry
	levels   map[domain.GameMode]map[domain.Difficulty][]domain.Level
}

type prefixMode struct {
	prefix string
	mode   domain.GameMode
}

// LevelID renders the canonical level identifier, e.g. LevelID("n-", 5) == "n-5".
func LevelID(prefix string, number int) string {
	return prefix + strconv.Itoa(number)
}

// NewIndex builds an index, rejecting duplicate modes, prefixes or level ids.
func NewIndex(c Content) (*Index, error) {
	ix := &Index{
		byMode:  make(map[domain.GameMode]map[int]Entry),
		byLevel: make(map[string]Entry),
		levels:  make(map[domain.GameMode]map[domain.Difficulty][]domain.Level),
	}
	seenPrefix := make(map[string]domain.GameMode)

	for _, m := range c.Modes {
		if _, dup := ix.byMode[m.Name]; dup {
			return nil, fmt.Errorf("duplicate mode %q", m.Name)
		}
		if other, dup := seenPrefix[m.Prefix]; dup {
			return nil, fmt.Errorf("prefix %q used by %q and %q", m.Prefix, other, m.Name)
		}
		seenPrefix[m.Prefix] = m.Name
		ix.modes = append(ix.modes, m.Name)
		ix.prefixes = append(ix.prefixes, prefixMode{prefix: m.Prefix, mode: m.Name})
		ix.byMode[m.Name] = make(map[int]Entry)
		ix.levels[m.Name] = make(map[domain.Difficulty][]domain.Level)

		for _, diff := range domain.Difficulties {
			for _, lc := range m.Difficulties[diff] {
				if _, dup := ix.byMode[m.Name][lc.ID]; dup {
					return nil, fmt.Errorf("mode %q: duplicate level id %d", m.Name, lc.ID)
				}
				entry := Entry{
					Mode:       m.Name,
					Difficulty: diff,
					LevelID:    LevelID(m.Prefix, lc.ID),
					Number:     lc.ID,
					Title:      lc.Title,
				}
				ix.byMode[m.Name][lc.ID] = entry
				ix.byLevel[entry.LevelID] = entry
				ix.levels[m.Name][diff] = append(ix.levels[m.Name][diff], domain.Level{
					ID:         entry.LevelID,
					Number:     lc.ID,
					Title:      lc.Title,
					Difficulty: diff,
					Mode:       m.Name,
				})
			}
		}
	}

	sort.SliceStable(ix.prefixes, func(i, j int) bool {
		return len(ix.prefixes[i].prefix) > len(ix.prefixes[j].prefix)
	})
	return ix, nil
}

// NewDefaultIndex indexes the embedded content.
func NewDefaultIndex() (*Index, error) {
	c, err := DefaultContent()
	if err != nil {
		return nil, err
	}
	return NewIndex(c)
}

// Lookup resolves a quiz identifier in bare ("5") or prefixed ("n-5") form.
// A bare number found in more than one mode is ambiguous and does not resolve.
func (ix *Index) Lookup(quizID string) (Entry, bool) {
	id := strings.TrimSpace(quizID)
	if id == "" {
		return Entry{}, false
	}

	for _, p := range ix.prefixes {
		if !strings.HasPrefix(id, p.prefix) {
			continue
		}
		n, err := strconv.Atoi(id[len(p.prefix):])
		if err != nil {
			return Entry{}, false
		}
		entry, ok := ix.byMode[p.mode][n]
		return entry, ok
	}

	n, err := strconv.Atoi(id)
	if err != nil {
		return Entry{}, false
	}
	var (
		found Entry
		hits  int
	)
	for _, mode := range ix.modes {
		if entry, ok := ix.byMode[mode][n]; ok {
			found = entry
			hits++
		}
	}
	if hits != 1 {
		return Entry{}, false
	}
	return found, true
}

// Mode returns only the owning mode of quizID.
func (ix *Index) Mode(quizID string) (domain.GameMode, bool) {
	entry, ok := ix.Lookup(quizID)
	return entry.Mode, ok
}

// Level returns the level with the canonical id levelID.
func (ix *Index) Level(levelID string) (domain.Level, bool) {
	entry, ok := ix.byLevel[levelID]
	if !ok {
		return domain.Level{}, false
	}
	return domain.Level{
		ID:         entry.LevelID,
		Number:     entry.Number,
		Title:      entry.Title,
		Difficulty: entry.Difficulty,
		Mode:       entry.Mode,
	}, true
}

// Levels lists the levels of one mode and difficulty in content order.
func (ix *Index) Levels(mode domain.GameMode, difficulty domain.Difficulty) []domain.Level {
	src := ix.levels[mode][difficulty]
	out := make([]domain.Level, len(src))
	copy(out, src)
	return out
}

// Modes lists game modes in content order.
func (ix *Index) Modes() []domain.GameMode {
	out := make([]domain.GameMode, len(ix.modes))
	copy(out, ix.modes)
	return out
}
