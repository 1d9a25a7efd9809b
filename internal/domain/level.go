package domain

import (
	"fmt"
	"strings"
)

// Level identifies one of the six fixed depths of the content tree,
// ordered root to leaf.
type Level int

const (
	LevelExam Level = iota
	LevelSubject
	LevelUnit
	LevelChapter
	LevelTopic
	LevelSubTopic

	LevelCount = int(LevelSubTopic) + 1
)

type levelInfo struct {
	name   string
	plural string
	table  string
}

var levelInfos = [LevelCount]levelInfo{
	LevelExam:     {name: "exam", plural: "exams", table: "exam"},
	LevelSubject:  {name: "subject", plural: "subjects", table: "subject"},
	LevelUnit:     {name: "unit", plural: "units", table: "unit"},
	LevelChapter:  {name: "chapter", plural: "chapters", table: "chapter"},
	LevelTopic:    {name: "topic", plural: "topics", table: "topic"},
	LevelSubTopic: {name: "subtopic", plural: "subtopics", table: "subtopic"},
}

var levelsByName = func() map[string]Level {
	m := make(map[string]Level, LevelCount*2)
	for l := LevelExam; l <= LevelSubTopic; l++ {
		m[levelInfos[l].name] = l
		m[levelInfos[l].plural] = l
	}
	return m
}()

// ParseLevel accepts singular or plural level names ("unit", "units"),
// case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelsByName[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

func (l Level) Valid() bool { return l >= LevelExam && l <= LevelSubTopic }

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelInfos[l].name
}

// Table returns the storage table name for the level.
func (l Level) Table() string { return levelInfos[l].table }

// RefColumn is the name of the denormalized reference column that records
// at deeper levels carry for this level (e.g. "exam_id").
func (l Level) RefColumn() string { return levelInfos[l].name + "_id" }

// Parent returns the level directly above, false at the root.
func (l Level) Parent() (Level, bool) {
	if l == LevelExam {
		return 0, false
	}
	return l - 1, true
}

// Child returns the level directly below, false at the leaf.
func (l Level) Child() (Level, bool) {
	if l == LevelSubTopic {
		return 0, false
	}
	return l + 1, true
}

// Below lists every level strictly beneath l, root-most first.
func (l Level) Below() []Level {
	out := make([]Level, 0, LevelSubTopic-l)
	for d := l + 1; d <= LevelSubTopic; d++ {
		out = append(out, d)
	}
	return out
}

// Ancestors lists every level strictly above l, root-most first.
func (l Level) Ancestors() []Level {
	out := make([]Level, 0, l)
	for a := LevelExam; a < l; a++ {
		out = append(out, a)
	}
	return out
}
