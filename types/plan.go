package types

// CourseInput is the learner's request that seeds a draft stream.
type CourseInput struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	TotalWeeks  int    `json:"totalWeeks" yaml:"total_weeks"`
	WeeklyHours int    `json:"weeklyHours" yaml:"weekly_hours"`
}

// CoursePlan is the canonical, display-ready curriculum.
// It is built exactly once per session, from a fully parsed draft document.
type CoursePlan struct {
	Title    string `json:"title" msgpack:"title"`
	OneLiner string `json:"oneLiner" msgpack:"one_liner"`
	Epics    []Epic `json:"epics" msgpack:"epics"`
}

// Epic is a week-scale unit of a curriculum.
type Epic struct {
	EpicID      string  `json:"epicId" msgpack:"epic_id"`
	WeekNumber  int     `json:"weekNumber" msgpack:"week_number"`
	Title       string  `json:"title" msgpack:"title"`
	Description string  `json:"description" msgpack:"description"`
	Stories     []Story `json:"stories" msgpack:"stories"`
}

// Story is a feature-scale unit inside an epic.
type Story struct {
	StoryID     string `json:"storyId" msgpack:"story_id"`
	Title       string `json:"title" msgpack:"title"`
	Description string `json:"description" msgpack:"description"`
	TaskCount   int    `json:"taskCount" msgpack:"task_count"`
	// Tasks is only populated when the wire document spells tasks out.
	Tasks []Task `json:"tasks,omitempty" msgpack:"tasks,omitempty"`
}

// Task is a gradable unit of work.
type Task struct {
	Title       string `json:"title" msgpack:"title"`
	Description string `json:"description" msgpack:"description"`
}

// StoryCount returns the total number of stories across all epics.
func (p *CoursePlan) StoryCount() int {
	n := 0
	for _, e := range p.Epics {
		n += len(e.Stories)
	}
	return n
}
