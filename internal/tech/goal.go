package tech

import "fmt"

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, known := range priorities {
		if p == known {
			return true
		}
	}
	return false
}

type Goal struct {
	ID         string   `json:"id"`
	Technology string   `json:"technology"`
	Setter     string   `json:"setter"`
	Priority   Priority `json:"priority"`
	SetDay     int      `json:"set_day"`
	Deadline   *int     `json:"deadline,omitempty"`
	Reward     string   `json:"reward,omitempty"`
	Completed  bool     `json:"completed"`
	Expired    bool     `json:"expired"`
	ClosedDay  int      `json:"closed_day,omitempty"`
	AchievedBy string   `json:"achieved_by,omitempty"`
}

func (g *Goal) Open() bool {
	return !g.Completed && !g.Expired
}

// Goals records declared research targets. Two setters chasing the same
// technology start a research race.
type Goals struct {
	catalog      *Catalog
	knowledge    *KnowledgeIndex
	competitions *Competitions
	rates        *Rates
	src          Source

	items []*Goal
}

func NewGoals(catalog *Catalog, knowledge *KnowledgeIndex, competitions *Competitions, rates *Rates, src Source) *Goals {
	return &Goals{catalog: catalog, knowledge: knowledge, competitions: competitions, rates: rates, src: src}
}

func (g *Goals) All() []*Goal {
	return append([]*Goal(nil), g.items...)
}

// Set declares a goal. It returns nil for an unknown or discovered technology
// or when the setter already has an open goal on it.
func (g *Goals) Set(techID, setter string, priority Priority, day int, deadline *int, reward string) *Goal {
	t, ok := g.catalog.Get(techID)
	if !ok || t.Discovered() || setter == "" {
		return nil
	}
	if !priority.Valid() {
		priority = PriorityMedium
	}
	for _, goal := range g.items {
		if goal.Open() && goal.Technology == techID && goal.Setter == setter {
			return nil
		}
	}
	goal := &Goal{
		ID:         newID(g.src, "goal"),
		Technology: techID,
		Setter:     setter,
		Priority:   priority,
		SetDay:     day,
		Reward:     reward,
	}
	if deadline != nil {
		d := *deadline
		goal.Deadline = &d
	}
	g.items = append(g.items, goal)
	return goal
}

func goalSetEvent(goal *Goal) Event {
	return Event{
		Kind:       EventGoalSet,
		Day:        goal.SetDay,
		Technology: goal.Technology,
		Group:      goal.Setter,
		Ref:        goal.ID,
		Detail:     map[string]any{"priority": string(goal.Priority)},
		Text:       fmt.Sprintf("%s set a goal to develop %s", goal.Setter, goal.Technology),
	}
}

func (g *Goals) Process(day int, pop *Population, emit Emit) error {
	for _, group := range pop.Groups() {
		if !group.Kind().Sponsors() || !roll(g.src, g.rates.GoalChance) {
			continue
		}
		candidates := g.catalog.Available(g.knowledge.GroupKnown(group.Name()))
		techID := pick(g.src, candidates)
		if techID == "" {
			continue
		}
		priority := priorities[g.src.IntN(len(priorities))]
		deadline := day + g.rates.GoalHorizonDays
		if goal := g.Set(techID, group.Name(), priority, day, &deadline, "prestige"); goal != nil {
			emit(goalSetEvent(goal))
		}
	}

	for _, goal := range g.items {
		if !goal.Open() {
			continue
		}
		t, ok := g.catalog.Get(goal.Technology)
		if !ok {
			return fmt.Errorf("processing goal %s: unknown technology %q", goal.ID, goal.Technology)
		}
		if d, done := t.Discovery(); done {
			goal.Completed = true
			goal.ClosedDay = day
			goal.AchievedBy = d.Discoverer
			emit(Event{
				Kind:       EventGoalCompleted,
				Day:        day,
				Technology: goal.Technology,
				Actor:      d.Discoverer,
				Group:      goal.Setter,
				Ref:        goal.ID,
				Text:       fmt.Sprintf("%s's goal to develop %s was achieved by %s", goal.Setter, t.Name, d.Discoverer),
			})
			continue
		}
		if goal.Deadline != nil && day > *goal.Deadline {
			goal.Expired = true
			goal.ClosedDay = day
			emit(Event{
				Kind:       EventGoalExpired,
				Day:        day,
				Technology: goal.Technology,
				Group:      goal.Setter,
				Ref:        goal.ID,
				Text:       fmt.Sprintf("%s's goal to develop %s expired", goal.Setter, t.Name),
			})
		}
	}

	g.startRaces(day, emit)
	return nil
}

func (g *Goals) startRaces(day int, emit Emit) {
	setters := make(map[string][]string)
	var techs []string
	for _, goal := range g.items {
		if !goal.Open() {
			continue
		}
		if _, seen := setters[goal.Technology]; !seen {
			techs = append(techs, goal.Technology)
		}
		setters[goal.Technology] = append(setters[goal.Technology], goal.Setter)
	}
	for _, techID := range techs {
		if len(setters[techID]) < 2 || g.competitions.ActiveFor(techID) != nil {
			continue
		}
		item := g.competitions.Start(CompetitionResearchRace, techID, setters[techID], "first discovery", day)
		if item != nil {
			emit(startedEvent(item, day))
		}
	}
}
