package tech

import (
	"fmt"
	"math"
)

type FailureKind string

const (
	FailureResourceDepletion      FailureKind = "resource_depletion"
	FailureSkillInadequacy        FailureKind = "skill_inadequacy"
	FailureCollaborationBreakdown FailureKind = "collaboration_breakdown"
	FailureAccidentalDestruction  FailureKind = "accidental_destruction"
)

var failureKinds = []FailureKind{
	FailureResourceDepletion, FailureSkillInadequacy, FailureCollaborationBreakdown, FailureAccidentalDestruction,
}

type Failure struct {
	ID             string             `json:"id"`
	Project        string             `json:"project"`
	Technology     string             `json:"technology"`
	Lead           string             `json:"lead"`
	Kind           FailureKind        `json:"kind"`
	Day            int                `json:"day"`
	ResourcesLost  map[string]float64 `json:"resources_lost"`
	SkillPenalties map[string]float64 `json:"skill_penalties,omitempty"`
	LessonsLearned map[string]float64 `json:"lessons_learned,omitempty"`
}

// Failures rolls research failures. A failed project is abandoned for good;
// what it taught speeds up later attempts on the same technology.
type Failures struct {
	catalog  *Catalog
	projects *Projects
	rates    *Rates
	src      Source

	items []*Failure
}

func NewFailures(catalog *Catalog, projects *Projects, rates *Rates, src Source) *Failures {
	return &Failures{catalog: catalog, projects: projects, rates: rates, src: src}
}

func (f *Failures) All() []*Failure {
	return append([]*Failure(nil), f.items...)
}

func (f *Failures) Chance(t *Technology) float64 {
	return f.rates.FailureBase + t.Complexity*f.rates.FailureComplexity
}

func (f *Failures) Process(day int, pop *Population, emit Emit) error {
	for _, p := range f.projects.Active() {
		t, ok := f.catalog.Get(p.Technology)
		if !ok {
			return fmt.Errorf("checking failure of %s: unknown technology %q", p.ID, p.Technology)
		}
		if !roll(f.src, f.Chance(t)) {
			continue
		}
		failure := f.fail(p, t, day)
		f.items = append(f.items, failure)

		var lessons float64
		for _, v := range failure.LessonsLearned {
			lessons += v
		}
		f.projects.addLessons(t.ID, lessons)
		f.projects.transition(p, StatusAbandoned, day, ReasonFailure)

		emit(Event{
			Kind:       EventResearchFailure,
			Day:        day,
			Technology: t.ID,
			Actor:      p.Lead,
			Group:      p.Sponsor,
			Ref:        failure.ID,
			Detail: map[string]any{
				"kind":           string(failure.Kind),
				"project":        p.ID,
				"resources_lost": cloneLevels(failure.ResourcesLost),
			},
			Text: fmt.Sprintf("research on %s led by %s failed (%s)", t.Name, p.Lead, failure.Kind),
		})
		if lead, ok := pop.Agent(p.Lead); ok && lead.Alive() {
			lead.Remember(Memory{
				Text:       fmt.Sprintf("My research on %s failed, but I learned from it", t.Name),
				Importance: 0.7,
				Kind:       "failure",
				Emotion:    "frustrated",
			})
		}
	}
	return nil
}

func (f *Failures) fail(p *Project, t *Technology, day int) *Failure {
	kind := failureKinds[f.src.IntN(len(failureKinds))]
	lost := map[string]float64{
		"time":       p.Progress * f.src.Uniform(0.2, 0.5),
		"materials":  f.src.Uniform(0.1, 0.5),
		"reputation": f.src.Uniform(0, 0.3),
	}
	penalties := make(map[string]float64)
	switch kind {
	case FailureResourceDepletion:
		lost["materials"] = math.Min(1, lost["materials"]*1.5)
	case FailureSkillInadequacy:
		for _, name := range sortedKeys(t.RequiredSkills) {
			penalties[name] = f.src.Uniform(0.05, 0.1)
		}
	case FailureCollaborationBreakdown:
		lost["reputation"] = math.Min(1, lost["reputation"]*1.5)
	case FailureAccidentalDestruction:
		lost["time"] = p.Progress
		lost["materials"] = math.Min(1, lost["materials"]*2)
	}
	lessons := make(map[string]float64)
	for _, name := range sortedKeys(t.RequiredSkills) {
		lessons[name] = sample(f.src, f.rates.LessonsPerSkill)
	}
	return &Failure{
		ID:             newID(f.src, "failure"),
		Project:        p.ID,
		Technology:     t.ID,
		Lead:           p.Lead,
		Kind:           kind,
		Day:            day,
		ResourcesLost:  lost,
		SkillPenalties: penalties,
		LessonsLearned: lessons,
	}
}
