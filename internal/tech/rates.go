package tech

import (
	"errors"
	"fmt"
)

type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("%s: max %.3f below min %.3f", name, r.Max, r.Min)
	}
	return nil
}

// Rates holds every tunable of the subsystem. Zero values are meaningful
// (they disable the matching roll), so callers start from DefaultRates.
type Rates struct {
	DiscoveryPeriodDays float64 `yaml:"discovery_period_days"`

	RequiredJitter          Range     `yaml:"required_jitter"`
	RateJitter              Range     `yaml:"rate_jitter"`
	ProgressJitter          Range     `yaml:"progress_jitter"`
	BaseDailyRate           float64   `yaml:"base_daily_rate"`
	LeadSkillWeight         float64   `yaml:"lead_skill_weight"`
	CollaboratorSkillWeight float64   `yaml:"collaborator_skill_weight"`
	BreakthroughLadder      []float64 `yaml:"breakthrough_ladder"`
	BreakthroughBoost       float64   `yaml:"breakthrough_boost"`
	LeadAbsentAbandon       float64   `yaml:"lead_absent_abandon"`
	CollaboratorKnowledge   float64   `yaml:"collaborator_knowledge"`

	InitiateChance     float64 `yaml:"initiate_chance"`
	GroupSponsorChance float64 `yaml:"group_sponsor_chance"`
	GroupCandidates    int     `yaml:"group_candidates"`
	MaxCollaborators   int     `yaml:"max_collaborators"`

	InnovationChance     float64 `yaml:"innovation_chance"`
	RecentInnovationDays int     `yaml:"recent_innovation_days"`

	TeachChance          float64 `yaml:"teach_chance"`
	TeachBaseSuccess     float64 `yaml:"teach_base_success"`
	TeacherSkillWeight   float64 `yaml:"teacher_skill_weight"`
	LearnerSkillWeight   float64 `yaml:"learner_skill_weight"`
	RelationshipWeight   float64 `yaml:"relationship_weight"`
	TeachSuccessBounds   Range   `yaml:"teach_success_bounds"`
	TaughtKnowledge      Range   `yaml:"taught_knowledge"`
	InstitutionChance    float64 `yaml:"institution_chance"`
	InstitutionKnowledge float64 `yaml:"institution_knowledge"`

	GoalChance      float64 `yaml:"goal_chance"`
	GoalHorizonDays int     `yaml:"goal_horizon_days"`

	SabotageChance  float64 `yaml:"sabotage_chance"`
	SabotageSuccess float64 `yaml:"sabotage_success"`

	FailureBase       float64 `yaml:"failure_base"`
	FailureComplexity float64 `yaml:"failure_complexity"`
	LessonsPerSkill   Range   `yaml:"lessons_per_skill"`
	LessonsCap        float64 `yaml:"lessons_cap"`

	ConflictInterval  int     `yaml:"conflict_interval"`
	ConflictChance    float64 `yaml:"conflict_chance"`
	ConflictGap       int     `yaml:"conflict_gap"`
	ConflictIntensity Range   `yaml:"conflict_intensity"`
	EscalateChance    float64 `yaml:"escalate_chance"`
	EscalateStep      float64 `yaml:"escalate_step"`
	DeescalateChance  float64 `yaml:"deescalate_chance"`
	DeescalateStep    float64 `yaml:"deescalate_step"`
	ResolveChance     float64 `yaml:"resolve_chance"`
}

func DefaultRates() Rates {
	return Rates{
		DiscoveryPeriodDays: 365,

		RequiredJitter:          Range{Min: 0.8, Max: 1.2},
		RateJitter:              Range{Min: 0.8, Max: 1.2},
		ProgressJitter:          Range{Min: 0.7, Max: 1.3},
		BaseDailyRate:           1.0,
		LeadSkillWeight:         0.5,
		CollaboratorSkillWeight: 0.2,
		BreakthroughLadder:      []float64{0.1, 0.15, 0.2, 0.25},
		BreakthroughBoost:       0.3,
		LeadAbsentAbandon:       0.3,
		CollaboratorKnowledge:   0.8,

		InitiateChance:     0.05,
		GroupSponsorChance: 0.08,
		GroupCandidates:    3,
		MaxCollaborators:   2,

		InnovationChance:     0.01,
		RecentInnovationDays: 30,

		TeachChance:          0.1,
		TeachBaseSuccess:     0.6,
		TeacherSkillWeight:   0.3,
		LearnerSkillWeight:   0.2,
		RelationshipWeight:   0.2,
		TeachSuccessBounds:   Range{Min: 0.05, Max: 0.95},
		TaughtKnowledge:      Range{Min: 0.5, Max: 0.8},
		InstitutionChance:    0.2,
		InstitutionKnowledge: 0.6,

		GoalChance:      0.02,
		GoalHorizonDays: 365,

		SabotageChance:  0.05,
		SabotageSuccess: 0.3,

		FailureBase:       0.02,
		FailureComplexity: 0.01,
		LessonsPerSkill:   Range{Min: 0.05, Max: 0.15},
		LessonsCap:        0.5,

		ConflictInterval:  7,
		ConflictChance:    0.1,
		ConflictGap:       2,
		ConflictIntensity: Range{Min: 0.3, Max: 0.7},
		EscalateChance:    0.05,
		EscalateStep:      0.1,
		DeescalateChance:  0.03,
		DeescalateStep:    0.1,
		ResolveChance:     0.03,
	}
}

// Validate reports every inconsistent tunable at once.
func (r Rates) Validate() error {
	var errs []error
	if r.DiscoveryPeriodDays <= 0 {
		errs = append(errs, fmt.Errorf("discovery_period_days must be positive, got %.3f", r.DiscoveryPeriodDays))
	}
	if r.BaseDailyRate < 0 {
		errs = append(errs, fmt.Errorf("base_daily_rate must not be negative, got %.3f", r.BaseDailyRate))
	}
	if len(r.BreakthroughLadder) == 0 {
		errs = append(errs, errors.New("breakthrough_ladder must have at least one stage"))
	}
	for name, rg := range map[string]Range{
		"required_jitter":      r.RequiredJitter,
		"rate_jitter":          r.RateJitter,
		"progress_jitter":      r.ProgressJitter,
		"teach_success_bounds": r.TeachSuccessBounds,
		"taught_knowledge":     r.TaughtKnowledge,
		"lessons_per_skill":    r.LessonsPerSkill,
		"conflict_intensity":   r.ConflictIntensity,
	} {
		if err := rg.validate(name); err != nil {
			errs = append(errs, err)
		}
	}
	for name, rg := range map[string]Range{
		"required_jitter": r.RequiredJitter,
		"rate_jitter":     r.RateJitter,
		"progress_jitter": r.ProgressJitter,
	} {
		if rg.Min < 0 {
			errs = append(errs, fmt.Errorf("%s must not go below zero, got min %.3f", name, rg.Min))
		}
	}
	if r.LessonsCap < 0 {
		errs = append(errs, fmt.Errorf("lessons_cap must not be negative, got %.3f", r.LessonsCap))
	}
	if r.ConflictInterval <= 0 {
		errs = append(errs, fmt.Errorf("conflict_interval must be positive, got %d", r.ConflictInterval))
	}
	if r.MaxCollaborators < 0 {
		errs = append(errs, fmt.Errorf("max_collaborators must not be negative, got %d", r.MaxCollaborators))
	}
	return errors.Join(errs...)
}
