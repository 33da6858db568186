package validate

import (
	"fmt"
	"sort"
	"strings"

	"researchsim/internal/tech"
	"researchsim/internal/world"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDuplicateID           = "duplicate_id"
	codeUnknownCategory       = "unknown_category"
	codeMissingPrerequisite   = "missing_prerequisite"
	codePrerequisiteCycle     = "prerequisite_cycle"
	codeComplexityRange       = "complexity_out_of_range"
	codeDiscoveryChanceRange  = "discovery_chance_out_of_range"
	codeSkillThresholdRange   = "skill_threshold_out_of_range"
	codeNoRequiredSkills      = "no_required_skills"
	codeUnattainableSkill     = "unattainable_skill"
	codeInvalidWorld          = "invalid_world"
	codeSeedUnknownTechnology = "seed_unknown_technology"
	codeSeedLevelRange        = "seed_level_out_of_range"
	codeUnknownRelationPeer   = "unknown_relationship_peer"
	codeUnknownRelationLabel  = "unknown_relationship_label"
)

type Issue struct {
	Severity   Severity
	Code       string
	Message    string
	Technology string
	Agent      string
}

type Report struct {
	Issues []Issue
}

func (r *Report) add(severity Severity, code, technology, agent, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity:   severity,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Technology: technology,
		Agent:      agent,
	})
}

func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (r *Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// Run checks the catalog on its own and, when file is non-nil, the world
// against it.
func Run(defs []tech.Definition, file *world.File) *Report {
	report := &Report{}
	checkCatalog(report, defs)
	if file != nil {
		checkWorld(report, defs, *file)
	}
	return report
}

func checkCatalog(report *Report, defs []tech.Definition) {
	ids := make(map[string]bool, len(defs))
	for _, def := range defs {
		if ids[def.ID] {
			report.add(SeverityError, codeDuplicateID, def.ID, "", "duplicate technology id: %s", def.ID)
		}
		ids[def.ID] = true
	}

	for _, def := range defs {
		if !def.Category.Valid() {
			report.add(SeverityError, codeUnknownCategory, def.ID, "", "unknown category: %q", def.Category)
		}
		if def.Complexity < 0 || def.Complexity > 1 {
			report.add(SeverityError, codeComplexityRange, def.ID, "", "complexity must be between 0 and 1, got %g", def.Complexity)
		}
		if def.DiscoveryChance < 0 || def.DiscoveryChance > 1 {
			report.add(SeverityError, codeDiscoveryChanceRange, def.ID, "", "discovery_chance must be between 0 and 1, got %g", def.DiscoveryChance)
		}
		for _, prereq := range def.Prerequisites {
			if !ids[prereq] {
				report.add(SeverityError, codeMissingPrerequisite, def.ID, "", "unknown prerequisite: %s", prereq)
			}
		}
		if len(def.RequiredSkills) == 0 {
			report.add(SeverityWarn, codeNoRequiredSkills, def.ID, "", "no required skills; any agent can research it")
		}
		for _, skill := range sortedSkills(def.RequiredSkills) {
			if level := def.RequiredSkills[skill]; level < 0 || level > 1 {
				report.add(SeverityError, codeSkillThresholdRange, def.ID, "", "required %s level must be between 0 and 1, got %g", skill, level)
			}
		}
	}

	for _, cycle := range findCycles(defs) {
		report.add(SeverityError, codePrerequisiteCycle, cycle[0], "", "prerequisite cycle: %s", strings.Join(cycle, " -> "))
	}
}

// findCycles walks the prerequisite graph depth first and returns each cycle
// once, starting and ending at the same id.
func findCycles(defs []tech.Definition) [][]string {
	prereqs := make(map[string][]string, len(defs))
	for _, def := range defs {
		prereqs[def.ID] = append(prereqs[def.ID], def.Prerequisites...)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(defs))
	var stack []string
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		state[id] = visiting
		stack = append(stack, id)
		for _, next := range prereqs[id] {
			if _, known := prereqs[next]; !known {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(next)
			case visiting:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := append([]string(nil), stack[start:]...)
				cycles = append(cycles, append(cycle, next))
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, def := range defs {
		if state[def.ID] == unvisited {
			visit(def.ID)
		}
	}
	return cycles
}

func checkWorld(report *Report, defs []tech.Definition, file world.File) {
	if _, err := world.New(file); err != nil {
		report.add(SeverityError, codeInvalidWorld, "", "", "%v", err)
	}

	known := make(map[string]bool, len(defs))
	for _, def := range defs {
		known[def.ID] = true
	}
	agents := make(map[string]bool, len(file.Agents))
	for _, spec := range file.Agents {
		agents[spec.Name] = true
	}

	for _, seed := range file.SeedKnowledge {
		if !known[seed.Technology] {
			report.add(SeverityError, codeSeedUnknownTechnology, seed.Technology, seed.Agent, "seed knowledge references unknown technology: %s", seed.Technology)
		}
		if seed.Level < 0 || seed.Level > 1 {
			report.add(SeverityError, codeSeedLevelRange, seed.Technology, seed.Agent, "seed level must be between 0 and 1, got %g", seed.Level)
		}
	}

	for _, spec := range file.Agents {
		for _, peer := range sortedPeers(spec.Relationships) {
			if !agents[peer] {
				report.add(SeverityWarn, codeUnknownRelationPeer, "", spec.Name, "relationship with unknown agent: %s", peer)
			}
			label := tech.Relationship(strings.ToLower(spec.Relationships[peer]))
			if !label.Known() {
				report.add(SeverityWarn, codeUnknownRelationLabel, "", spec.Name, "unknown relationship label %q for %s", spec.Relationships[peer], peer)
			}
		}
	}

	if len(file.Agents) == 0 {
		return
	}
	best := make(map[string]float64)
	for _, spec := range file.Agents {
		for skill, level := range spec.Skills {
			if level > best[skill] {
				best[skill] = level
			}
		}
	}
	for _, def := range defs {
		for _, skill := range sortedSkills(def.RequiredSkills) {
			if need := def.RequiredSkills[skill]; best[skill] < need {
				report.add(SeverityWarn, codeUnattainableSkill, def.ID, "", "no agent reaches %s %g (best %g)", skill, need, best[skill])
			}
		}
	}
}

func sortedSkills(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPeers(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
