package tech

import (
	"fmt"
	"strings"
)

type InnovationKind string

const (
	InnovationDiscovery   InnovationKind = "discovery"
	InnovationImprovement InnovationKind = "improvement"
	InnovationCombination InnovationKind = "combination"
	InnovationAdaptation  InnovationKind = "adaptation"
)

// rolledKinds are the kinds an innovation roll may land on. Discovery yields nothing.
var rolledKinds = []InnovationKind{
	InnovationImprovement, InnovationCombination, InnovationAdaptation, InnovationDiscovery,
}

type Innovation struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Kind         InnovationKind `json:"kind"`
	Technologies []string       `json:"technologies"`
	Creator      string         `json:"creator"`
	Day          int            `json:"day"`
	Impact       float64        `json:"impact"`
	Adoption     float64        `json:"adoption"`
}

var innovationRanges = map[InnovationKind][2]Range{
	InnovationImprovement: {{Min: 0.3, Max: 0.7}, {Min: 0.1, Max: 0.4}},
	InnovationCombination: {{Min: 0.5, Max: 0.9}, {Min: 0.05, Max: 0.3}},
	InnovationAdaptation:  {{Min: 0.2, Max: 0.6}, {Min: 0.2, Max: 0.5}},
}

// Innovations derives new inventions from technologies agents already know.
type Innovations struct {
	catalog   *Catalog
	knowledge *KnowledgeIndex
	rates     *Rates
	src       Source

	items []*Innovation
}

func NewInnovations(catalog *Catalog, knowledge *KnowledgeIndex, rates *Rates, src Source) *Innovations {
	return &Innovations{catalog: catalog, knowledge: knowledge, rates: rates, src: src}
}

func (n *Innovations) All() []*Innovation {
	return append([]*Innovation(nil), n.items...)
}

func (n *Innovations) Since(day int) int {
	var count int
	for _, item := range n.items {
		if item.Day >= day {
			count++
		}
	}
	return count
}

func (n *Innovations) Chance(agent Agent) float64 {
	return n.rates.InnovationChance *
		(1 + skill(agent, "intellectual")) *
		(1 + skill(agent, "crafting")*0.5) *
		(1 + trait(agent, "openness"))
}

func (n *Innovations) Process(day int, pop *Population, emit Emit) error {
	for _, agent := range pop.Living() {
		known := n.knowledge.Known(agent.Name()).Sorted()
		if len(known) == 0 || !roll(n.src, n.Chance(agent)) {
			continue
		}
		item := n.create(agent, known, day)
		if item == nil {
			continue
		}
		n.items = append(n.items, item)
		emit(Event{
			Kind:       EventInnovationCreated,
			Day:        day,
			Technology: item.Technologies[0],
			Actor:      agent.Name(),
			Ref:        item.ID,
			Detail: map[string]any{
				"kind":         string(item.Kind),
				"technologies": append([]string(nil), item.Technologies...),
				"impact":       item.Impact,
				"adoption":     item.Adoption,
			},
			Text: fmt.Sprintf("%s created %s", agent.Name(), item.Name),
		})
		agent.Remember(Memory{
			Text:       fmt.Sprintf("I came up with %s", item.Name),
			Importance: 0.8,
			Kind:       "innovation",
			Emotion:    "proud",
		})
	}
	return nil
}

func (n *Innovations) create(agent Agent, known []string, day int) *Innovation {
	kind := rolledKinds[n.src.IntN(len(rolledKinds))]
	var techs []string
	var name string
	switch kind {
	case InnovationImprovement:
		base := pick(n.src, known)
		techs = []string{base}
		name = "improved " + n.label(base)
	case InnovationCombination:
		if len(known) < 2 {
			return nil
		}
		i := n.src.IntN(len(known))
		j := n.src.IntN(len(known) - 1)
		if j >= i {
			j++
		}
		techs = []string{known[i], known[j]}
		name = n.label(known[i]) + " with " + n.label(known[j])
	case InnovationAdaptation:
		base := pick(n.src, known)
		techs = []string{base}
		name = "adapted " + n.label(base)
	default:
		return nil
	}
	ranges := innovationRanges[kind]
	return &Innovation{
		ID:           newID(n.src, "innovation"),
		Name:         name,
		Kind:         kind,
		Technologies: techs,
		Creator:      agent.Name(),
		Day:          day,
		Impact:       sample(n.src, ranges[0]),
		Adoption:     sample(n.src, ranges[1]),
	}
}

func (n *Innovations) label(id string) string {
	if t, ok := n.catalog.Get(id); ok {
		return strings.ToLower(t.Name)
	}
	return id
}
