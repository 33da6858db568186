package tech

import "fmt"

// Transfers moves knowledge between agents by teaching.
type Transfers struct {
	catalog   *Catalog
	knowledge *KnowledgeIndex
	rates     *Rates
	src       Source
}

func NewTransfers(catalog *Catalog, knowledge *KnowledgeIndex, rates *Rates, src Source) *Transfers {
	return &Transfers{catalog: catalog, knowledge: knowledge, rates: rates, src: src}
}

// SuccessChance combines the teacher's social skill, the learner's intellect
// and their relationship, bounded so no lesson is certain either way.
func (x *Transfers) SuccessChance(teacher, learner Agent) float64 {
	p := x.rates.TeachBaseSuccess +
		skill(teacher, "social")*x.rates.TeacherSkillWeight +
		skill(learner, "intellectual")*x.rates.LearnerSkillWeight +
		teacher.Relationship(learner.Name()).Weight()*x.rates.RelationshipWeight
	return clamp(p, x.rates.TeachSuccessBounds.Min, x.rates.TeachSuccessBounds.Max)
}

func (x *Transfers) Process(day int, pop *Population, emit Emit) error {
	living := pop.Living()
	for _, teacher := range living {
		known := x.knowledge.Known(teacher.Name())
		if len(known) == 0 || !roll(x.src, x.rates.TeachChance) {
			continue
		}
		var peers []Agent
		for _, peer := range living {
			if peer.Name() == teacher.Name() {
				continue
			}
			if len(x.knowledge.Known(peer.Name())) < len(known) {
				peers = append(peers, peer)
			}
		}
		if len(peers) == 0 {
			continue
		}
		learner := peers[x.src.IntN(len(peers))]
		x.teach(teacher, learner, x.src.Float64, sample(x.src, x.rates.TaughtKnowledge), day, emit, "")
	}

	for _, group := range pop.Groups() {
		if !group.Kind().Sponsors() || !roll(x.src, x.rates.InstitutionChance) {
			continue
		}
		members := pop.LivingMembers(group)
		if len(members) < 2 {
			continue
		}
		i := x.src.IntN(len(members))
		j := x.src.IntN(len(members) - 1)
		if j >= i {
			j++
		}
		x.teach(members[i], members[j], nil, x.rates.InstitutionKnowledge, day, emit, group.Name())
	}
	return nil
}

// teach passes one technology the learner lacks. A nil draw means the lesson
// always lands, as with institutional sharing.
func (x *Transfers) teach(teacher, learner Agent, draw func() float64, level float64, day int, emit Emit, group string) {
	teachable := x.knowledge.Known(teacher.Name()).Minus(x.knowledge.Known(learner.Name())).Sorted()
	if len(teachable) == 0 {
		return
	}
	techID := pick(x.src, teachable)
	if draw != nil && draw() >= x.SuccessChance(teacher, learner) {
		return
	}
	granted := x.knowledge.Grant(learner.Name(), techID, level)
	name := techID
	if t, ok := x.catalog.Get(techID); ok {
		name = t.Name
	}

	kind := EventKnowledgeTransfer
	if group != "" {
		kind = EventInstitutionalSharing
	}
	emit(Event{
		Kind:       kind,
		Day:        day,
		Technology: techID,
		Actor:      teacher.Name(),
		Subject:    learner.Name(),
		Group:      group,
		Detail:     map[string]any{"level": granted},
		Text:       fmt.Sprintf("%s taught %s to %s", teacher.Name(), name, learner.Name()),
	})
	teacher.Remember(Memory{
		Text:       fmt.Sprintf("I taught %s about %s", learner.Name(), name),
		Importance: 0.5,
		Kind:       "teaching",
		Emotion:    "fulfilled",
	})
	learner.Remember(Memory{
		Text:       fmt.Sprintf("%s taught me about %s", teacher.Name(), name),
		Importance: 0.6,
		Kind:       "learning",
		Emotion:    "grateful",
	})
}
