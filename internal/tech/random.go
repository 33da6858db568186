package tech

import (
	"io"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the single random stream every roll in the subsystem draws from.
// Replaying a run with the same seed and inputs reproduces it exactly.
type Source interface {
	io.Reader
	Float64() float64
	IntN(n int) int
	Uniform(min, max float64) float64
}

type Rand struct {
	pcg *rand.PCG
	rng *rand.Rand
}

var _ Source = (*Rand)(nil)

func NewRand(seed uint64) *Rand {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{pcg: pcg, rng: rand.New(pcg)}
}

func (r *Rand) Float64() float64 {
	return r.rng.Float64()
}

func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rng.IntN(n)
}

// Uniform samples [min, max). A degenerate range returns min without consuming
// a draw, which lets tests pin jitter factors to exact values.
func (r *Rand) Uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return distuv.Uniform{Min: min, Max: max, Src: r.pcg}.Rand()
}

func (r *Rand) Read(p []byte) (int, error) {
	var v uint64
	for i := range p {
		if i%8 == 0 {
			v = r.pcg.Uint64()
		}
		p[i] = byte(v >> (8 * (i % 8)))
	}
	return len(p), nil
}

func roll(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}

func sample(src Source, r Range) float64 {
	return src.Uniform(r.Min, r.Max)
}

func pick(src Source, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[src.IntN(len(items))]
}

func newID(src Source, prefix string) string {
	id, err := uuid.NewRandomFromReader(src)
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}
