package match

import "loadboard/internal/model"

// Pool is the day's shared load pool. It is owned by the per-day matching step
// and shrinks as drivers claim loads; Remove is the single mutation. Earlier
// drivers in the roster get first pick, which is the documented fairness
// policy, so the pool must never be processed concurrently within a day.
type Pool struct {
	loads []model.Load
}

func NewPool(loads []model.Load) *Pool {
	return &Pool{loads: append([]model.Load(nil), loads...)}
}

// Loads exposes the remaining loads in stable insertion order. Callers must
// not mutate the returned slice.
func (p *Pool) Loads() []model.Load { return p.loads }

func (p *Pool) Remaining() int { return len(p.loads) }

// Remove claims a load out of the pool. Claimed loads are never reusable by
// any other driver that day.
func (p *Pool) Remove(id string) {
	for i, l := range p.loads {
		if l.ID == id {
			p.loads = append(p.loads[:i], p.loads[i+1:]...)
			return
		}
	}
}
