package main

import (
	"github.com/born-ml/tengu"
)

// walk is the demonstration graph: a point moving by a fixed velocity, with
// its position fed back as the next state.
type walk struct {
	graph *tengu.Graph
	pos   *tengu.Probe[float32]
	hit   *tengu.Probe[uint32]
}

// buildWalk builds
//
//	walk/pos = state + velocity
//	walk/hit = u32(pos == goal)
//
// and links walk/pos back into walk/state.
func buildWalk(tg *tengu.Tengu) (*walk, error) {
	velocity := tengu.Init(tg.Tensor(2, 4).Label("velocity"), []float32{1, 2, 3, 4, -1, -2, -3, -4})
	state := tengu.Zero[float32](tg.Like(velocity).Label("state"))
	goal := tengu.Init(tg.Tensor(4).Label("goal"), []float32{3, 6, 9, 12})

	g := tg.Graph()
	blk, err := g.AddBlock("walk")
	if err != nil {
		return nil, err
	}
	pos := state.Add(velocity)
	blk.AddComputation("pos", pos).
		AddComputation("hit", tengu.Cast[uint32](pos.Eq(goal)))

	if _, err := g.AddLink("walk/pos", "walk/state"); err != nil {
		return nil, err
	}
	posProbe, err := tengu.AddProbe[float32](g, "walk/pos")
	if err != nil {
		return nil, err
	}
	hitProbe, err := tengu.AddProbe[uint32](g, "walk/hit")
	if err != nil {
		return nil, err
	}
	return &walk{graph: g, pos: posProbe, hit: hitProbe}, nil
}
