package sim

import (
	"github.com/pthm-cable/vivarium/genome"
	"github.com/pthm-cable/vivarium/neural"
	"github.com/pthm-cable/vivarium/telemetry"
)

// AgentSnapshot is the read-only projection of one agent for external
// consumers. Every slice is a fresh copy; nothing aliases live state.
type AgentSnapshot struct {
	ID         uint32  `json:"id"`
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	VelX       float32 `json:"vel_x"`
	VelY       float32 `json:"vel_y"`
	Heading    float32 `json:"heading"`
	Energy     float32 `json:"energy"`
	Hydration  float32 `json:"hydration"`
	Age        float32 `json:"age"`
	Stress     float32 `json:"stress"`
	Sex        uint8   `json:"sex"`
	Generation int32   `json:"generation"`
	Mutations  int32   `json:"mutations"`
	Infected   bool    `json:"infected"`

	Traits  Traits `json:"traits"`
	Species int    `json:"species"`

	// Last controller I/O, for inspection panels.
	Inputs  []float32 `json:"inputs,omitempty"`
	Outputs []float32 `json:"outputs,omitempty"`

	// RNN hidden state; nil for FNN controllers.
	Hidden []float32 `json:"hidden,omitempty"`
}

// Snapshot is a consistent read-only copy of world state taken between
// ticks.
type Snapshot struct {
	Tick     int64   `json:"tick"`
	SimTime  float64 `json:"sim_time"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Boundary string  `json:"boundary"`
	Paused   bool    `json:"paused"`

	Agents    []AgentSnapshot `json:"agents"`
	Food      []Food          `json:"food"`
	Water     []Water         `json:"water"`
	Obstacles []Obstacle      `json:"obstacles"`

	Population    int   `json:"population"`
	Infected      int   `json:"infected"`
	MaxGeneration int32 `json:"max_generation"`
}

// Snapshot builds a read-only copy of the current world state. Call it
// between ticks; it never mutates simulation state.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.tick,
		SimTime:  s.simTime,
		Width:    s.cfg.World.Width,
		Height:   s.cfg.World.Height,
		Boundary: s.cfg.World.Boundary,
		Paused:   s.paused,
		Agents:   make([]AgentSnapshot, 0, s.aliveCount),
	}

	query := s.agentFilter.Query()
	for query.Next() {
		pos, vel, rot, _, vitals, traits, ag := query.Get()
		if !vitals.Alive {
			continue
		}

		a := AgentSnapshot{
			ID:         ag.ID,
			X:          pos.X,
			Y:          pos.Y,
			VelX:       vel.X,
			VelY:       vel.Y,
			Heading:    rot.Heading,
			Energy:     vitals.Energy,
			Hydration:  vitals.Hydration,
			Age:        vitals.Age,
			Stress:     vitals.Stress,
			Sex:        ag.Sex,
			Generation: ag.Generation,
			Mutations:  ag.Mutations,
			Infected:   ag.Infected,
			Traits:     *traits,
			Species:    speciesBucket(traits),
		}

		if io := s.lastIO[ag.ID]; io != nil {
			a.Inputs = append([]float32(nil), io.inputs...)
			a.Outputs = append([]float32(nil), io.outputs...)
		}
		if rnn, ok := s.brains[ag.ID].(*neural.RNN); ok {
			a.Hidden = append([]float32(nil), rnn.Hidden()...)
		}

		if ag.Generation > snap.MaxGeneration {
			snap.MaxGeneration = ag.Generation
		}
		if ag.Infected {
			snap.Infected++
		}
		snap.Agents = append(snap.Agents, a)
	}
	snap.Population = len(snap.Agents)

	for i := range s.foods {
		if s.foods[i].Alive {
			snap.Food = append(snap.Food, s.foods[i])
		}
	}
	snap.Water = append([]Water(nil), s.waters...)
	snap.Obstacles = append([]Obstacle(nil), s.obstacles...)

	return snap
}

// speciesBucket is a coarse similarity cluster over the body-plan traits:
// size, aggression, and speed each quantized to four bins. Agents in the
// same bucket are morphologically close; it is a display grouping, not a
// taxonomy.
func speciesBucket(t *Traits) int {
	return quantize(float64(t.Size), genome.TraitSize)*16 +
		quantize(float64(t.Aggression), genome.TraitAggression)*4 +
		quantize(float64(t.Speed), genome.TraitSpeed)
}

func quantize(v float64, trait genome.Trait) int {
	lo, hi := genome.TraitBounds(trait)
	f := (v - lo) / (hi - lo)
	q := int(f * 4)
	if q < 0 {
		q = 0
	} else if q > 3 {
		q = 3
	}
	return q
}

// SamplePopulation gathers the per-agent values for a telemetry window
// flush.
func (s *Simulation) SamplePopulation() telemetry.PopulationSample {
	sample := telemetry.PopulationSample{
		Population: s.aliveCount,
		FoodCount:  s.foodCount,
	}

	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, _, vitals, traits, ag := query.Get()
		if !vitals.Alive {
			continue
		}
		sample.Energy = append(sample.Energy, float64(vitals.Energy))
		sample.Hydration = append(sample.Hydration, float64(vitals.Hydration))
		sample.Age = append(sample.Age, float64(vitals.Age))
		sample.Speed = append(sample.Speed, float64(traits.Speed))
		if ag.Infected {
			sample.Infected++
		}
		if int(ag.Generation) > sample.Generation {
			sample.Generation = int(ag.Generation)
		}
	}
	return sample
}
