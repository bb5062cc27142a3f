package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/vivarium/genome"
	"github.com/pthm-cable/vivarium/neural"
	"github.com/pthm-cable/vivarium/systems"
	"github.com/pthm-cable/vivarium/telemetry"
)

// updateMetabolism subtracts the tick's energy cost and decrements the
// reproduction cooldown. Starvation marks the agent dead.
func (s *Simulation) updateMetabolism(dt float32) {
	params := systems.MetabolismParams{
		BaseDrain:    float32(s.cfg.Energy.BaseDrain),
		MoveCost:     float32(s.cfg.Energy.MoveCost),
		SizeCost:     float32(s.cfg.Energy.SizeCost),
		SizeExponent: float32(s.cfg.Energy.SizeExponent),
	}
	maxEnergy := float32(s.cfg.Energy.Max)

	query := s.agentFilter.Query()
	for query.Next() {
		_, vel, _, _, vitals, traits, ag := query.Get()

		if !vitals.Alive {
			continue
		}

		speed := sqrtf(vel.X*vel.X + vel.Y*vel.Y)
		cost := systems.EnergyCost(params, traits.Size, speed, ag.Effort, traits.Efficiency, traits.MetabolicRate, dt)
		vitals.Energy -= cost
		if vitals.Energy > maxEnergy {
			vitals.Energy = maxEnergy
		}
		if vitals.Energy <= 0 {
			vitals.Energy = 0
			vitals.Alive = false
			ag.DeathCause = deathStarved
		}

		if ag.ReproCooldown > 0 {
			ag.ReproCooldown -= dt
			if ag.ReproCooldown < 0 {
				ag.ReproCooldown = 0
			}
		}
	}
}

// mateEligible reports whether an agent can take part in mating this tick.
func (s *Simulation) mateEligible(vitals *Vitals, traits *Traits, ag *Agent) bool {
	if !vitals.Alive || ag.ReproCooldown > 0 || ag.Mate <= 0.5 {
		return false
	}
	if vitals.Age < float32(s.cfg.Reproduction.MaturityAge) {
		return false
	}
	return vitals.Energy >= float32(s.cfg.Reproduction.MinEnergyFrac*s.cfg.Energy.Max)
}

// updateReproduction pairs willing mates and queues offspring for Cleanup.
// Females initiate, so each pair is considered exactly once per tick. The
// child genome is built immediately from both parents' genetic material;
// parents pay the energy cost and enter cooldown now.
func (s *Simulation) updateReproduction() {
	matingDist := float32(s.cfg.Reproduction.MatingDistance)
	energyCost := float32(s.cfg.Reproduction.EnergyCost)
	cooldown := float32(s.cfg.Reproduction.Cooldown)

	mut := genome.MutationParams{
		Rate:           s.cfg.Mutation.Rate,
		PointSigma:     s.cfg.Mutation.PointSigma,
		LargeChance:    s.cfg.Mutation.LargeChance,
		LargeSigma:     s.cfg.Mutation.LargeSigma,
		DominanceRate:  s.cfg.Mutation.DominanceRate,
		DominanceSigma: s.cfg.Mutation.DominanceSigma,
	}

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, rot, _, vitals, traits, ag := query.Get()

		if ag.Sex != SexFemale || !s.mateEligible(vitals, traits, ag) {
			continue
		}
		if s.aliveCount+len(s.births) >= s.cfg.Population.Max {
			continue
		}

		pv, pt, pa := s.findMate(entity, pos, matingDist)
		if pa == nil {
			continue
		}

		// Fertility of both parents gates the attempt.
		if s.rng.Float32() >= (traits.Fertility+pt.Fertility)*0.5 {
			continue
		}

		motherGenome := s.genomes[ag.ID]
		fatherGenome := s.genomes[pa.ID]
		if motherGenome == nil || fatherGenome == nil {
			continue
		}

		child := genome.Crossover(motherGenome, fatherGenome, s.cfg.Reproduction.CrossoverRate, s.rng)
		genome.Mutate(child, mut, s.rng)

		vitals.Energy -= energyCost
		pv.Energy -= energyCost
		ag.ReproCooldown = cooldown
		pa.ReproCooldown = cooldown

		gen := ag.Generation
		if pa.Generation > gen {
			gen = pa.Generation
		}

		offset := float32(10 + s.rng.Float32()*10)
		childX := pos.X + (s.rng.Float32()-0.5)*offset*2
		childY := pos.Y + (s.rng.Float32()-0.5)*offset*2
		childX, childY = s.confine(childX, childY)

		s.births = append(s.births, birthInfo{
			x:          childX,
			y:          childY,
			heading:    rot.Heading + (s.rng.Float32()-0.5)*0.5,
			genome:     child,
			generation: gen + 1,
		})
	}
}

// findMate returns the nearest eligible male within mating distance.
func (s *Simulation) findMate(self ecs.Entity, pos *Position, matingDist float32) (*Vitals, *Traits, *Agent) {
	s.scratchAgents = s.agentGrid.QueryRadiusInto(s.scratchAgents[:0], pos.X, pos.Y, matingDist, self)

	var (
		bestV  *Vitals
		bestT  *Traits
		bestA  *Agent
		bestSq = matingDist * matingDist * 2
	)
	for i := range s.scratchAgents {
		n := &s.scratchAgents[i]
		pa := s.agentMap.Get(n.Item)
		if pa == nil || pa.Sex != SexMale {
			continue
		}
		pv := s.vitalsMap.Get(n.Item)
		pt := s.traitsMap.Get(n.Item)
		if pv == nil || pt == nil || !s.mateEligible(pv, pt, pa) {
			continue
		}
		if n.DistSq < bestSq {
			bestV, bestT, bestA = pv, pt, pa
			bestSq = n.DistSq
		}
	}
	return bestV, bestT, bestA
}

// updateAging advances age and retires agents past their lifespan. The
// effective limit is the genetic max age capped by the global max.
func (s *Simulation) updateAging(dt float32) {
	globalMax := float32(s.cfg.Aging.GlobalMaxAge)

	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, _, vitals, traits, ag := query.Get()

		if !vitals.Alive {
			continue
		}
		vitals.Age += dt

		limit := traits.MaxAge
		if globalMax > 0 && globalMax < limit {
			limit = globalMax
		}
		if vitals.Age > limit {
			vitals.Alive = false
			ag.DeathCause = deathOldAge
		}
	}
}

// updateSomaticMutation perturbs a living agent's own genome at a low
// per-tick rate, then recomputes its phenotype and controller. RNN hidden
// state survives the rebuild since the layout never changes within a run.
func (s *Simulation) updateSomaticMutation() {
	rate := s.cfg.Mutation.SomaticRate
	if rate <= 0 {
		return
	}

	mut := genome.MutationParams{
		Rate:           s.cfg.Mutation.Rate,
		PointSigma:     s.cfg.Mutation.PointSigma,
		LargeChance:    s.cfg.Mutation.LargeChance,
		LargeSigma:     s.cfg.Mutation.LargeSigma,
		DominanceRate:  s.cfg.Mutation.DominanceRate,
		DominanceSigma: s.cfg.Mutation.DominanceSigma,
	}

	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, body, vitals, traits, ag := query.Get()

		if !vitals.Alive || s.rng.Float64() >= rate {
			continue
		}
		g := s.genomes[ag.ID]
		if g == nil {
			continue
		}

		res := genome.Mutate(g, mut, s.rng)
		if res.Count == 0 {
			continue
		}

		*traits = traitsFrom(genome.DecodePhenotype(g))
		body.Radius = baseBodyRadius * traits.Size
		s.brains[ag.ID] = neural.Rebuild(g, s.layout, s.brains[ag.ID], s.rng)

		ag.Mutations++
		s.collector.RecordSomaticMutation()
	}
}

// cleanup applies all deferred structural changes: removes the dead, spawns
// queued offspring, maintains the food supply, and respawns founders when
// the population collapses below the configured floor.
func (s *Simulation) cleanup(dt float32) {
	s.deaths = s.deaths[:0]

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, _, vitals, _, ag := query.Get()
		if !vitals.Alive {
			s.deaths = append(s.deaths, deadInfo{entity: entity, id: ag.ID, cause: ag.DeathCause})
		}
	}

	for _, d := range s.deaths {
		s.agentMapper.Remove(d.entity)
		delete(s.genomes, d.id)
		delete(s.brains, d.id)
		delete(s.lastIO, d.id)
		s.aliveCount--
		s.collector.RecordDeath(deathCauseToTelemetry(d.cause))
	}

	for _, b := range s.births {
		s.spawnAgent(b.x, b.y, b.heading, b.genome, b.generation)
		s.collector.RecordBirth()
	}
	s.births = s.births[:0]

	s.updateFoodSupply(dt)

	for s.aliveCount < s.cfg.Population.Min {
		s.spawnFounder()
		s.log.Debug("respawned founder", "population", s.aliveCount)
	}
}

func deathCauseToTelemetry(cause int8) telemetry.DeathCause {
	switch cause {
	case deathDehydrated:
		return telemetry.DeathDehydrated
	case deathKilled:
		return telemetry.DeathKilled
	case deathOldAge:
		return telemetry.DeathOldAge
	default:
		return telemetry.DeathStarved
	}
}
