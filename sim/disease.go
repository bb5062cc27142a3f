package sim

import "github.com/pthm-cable/vivarium/systems"

// updateDisease runs the infection dynamics: energy penalty and recovery
// roll for the infected, then transmission rolls against nearby agents
// modulated by each target's genetic resistance.
func (s *Simulation) updateDisease(dt float32) {
	params := systems.DiseaseParams{
		TransmissionRadius: float32(s.cfg.Disease.TransmissionRadius),
		BaseProbability:    float32(s.cfg.Disease.BaseProbability),
		RecoveryChance:     float32(s.cfg.Disease.RecoveryChance),
		EnergyPenalty:      float32(s.cfg.Disease.EnergyPenalty),
	}

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, vitals, traits, ag := query.Get()

		if !vitals.Alive || !ag.Infected {
			continue
		}

		vitals.Energy -= params.EnergyPenalty * dt
		if vitals.Energy <= 0 {
			vitals.Energy = 0
			vitals.Alive = false
			ag.DeathCause = deathStarved
			continue
		}

		if s.rng.Float32() < systems.RecoveryChance(params, traits.Resistance) {
			ag.Infected = false
			s.collector.RecordRecovery()
			continue
		}

		s.scratchAgents = s.agentGrid.QueryRadiusInto(s.scratchAgents[:0], pos.X, pos.Y, params.TransmissionRadius, entity)
		for i := range s.scratchAgents {
			n := &s.scratchAgents[i]
			ta := s.agentMap.Get(n.Item)
			tv := s.vitalsMap.Get(n.Item)
			tt := s.traitsMap.Get(n.Item)
			if ta == nil || tv == nil || tt == nil || !tv.Alive || ta.Infected {
				continue
			}
			chance := systems.TransmissionChance(params, tt.Resistance, s.eventMultiplier)
			if s.rng.Float32() < chance {
				ta.Infected = true
				s.collector.RecordInfection()
			}
		}
	}
}

// updateEvents evaluates population-wide triggers on a fixed interval and
// manages the bounded lifetime of an active epidemic.
func (s *Simulation) updateEvents() {
	if s.epidemicTicks > 0 {
		s.epidemicTicks--
		if s.epidemicTicks == 0 {
			s.eventMultiplier = 1
			s.log.Info("epidemic ended", "tick", s.tick)
		}
	}

	interval := s.cfg.Events.IntervalTicks
	if interval <= 0 || s.tick == 0 || s.tick%int64(interval) != 0 {
		return
	}
	if s.epidemicTicks > 0 {
		return
	}

	density := float64(s.aliveCount) / float64(s.cfg.Population.Max)
	if density < s.cfg.Events.DensityThreshold {
		return
	}

	s.startEpidemic()
}

// startEpidemic infects a random fraction of the population and raises the
// transmission multiplier for a bounded number of ticks.
func (s *Simulation) startEpidemic() {
	s.epidemicTicks = s.cfg.Events.EpidemicDuration
	s.eventMultiplier = float32(s.cfg.Events.EpidemicSpread)
	if s.eventMultiplier <= 0 {
		s.eventMultiplier = 1
	}

	infected := 0
	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, _, vitals, _, ag := query.Get()
		if !vitals.Alive || ag.Infected {
			continue
		}
		if s.rng.Float64() < s.cfg.Events.EpidemicInfect {
			ag.Infected = true
			infected++
			s.collector.RecordInfection()
		}
	}

	s.log.Info("epidemic started",
		"tick", s.tick,
		"duration_ticks", s.epidemicTicks,
		"initially_infected", infected,
		"population", s.aliveCount,
	)
}
