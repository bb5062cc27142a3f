package sim

import "github.com/pthm-cable/vivarium/systems"

// updateCombat resolves at most one attack per committed attacker against
// the nearest live target within attack distance. Damage lands on the
// defender's energy; a lethal hit pays the attacker the kill bonus and
// marks the victim for this tick's cleanup.
func (s *Simulation) updateCombat() {
	params := systems.CombatParams{
		AttackDistance: float32(s.cfg.Combat.AttackDistance),
		BaseDamage:     float32(s.cfg.Combat.BaseDamage),
		KillBonus:      float32(s.cfg.Combat.KillBonus),
		DamageJitter:   float32(s.cfg.Combat.DamageJitter),
	}
	maxEnergy := float32(s.cfg.Energy.Max)

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, vitals, traits, ag := query.Get()

		if !vitals.Alive {
			continue
		}
		if !systems.AttackDecision(ag.Attack, ag.Avoid) {
			continue
		}

		target, ok := s.agentGrid.QueryNearest(pos.X, pos.Y, params.AttackDistance, entity)
		if !ok {
			continue
		}
		tv := s.vitalsMap.Get(target.Item)
		if tv == nil || !tv.Alive {
			continue
		}
		tt := s.traitsMap.Get(target.Item)
		ta := s.agentMap.Get(target.Item)
		if tt == nil || ta == nil {
			continue
		}

		dmg := systems.AttackDamage(params, traits.Aggression, ag.Effort, traits.Size, tt.Armor, s.rng)
		if dmg <= 0 {
			continue
		}
		s.collector.RecordAttack()

		tv.Energy -= dmg
		tv.RecentDamage = clamp01f(tv.RecentDamage + dmg/maxEnergy)
		tv.Stress = clamp01f(tv.Stress + 0.25)

		if tv.Energy <= 0 {
			tv.Energy = 0
			tv.Alive = false
			ta.DeathCause = deathKilled
			s.collector.RecordKill()

			vitals.Energy += params.KillBonus
			if vitals.Energy > maxEnergy {
				vitals.Energy = maxEnergy
			}
		}
	}
}

func clamp01f(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
