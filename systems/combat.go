package systems

import "math/rand"

// CombatParams are the tunable attack-resolution constants.
type CombatParams struct {
	AttackDistance float32
	BaseDamage     float32
	KillBonus      float32
	DamageJitter   float32 // +/- fraction of the computed damage
}

// AttackDecision reports whether an agent's drives commit it to an attack
// this tick. Attack must clearly dominate: above the action threshold and
// above the flee drive, so an agent never strikes while retreating.
func AttackDecision(attack, avoid float32) bool {
	return attack > 0.5 && attack > avoid
}

// AttackDamage computes the damage of one resolved hit:
//
//	base x aggression x effort x (attacker size / defender armor) x jitter
//
// Armor at or below zero is treated as 1 so corrupt phenotypes cannot
// produce infinite damage. The result is never negative.
func AttackDamage(p CombatParams, aggression, effort, attackerSize, defenderArmor float32, rng *rand.Rand) float32 {
	if defenderArmor <= 0 {
		defenderArmor = 1
	}
	dmg := p.BaseDamage * aggression * effort * (attackerSize / defenderArmor)
	if p.DamageJitter > 0 {
		dmg *= 1 + p.DamageJitter*(2*rng.Float32()-1)
	}
	if dmg < 0 {
		return 0
	}
	return dmg
}

// CombatPower is the strength estimate used both for threat sensing and for
// target selection: body size scaled by temperament.
func CombatPower(size, aggression float32) float32 {
	return size * (0.5 + 0.5*aggression)
}
