package systems

// DiseaseParams are the infection dynamics constants.
type DiseaseParams struct {
	TransmissionRadius float32
	BaseProbability    float32 // per tick per nearby infected
	RecoveryChance     float32 // per tick
	EnergyPenalty      float32 // per second while infected
}

// TransmissionChance returns the per-tick infection probability for one
// exposure, scaled down by the target's genetic resistance and up by the
// active event multiplier (1 outside an epidemic).
func TransmissionChance(p DiseaseParams, resistance, eventMultiplier float32) float32 {
	ch := p.BaseProbability * (1 - clamp01(resistance)) * eventMultiplier
	return clamp01(ch)
}

// RecoveryChance returns the per-tick recovery probability. Resistance
// helps shake the infection off faster.
func RecoveryChance(p DiseaseParams, resistance float32) float32 {
	return clamp01(p.RecoveryChance * (1 + clamp01(resistance)))
}
