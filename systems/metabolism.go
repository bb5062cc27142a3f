package systems

import "math"

// MetabolismParams are the per-second energy cost constants.
type MetabolismParams struct {
	BaseDrain    float32
	MoveCost     float32 // per unit of current speed
	SizeCost     float32 // per size^SizeExponent
	SizeExponent float32
}

// EnergyCost returns the energy spent over dt seconds: a baseline drain
// plus size-scaled and speed-scaled costs, the activity share modulated by
// effort and the whole divided by metabolic efficiency. Efficiency at or
// below zero reads as 1.
func EnergyCost(p MetabolismParams, size, speed, effort, efficiency, metabolicRate, dt float32) float32 {
	if efficiency <= 0 {
		efficiency = 1
	}
	sizeTerm := p.SizeCost * powf(size, p.SizeExponent)
	activity := (p.MoveCost*speed + sizeTerm) * effort
	return (p.BaseDrain + activity) * metabolicRate / efficiency * dt
}

// HydrationDelta returns the hydration change over dt seconds: a constant
// drain, countered by refill while within drinkRange of a water source edge.
// edgeDist below zero means the agent stands inside the source.
func HydrationDelta(drain, refill, edgeDist, drinkRange, dt float32) float32 {
	d := -drain
	if edgeDist <= drinkRange {
		d += refill
	}
	return d * dt
}

func powf(x, e float32) float32 {
	if e == 1 {
		return x
	}
	if e == 2 {
		return x * x
	}
	return float32(math.Pow(float64(x), float64(e)))
}
