package systems

import (
	"math"
	"math/rand"
)

// Number of vision sectors. Must match the sector share of
// config.BaseInputs (NumSectors*3 sector signals + 9 internal scalars).
const NumSectors = 5

// sectorWidth is the angular span of one sector (72 degrees).
const sectorWidth = 2 * math.Pi / NumSectors

// Internal scalar input indices, after the NumSectors*3 sector block.
const (
	inEnergy = NumSectors*3 + iota
	inHydration
	inAgeRatio
	inStress
	inHealth
	inForwardVel
	inLateralVel
	inSize
	inSpeed

	// NumInputs is the base sensor vector length.
	NumInputs
)

// SelfState carries the sensing agent's own state into input assembly.
type SelfState struct {
	VelX, VelY float32
	Heading    float32 // facing used when velocity is negligible

	Energy, MaxEnergy       float32
	Hydration, MaxHydration float32
	Age, MaxAge             float32
	Stress                  float32
	RecentDamage            float32 // [0,1] decayed damage signal

	Size, MaxSize   float32
	Speed, MaxSpeed float32 // genetic max speed
	Power           float32 // combat strength estimate, see AgentContact
}

// AgentContact is one nearby agent as seen by the sensing agent.
type AgentContact struct {
	DX, DY float32
	Dist   float32
	Power  float32 // size x aggression strength estimate
}

// FoodContact is one nearby food item.
type FoodContact struct {
	DX, DY float32
	Dist   float32
}

// WaterContact is one water source within vision.
type WaterContact struct {
	DX, DY float32 // to the source center
	Dist   float32
	Radius float32
}

// NoiseParams layers optional sensory noise on the assembled vector.
// Zero values leave the signal path bit-identical to the clean computation.
type NoiseParams struct {
	Sigma         float32 // Gaussian jitter stddev
	SectorDropout float32 // per-sector probability of zeroing all 3 signals
}

// Inputs is the assembled sensor vector.
type Inputs [NumInputs]float32

// AsSlice returns the inputs as a slice for the controller.
func (in *Inputs) AsSlice() []float32 { return in[:] }

// Food, Water, Threat return the sector signal blocks.
func (in *Inputs) Food(sector int) float32   { return in[sector] }
func (in *Inputs) Water(sector int) float32  { return in[NumSectors+sector] }
func (in *Inputs) Threat(sector int) float32 { return in[2*NumSectors+sector] }

// ComputeInputs builds the egocentric input vector: per-sector food, water,
// and signed threat signals followed by internal-state scalars. Sector 0 is
// always centered on the facing direction; sectors increase counterclockwise
// and wrap. An empty neighborhood produces all-zero sector signals.
func ComputeInputs(self SelfState, agents []AgentContact, food []FoodContact, water []WaterContact, vision float32, noise NoiseParams, rng *rand.Rand) Inputs {
	var in Inputs

	facing := facingAngle(self)

	// Food: sum of inverse-square proximity per sector, clamped to [0,1].
	for i := range food {
		f := &food[i]
		if f.Dist > vision {
			continue
		}
		s := sectorOf(f.DX, f.DY, facing)
		in[s] += invSqProximity(f.Dist, vision)
	}
	for s := 0; s < NumSectors; s++ {
		in[s] = clamp01(in[s])
	}

	// Water: max edge-proximity signal per sector. Standing inside a source
	// saturates every sector.
	for i := range water {
		w := &water[i]
		if w.Dist <= w.Radius {
			for s := 0; s < NumSectors; s++ {
				in[NumSectors+s] = 1
			}
			break
		}
		edge := w.Dist - w.Radius
		if edge > vision {
			continue
		}
		sig := clamp01(1 - edge/vision)
		s := sectorOf(w.DX, w.DY, facing)
		if sig > in[NumSectors+s] {
			in[NumSectors+s] = sig
		}
	}

	// Threat: signed strength contrast weighted by proximity, accumulated
	// per sector then squashed to [-1,1]. Positive means weaker neighbors,
	// negative means stronger ones.
	for i := range agents {
		a := &agents[i]
		if a.Dist > vision {
			continue
		}
		denom := self.Power + a.Power
		if denom <= 0 {
			continue
		}
		contrast := (self.Power - a.Power) / denom
		s := 2*NumSectors + sectorOf(a.DX, a.DY, facing)
		in[s] += contrast * invSqProximity(a.Dist, vision)
	}
	for s := 0; s < NumSectors; s++ {
		in[2*NumSectors+s] = softSign(in[2*NumSectors+s])
	}

	// Internal state.
	in[inEnergy] = safeRatio(self.Energy, self.MaxEnergy)
	in[inHydration] = safeRatio(self.Hydration, self.MaxHydration)
	in[inAgeRatio] = safeRatio(self.Age, self.MaxAge)
	in[inStress] = clamp01(self.Stress)
	in[inHealth] = clamp01(0.5*safeRatio(self.Energy, self.MaxEnergy) +
		0.3*safeRatio(self.Hydration, self.MaxHydration) +
		0.2*(1-clamp01(self.RecentDamage)))

	// Egocentric velocity: forward and lateral components in the facing
	// frame, normalized by genetic max speed.
	if self.MaxSpeed > 0 {
		cos := float32(math.Cos(float64(facing)))
		sin := float32(math.Sin(float64(facing)))
		in[inForwardVel] = clampSym((self.VelX*cos + self.VelY*sin) / self.MaxSpeed)
		in[inLateralVel] = clampSym((-self.VelX*sin + self.VelY*cos) / self.MaxSpeed)
	}

	in[inSize] = safeRatio(self.Size, self.MaxSize)
	in[inSpeed] = safeRatio(self.Speed, self.MaxSpeed)

	applyNoise(&in, noise, rng)
	return in
}

// applyNoise layers Gaussian jitter and per-sector dropout. Disabled
// parameters take no branch that touches the vector.
func applyNoise(in *Inputs, noise NoiseParams, rng *rand.Rand) {
	if noise.SectorDropout > 0 && rng != nil {
		for s := 0; s < NumSectors; s++ {
			if rng.Float32() < noise.SectorDropout {
				in[s] = 0
				in[NumSectors+s] = 0
				in[2*NumSectors+s] = 0
			}
		}
	}
	if noise.Sigma > 0 && rng != nil {
		for i := range in {
			in[i] += float32(rng.NormFloat64()) * noise.Sigma
		}
	}
}

// facingAngle derives the facing direction from velocity, falling back to
// the carried heading when nearly stationary.
func facingAngle(self SelfState) float32 {
	if self.VelX*self.VelX+self.VelY*self.VelY > 1e-6 {
		return float32(math.Atan2(float64(self.VelY), float64(self.VelX)))
	}
	return self.Heading
}

// sectorOf maps a delta vector to a sector index relative to facing.
// Sector 0 spans [-36, +36) degrees around the facing direction; the lower
// bound is inclusive, so a neighbor exactly on a boundary belongs to the
// sector whose range starts there. Sectors wrap circularly.
func sectorOf(dx, dy, facing float32) int {
	rel := normalizeAngle(float32(math.Atan2(float64(dy), float64(dx))) - facing)
	k := int(math.Floor(float64((rel + sectorWidth/2) / sectorWidth)))
	return ((k % NumSectors) + NumSectors) % NumSectors
}

// invSqProximity is the 1/(1+d^2) food/threat falloff with distance
// measured in quarter-vision units, so the signal is near zero at the
// vision edge instead of decaying within the first few world units.
func invSqProximity(dist, vision float32) float32 {
	if vision <= 0 {
		return 0
	}
	dn := 4 * dist / vision
	return 1 / (1 + dn*dn)
}

// softSign squashes to (-1,1) while preserving sign and monotonicity.
func softSign(x float32) float32 {
	if x < 0 {
		return x / (1 - x)
	}
	return x / (1 + x)
}

func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func clampSym(x float32) float32 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}

func safeRatio(a, b float32) float32 {
	if b <= 0 {
		return 0
	}
	return clamp01(a / b)
}
