package sim

import "github.com/pthm-cable/vivarium/genome"

// Position is a continuous 2D world position.
type Position struct {
	X, Y float32
}

// Velocity in world units per second.
type Velocity struct {
	X, Y float32
}

// Rotation holds the facing direction. Heading follows velocity while
// moving and is the sensing reference when nearly stationary.
type Rotation struct {
	Heading float32
}

// Body holds the physical extent used for collision and rendering.
type Body struct {
	Radius float32
}

// Vitals holds the mortal state of an agent. Energy and hydration are
// clamped to [0, max] after every system pass; crossing zero marks the
// agent dead for this tick's cleanup.
type Vitals struct {
	Energy       float32
	Hydration    float32
	Age          float32 // seconds
	Stress       float32 // [0,1], driven by nearby threat
	RecentDamage float32 // [0,1], decays each tick
	Alive        bool
}

// Sexes.
const (
	SexFemale uint8 = iota
	SexMale
)

// Agent holds identity, lifecycle counters, and the drives interpreted from
// the controller's last forward pass. Drives are rewritten every tick by
// the movement system and read by combat and reproduction in the same tick.
type Agent struct {
	ID         uint32
	Sex        uint8
	Generation int32
	Mutations  int32 // somatic mutations applied over this agent's life

	ReproCooldown float32 // seconds until mating is possible again
	Infected      bool
	DeathCause    int8 // valid once Alive is false

	// Last interpreted controller outputs.
	Avoid  float32
	Attack float32
	Mate   float32
	Effort float32
}

// Traits is the float32 phenotype cache carried on the entity so the hot
// systems never re-decode the genome. Rebuilt on any genome change.
type Traits struct {
	Speed         float32
	Size          float32
	Aggression    float32
	VisionRange   float32
	Efficiency    float32
	MaxAge        float32
	Armor         float32
	Resistance    float32
	Fertility     float32
	MetabolicRate float32
}

// traitsFrom converts a decoded phenotype into the component cache.
func traitsFrom(p genome.Phenotype) Traits {
	return Traits{
		Speed:         float32(p.Speed),
		Size:          float32(p.Size),
		Aggression:    float32(p.Aggression),
		VisionRange:   float32(p.VisionRange),
		Efficiency:    float32(p.Efficiency),
		MaxAge:        float32(p.MaxAge),
		Armor:         float32(p.Armor),
		Resistance:    float32(p.Resistance),
		Fertility:     float32(p.Fertility),
		MetabolicRate: float32(p.MetabolicRate),
	}
}

// Death causes recorded on the Agent component for cleanup accounting.
const (
	deathStarved int8 = iota
	deathDehydrated
	deathKilled
	deathOldAge
)

// Food is a positioned energy packet with a finite lifetime.
type Food struct {
	X, Y   float32
	Energy float32
	TTL    float32 // seconds until despawn
	Alive  bool
}

// Water is a persistent circular water source.
type Water struct {
	X, Y   float32
	Radius float32
}

// Obstacle is a persistent solid circular region. Movement collides with
// it; it has no energy semantics.
type Obstacle struct {
	X, Y   float32
	Radius float32
}
