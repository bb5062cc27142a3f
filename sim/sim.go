// Package sim implements the tick-driven simulation engine: an ECS-backed
// agent population, resource stores, and the fixed pipeline of behavior
// systems that advance the world one step at a time.
package sim

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/genome"
	"github.com/pthm-cable/vivarium/neural"
	"github.com/pthm-cable/vivarium/systems"
	"github.com/pthm-cable/vivarium/telemetry"
)

// agentIO keeps the last controller input/output vectors for the snapshot
// interface. Derived state only; nothing in the tick loop reads it back.
type agentIO struct {
	inputs  []float32
	outputs []float32
}

// birthInfo queues an offspring for spawning during Cleanup. The child
// genome is fully constructed at collection time so parent death later in
// the tick cannot invalidate it.
type birthInfo struct {
	x, y, heading float32
	genome        *genome.Genome
	generation    int32
}

// deadInfo queues a removal for Cleanup.
type deadInfo struct {
	entity ecs.Entity
	id     uint32
	cause  int8
}

// Tunables are the parameters the command surface may change mid-run.
// Non-nil fields take effect at the start of the next tick.
type Tunables struct {
	FoodSpawnPerSec *float64
	MutationRate    *float64
	SomaticRate     *float64
}

// Simulation holds the complete world state.
type Simulation struct {
	cfg *config.Config
	rng *rand.Rand
	log *slog.Logger

	world       *ecs.World
	agentMapper *ecs.Map7[Position, Velocity, Rotation, Body, Vitals, Traits, Agent]
	agentFilter *ecs.Filter7[Position, Velocity, Rotation, Body, Vitals, Traits, Agent]

	posMap    *ecs.Map1[Position]
	velMap    *ecs.Map1[Velocity]
	vitalsMap *ecs.Map1[Vitals]
	traitsMap *ecs.Map1[Traits]
	agentMap  *ecs.Map1[Agent]

	layout  genome.Layout
	genomes map[uint32]*genome.Genome
	brains  map[uint32]neural.Controller
	lastIO  map[uint32]*agentIO

	agentGrid *systems.Grid[ecs.Entity]
	foodGrid  *systems.Grid[int]

	foods     []Food
	foodFree  []int
	foodCount int
	foodAccum float64
	clusters  []foodCluster
	noise     opensimplex.Noise

	waters    []Water
	obstacles []Obstacle

	collector *telemetry.Collector

	tick       int64
	simTime    float64
	paused     bool
	speed      int
	nextID     uint32
	aliveCount int

	epidemicTicks   int
	eventMultiplier float32

	pendingTunables []Tunables

	// Per-tick deferred structural changes.
	births []birthInfo
	deaths []deadInfo

	// Query scratch, reused across agents to avoid per-tick allocation.
	scratchAgents []systems.Neighbor[ecs.Entity]
	scratchFood   []systems.Neighbor[int]
	contacts      []systems.AgentContact
	foodContacts  []systems.FoodContact
	waterContacts []systems.WaterContact
}

// New constructs a simulation from a validated configuration and seeds the
// initial population, food, and water sources.
func New(cfg *config.Config, seed int64, log *slog.Logger) (*Simulation, error) {
	layout, err := genome.LayoutFor(cfg.Neural.Kind, cfg.Neural.MemorySteps)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	world := ecs.NewWorld()
	wrap := cfg.World.Boundary == config.BoundaryTorus

	s := &Simulation{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		log:   log,
		world: world,

		agentMapper: ecs.NewMap7[Position, Velocity, Rotation, Body, Vitals, Traits, Agent](world),
		agentFilter: ecs.NewFilter7[Position, Velocity, Rotation, Body, Vitals, Traits, Agent](world),
		posMap:      ecs.NewMap1[Position](world),
		velMap:      ecs.NewMap1[Velocity](world),
		vitalsMap:   ecs.NewMap1[Vitals](world),
		traitsMap:   ecs.NewMap1[Traits](world),
		agentMap:    ecs.NewMap1[Agent](world),

		layout:  layout,
		genomes: make(map[uint32]*genome.Genome),
		brains:  make(map[uint32]neural.Controller),
		lastIO:  make(map[uint32]*agentIO),

		agentGrid: systems.NewGrid[ecs.Entity](cfg.Derived.WorldW32, cfg.Derived.WorldH32, float32(cfg.World.GridCellSize), wrap),
		foodGrid:  systems.NewGrid[int](cfg.Derived.WorldW32, cfg.Derived.WorldH32, float32(cfg.World.GridCellSize), wrap),

		noise: opensimplex.NewNormalized(seed),

		collector: telemetry.NewCollector(),

		speed:           1,
		eventMultiplier: 1,
	}

	s.initWater()
	s.initClusters()
	s.initFood()
	s.initPopulation()
	s.seedInfection()

	log.Info("world created",
		"boundary", cfg.World.Boundary,
		"population", s.aliveCount,
		"food", s.foodCount,
		"water", len(s.waters),
		"controller", cfg.Neural.Kind,
		"weight_genes", layout.ParamCount(),
	)
	return s, nil
}

// initPopulation spawns the founder agents with fresh random genomes.
func (s *Simulation) initPopulation() {
	for i := 0; i < s.cfg.Population.Initial; i++ {
		s.spawnFounder()
	}
}

// spawnFounder creates a generation-zero agent at a random position.
func (s *Simulation) spawnFounder() ecs.Entity {
	g := genome.NewRandom(s.rng)
	genome.ApplyIdentityBias(g, s.layout)
	x := s.rng.Float32() * s.cfg.Derived.WorldW32
	y := s.rng.Float32() * s.cfg.Derived.WorldH32
	heading := s.rng.Float32() * 2 * math.Pi
	return s.spawnAgent(x, y, heading, g, 0)
}

// spawnAgent creates an agent entity from a genome it takes ownership of.
func (s *Simulation) spawnAgent(x, y, heading float32, g *genome.Genome, generation int32) ecs.Entity {
	id := s.nextID
	s.nextID++

	phen := genome.DecodePhenotype(g)
	traits := traitsFrom(phen)

	brain := neural.Build(g, s.layout, s.rng)
	if n := brain.Padded(); n > 0 {
		s.collector.RecordPaddedGenome(n)
		s.log.Debug("malformed genome zero-padded", "agent", id, "padded_weights", n)
	}

	pos := Position{X: x, Y: y}
	vel := Velocity{}
	rot := Rotation{Heading: heading}
	body := Body{Radius: baseBodyRadius * traits.Size}
	vitals := Vitals{
		Energy:    float32(s.cfg.Energy.Initial),
		Hydration: float32(s.cfg.Hydration.Initial),
		Alive:     true,
	}
	ag := Agent{
		ID:         id,
		Sex:        uint8(s.rng.Intn(2)),
		Generation: generation,
	}

	s.genomes[id] = g
	s.brains[id] = brain
	s.lastIO[id] = &agentIO{
		inputs:  make([]float32, systems.NumInputs),
		outputs: make([]float32, config.OutputSize),
	}

	entity := s.agentMapper.NewEntity(&pos, &vel, &rot, &body, &vitals, &traits, &ag)
	s.aliveCount++
	return entity
}

// seedInfection marks the configured number of founders as infected.
func (s *Simulation) seedInfection() {
	remaining := s.cfg.Disease.InitialInfected
	if remaining <= 0 {
		return
	}
	query := s.agentFilter.Query()
	for query.Next() {
		if remaining <= 0 {
			// Queries must run to completion before other world access.
			continue
		}
		_, _, _, _, _, _, ag := query.Get()
		ag.Infected = true
		remaining--
	}
}

// Step advances the simulation one tick regardless of pause state.
// Systems run in fixed order; all births and removals are deferred to the
// Cleanup phase so mid-tick entity references never dangle.
func (s *Simulation) Step() {
	s.applyTunables()

	dt := s.cfg.Derived.DT32

	s.rebuildIndices()
	s.updateMovement(dt)
	s.updateCombat()
	s.updateFeeding(dt)
	s.updateMetabolism(dt)
	s.updateReproduction()
	s.updateAging(dt)
	s.updateSomaticMutation()
	s.updateDisease(dt)
	s.updateEvents()
	s.cleanup(dt)

	s.tick++
	s.simTime += float64(dt)
}

// Update advances the simulation according to pause state and the speed
// multiplier: zero or more ticks per call.
func (s *Simulation) Update() {
	if s.paused {
		return
	}
	for i := 0; i < s.speed; i++ {
		s.Step()
	}
}

// applyTunables folds queued live parameter edits into the configuration
// before the tick begins.
func (s *Simulation) applyTunables() {
	for _, t := range s.pendingTunables {
		if t.FoodSpawnPerSec != nil {
			s.cfg.Food.SpawnPerSec = *t.FoodSpawnPerSec
		}
		if t.MutationRate != nil {
			s.cfg.Mutation.Rate = *t.MutationRate
		}
		if t.SomaticRate != nil {
			s.cfg.Mutation.SomaticRate = *t.SomaticRate
		}
	}
	s.pendingTunables = s.pendingTunables[:0]
}

// rebuildIndices rebuilds both spatial indices from the live population and
// food store. The grids are read-only for the rest of the tick.
func (s *Simulation) rebuildIndices() {
	s.agentGrid.Clear()
	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, vitals, _, _ := query.Get()
		if vitals.Alive {
			s.agentGrid.Insert(entity, pos.X, pos.Y)
		}
	}

	s.foodGrid.Clear()
	for i := range s.foods {
		if s.foods[i].Alive {
			s.foodGrid.Insert(i, s.foods[i].X, s.foods[i].Y)
		}
	}
}

// Pause stops Update from advancing ticks.
func (s *Simulation) Pause() { s.paused = true }

// Resume re-enables Update.
func (s *Simulation) Resume() { s.paused = false }

// Paused reports the pause state.
func (s *Simulation) Paused() bool { return s.paused }

// SetSpeedMultiplier sets how many ticks one Update call runs, clamped to
// [1, 10].
func (s *Simulation) SetSpeedMultiplier(n int) {
	if n < 1 {
		n = 1
	} else if n > 10 {
		n = 10
	}
	s.speed = n
}

// SetTunables queues live parameter edits; they take effect at the start
// of the next tick.
func (s *Simulation) SetTunables(t Tunables) {
	s.pendingTunables = append(s.pendingTunables, t)
}

// AddObstacle injects a solid circular region the movement system collides
// against from the next tick on.
func (s *Simulation) AddObstacle(x, y, radius float32) {
	s.obstacles = append(s.obstacles, Obstacle{X: x, Y: y, Radius: radius})
}

// ClearObstacles removes all obstacles.
func (s *Simulation) ClearObstacles() {
	s.obstacles = s.obstacles[:0]
}

// Tick returns the current tick count.
func (s *Simulation) Tick() int64 { return s.tick }

// SimTime returns the simulated seconds elapsed.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Population returns the live agent count.
func (s *Simulation) Population() int { return s.aliveCount }

// Collector exposes the telemetry collector for window flushing.
func (s *Simulation) Collector() *telemetry.Collector { return s.collector }

// confine maps a position into the world under the configured topology:
// wrap on the torus, clamp against hard walls.
func (s *Simulation) confine(x, y float32) (float32, float32) {
	w := s.cfg.Derived.WorldW32
	h := s.cfg.Derived.WorldH32
	if s.cfg.World.Boundary == config.BoundaryTorus {
		return systems.WrapPosition(x, y, w, h)
	}
	if x < 0 {
		x = 0
	} else if x > w {
		x = w
	}
	if y < 0 {
		y = 0
	} else if y > h {
		y = h
	}
	return x, y
}

// delta returns the shortest displacement from (x1,y1) to (x2,y2) under the
// configured world topology.
func (s *Simulation) delta(x1, y1, x2, y2 float32) (float32, float32) {
	if s.cfg.World.Boundary == config.BoundaryTorus {
		return systems.ToroidalDelta(x1, y1, x2, y2, s.cfg.Derived.WorldW32, s.cfg.Derived.WorldH32)
	}
	return x2 - x1, y2 - y1
}
