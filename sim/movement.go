package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/vivarium/config"
	"github.com/pthm-cable/vivarium/genome"
	"github.com/pthm-cable/vivarium/neural"
	"github.com/pthm-cable/vivarium/systems"
)

// Movement constants.
const (
	baseBodyRadius = 5.0 // world units at size 1.0

	avoidThreshold = 0.6 // flee blending kicks in above this
	accelRate      = 6.0 // velocity convergence rate per second
	stressRate     = 2.0 // stress relaxation rate per second
	damageDecay    = 0.5 // recent-damage decay rate per second
)

// updateMovement runs sensing and the controller forward pass for every
// live agent, then integrates velocity and position with obstacle and
// boundary collision. Drives are written back onto the Agent component for
// the downstream systems in the same tick.
func (s *Simulation) updateMovement(dt float32) {
	_, sizeHi := genome.TraitBounds(genome.TraitSize)
	_, speedHi := genome.TraitBounds(genome.TraitSpeed)
	maxSize := float32(sizeHi)
	maxSpeed := float32(speedHi)

	noise := systems.NoiseParams{
		Sigma:         float32(s.cfg.Sensors.NoiseSigma),
		SectorDropout: float32(s.cfg.Sensors.SectorDropout),
	}

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, rot, body, vitals, traits, ag := query.Get()

		if !vitals.Alive {
			continue
		}
		brain, ok := s.brains[ag.ID]
		if !ok {
			continue
		}

		s.gatherContacts(entity, pos, traits.VisionRange)

		self := systems.SelfState{
			VelX:         vel.X,
			VelY:         vel.Y,
			Heading:      rot.Heading,
			Energy:       vitals.Energy,
			MaxEnergy:    float32(s.cfg.Energy.Max),
			Hydration:    vitals.Hydration,
			MaxHydration: float32(s.cfg.Hydration.Max),
			Age:          vitals.Age,
			MaxAge:       traits.MaxAge,
			Stress:       vitals.Stress,
			RecentDamage: vitals.RecentDamage,
			Size:         traits.Size,
			MaxSize:      maxSize,
			Speed:        traits.Speed,
			MaxSpeed:     maxSpeed,
			Power:        systems.CombatPower(traits.Size, traits.Aggression),
		}

		inputs := systems.ComputeInputs(self, s.contacts, s.foodContacts, s.waterContacts, traits.VisionRange, noise, s.rng)
		out := brain.Forward(inputs.AsSlice())
		drives := neural.Interpret(out)

		ag.Avoid = drives.Avoid
		ag.Attack = drives.Attack
		ag.Mate = drives.Mate
		ag.Effort = drives.Effort

		if io := s.lastIO[ag.ID]; io != nil {
			copy(io.inputs, inputs.AsSlice())
			copy(io.outputs, out[:])
		}

		// Desired world-relative direction from the first two outputs.
		dirX, dirY := drives.DirX, drives.DirY
		if l := dirX*dirX + dirY*dirY; l > 1e-6 {
			inv := 1 / sqrtf(l)
			dirX *= inv
			dirY *= inv
		} else {
			dirX = cosf(rot.Heading)
			dirY = sinf(rot.Heading)
		}

		// Flee blend: when avoidance dominates, steer away from the
		// proximity-weighted neighbor mass.
		if drives.Avoid > avoidThreshold && drives.Avoid > drives.Attack {
			fx, fy := s.fleeVector()
			if fx != 0 || fy != 0 {
				w := drives.Avoid
				dirX = dirX*(1-w) + fx*w
				dirY = dirY*(1-w) + fy*w
				if l := dirX*dirX + dirY*dirY; l > 1e-6 {
					inv := 1 / sqrtf(l)
					dirX *= inv
					dirY *= inv
				}
			}
		}

		targetSpeed := drives.Effort * traits.Speed
		alpha := accelRate * dt
		if alpha > 1 {
			alpha = 1
		}
		vel.X += (dirX*targetSpeed - vel.X) * alpha
		vel.Y += (dirY*targetSpeed - vel.Y) * alpha

		// Clamp to genetic max speed.
		if sp := sqrtf(vel.X*vel.X + vel.Y*vel.Y); sp > traits.Speed {
			scale := traits.Speed / sp
			vel.X *= scale
			vel.Y *= scale
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt

		s.collideObstacles(pos, vel, body.Radius)
		s.collideBoundary(pos, vel, body.Radius)

		if vel.X*vel.X+vel.Y*vel.Y > 1e-4 {
			rot.Heading = atan2f(vel.Y, vel.X)
		}

		// Stress tracks the worst hostile sector signal.
		var threat float32
		for sec := 0; sec < systems.NumSectors; sec++ {
			if t := -inputs.Threat(sec); t > threat {
				threat = t
			}
		}
		beta := stressRate * dt
		if beta > 1 {
			beta = 1
		}
		vitals.Stress += (threat - vitals.Stress) * beta
		vitals.RecentDamage -= vitals.RecentDamage * damageDecay * dt
		if vitals.RecentDamage < 0 {
			vitals.RecentDamage = 0
		}
	}
}

// gatherContacts fills the contact scratch slices for one agent's sensing
// pass from the spatial indices and the water list.
func (s *Simulation) gatherContacts(entity ecs.Entity, pos *Position, vision float32) {
	s.contacts = s.contacts[:0]
	s.foodContacts = s.foodContacts[:0]
	s.waterContacts = s.waterContacts[:0]

	s.scratchAgents = s.agentGrid.QueryRadiusInto(s.scratchAgents[:0], pos.X, pos.Y, vision, entity)
	for i := range s.scratchAgents {
		n := &s.scratchAgents[i]
		nv := s.vitalsMap.Get(n.Item)
		if nv == nil || !nv.Alive {
			continue
		}
		nt := s.traitsMap.Get(n.Item)
		if nt == nil {
			continue
		}
		s.contacts = append(s.contacts, systems.AgentContact{
			DX:    n.DX,
			DY:    n.DY,
			Dist:  sqrtf(n.DistSq),
			Power: systems.CombatPower(nt.Size, nt.Aggression),
		})
	}

	s.scratchFood = s.foodGrid.QueryRadiusInto(s.scratchFood[:0], pos.X, pos.Y, vision, -1)
	for i := range s.scratchFood {
		n := &s.scratchFood[i]
		s.foodContacts = append(s.foodContacts, systems.FoodContact{
			DX:   n.DX,
			DY:   n.DY,
			Dist: sqrtf(n.DistSq),
		})
	}

	for i := range s.waters {
		w := &s.waters[i]
		dx, dy := s.delta(pos.X, pos.Y, w.X, w.Y)
		dist := sqrtf(dx*dx + dy*dy)
		if dist-w.Radius > vision {
			continue
		}
		s.waterContacts = append(s.waterContacts, systems.WaterContact{
			DX:     dx,
			DY:     dy,
			Dist:   dist,
			Radius: w.Radius,
		})
	}
}

// fleeVector points away from the proximity-weighted mass of the current
// contact set. Zero when there are no contacts.
func (s *Simulation) fleeVector() (float32, float32) {
	var fx, fy float32
	for i := range s.contacts {
		c := &s.contacts[i]
		if c.Dist < 1e-3 {
			continue
		}
		w := 1 / (1 + c.Dist)
		fx -= c.DX / c.Dist * w
		fy -= c.DY / c.Dist * w
	}
	if l := fx*fx + fy*fy; l > 1e-6 {
		inv := 1 / sqrtf(l)
		return fx * inv, fy * inv
	}
	return 0, 0
}

// collideObstacles pushes the agent out of any overlapping obstacle and
// cancels the inward velocity component.
func (s *Simulation) collideObstacles(pos *Position, vel *Velocity, radius float32) {
	for i := range s.obstacles {
		o := &s.obstacles[i]
		dx, dy := s.delta(o.X, o.Y, pos.X, pos.Y)
		minDist := o.Radius + radius
		distSq := dx*dx + dy*dy
		if distSq >= minDist*minDist {
			continue
		}
		dist := sqrtf(distSq)
		var nx, ny float32
		if dist > 1e-4 {
			nx, ny = dx/dist, dy/dist
		} else {
			nx, ny = 1, 0
		}
		pos.X = o.X + nx*minDist
		pos.Y = o.Y + ny*minDist
		// Cancel the velocity component pointing into the obstacle.
		if dot := vel.X*nx + vel.Y*ny; dot < 0 {
			vel.X -= dot * nx
			vel.Y -= dot * ny
		}
	}
}

// collideBoundary wraps in torus mode and reflects off hard walls in
// bounded mode.
func (s *Simulation) collideBoundary(pos *Position, vel *Velocity, radius float32) {
	w := s.cfg.Derived.WorldW32
	h := s.cfg.Derived.WorldH32

	if s.cfg.World.Boundary == config.BoundaryTorus {
		pos.X, pos.Y = systems.WrapPosition(pos.X, pos.Y, w, h)
		return
	}

	if pos.X < radius {
		pos.X = radius
		if vel.X < 0 {
			vel.X = -vel.X
		}
	} else if pos.X > w-radius {
		pos.X = w - radius
		if vel.X > 0 {
			vel.X = -vel.X
		}
	}
	if pos.Y < radius {
		pos.Y = radius
		if vel.Y < 0 {
			vel.Y = -vel.Y
		}
	} else if pos.Y > h-radius {
		pos.Y = h - radius
		if vel.Y > 0 {
			vel.Y = -vel.Y
		}
	}
}

func sqrtf(x float32) float32 { return float32(math.Sqrt(float64(x))) }

func cosf(x float32) float32 { return float32(math.Cos(float64(x))) }

func sinf(x float32) float32 { return float32(math.Sin(float64(x))) }

func atan2f(y, x float32) float32 { return float32(math.Atan2(float64(y), float64(x))) }
