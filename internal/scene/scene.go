// Package scene turns building records into colored meshes and answers the
// questions a renderer asks of them: which color to draw, where the scene is,
// which building a point belongs to.
package scene

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"cityscape/internal/extrude"
	"cityscape/internal/geo"
	"cityscape/internal/palette"
	"cityscape/internal/projection"
	"cityscape/internal/selection"
)

// Recorder receives build statistics. The metrics collector implements it;
// a nil Recorder disables recording.
type Recorder interface {
	BuildingBuilt()
	DegenerateFootprint()
	BuildingRejected(reason string)
	SceneBuilt(buildings int, took time.Duration)
}

type Options struct {
	Origin           projection.Origin
	Ramp             palette.Ramp
	Policy           HeightPolicy
	MinExtrudeHeight float64
	Highlight        palette.Color
}

func DefaultOptions() Options {
	return Options{
		Origin:           projection.DefaultOrigin(),
		Ramp:             palette.DefaultRamp(),
		Policy:           PolicyReject,
		MinExtrudeHeight: DefaultMinExtrudeHeight,
		Highlight:        palette.Highlight,
	}
}

// Builder converts records to meshes. It holds no per-building state, so
// rebuilding the same records yields identical meshes.
type Builder struct {
	proj      projection.Projector
	ramp      palette.Ramp
	policy    HeightPolicy
	minHeight float64
	highlight palette.Color
	rec       Recorder
}

func NewBuilder(opts Options, rec Recorder) (*Builder, error) {
	if err := opts.Ramp.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseHeightPolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}
	if policy == PolicyClamp && !validHeight(opts.MinExtrudeHeight) {
		return nil, eris.Errorf("scene: min extrude height must be positive, got %v", opts.MinExtrudeHeight)
	}
	return &Builder{
		proj:      projection.New(opts.Origin),
		ramp:      opts.Ramp,
		policy:    policy,
		minHeight: opts.MinExtrudeHeight,
		highlight: opts.Highlight,
		rec:       rec,
	}, nil
}

func (b *Builder) Projector() projection.Projector { return b.proj }

// BuildMesh projects the footprint, extrudes it and colors it by height.
// The mesh may be degenerate (no faces); that is not an error.
func (b *Builder) BuildMesh(rec geo.Building) (extrude.Mesh, palette.Color, error) {
	color := b.ramp.ColorFor(rec.Height)
	h, ok := b.policy.extrudeHeight(rec.Height, b.minHeight)
	if !ok {
		return extrude.Mesh{}, color, eris.Wrapf(ErrInvalidHeight, "building %s: height %v", rec.ID, rec.Height)
	}
	mesh := extrude.Extrude(b.proj.ProjectRing(rec.Footprint), h)
	return mesh, color, nil
}

// Entity is one building ready to draw.
type Entity struct {
	Building geo.Building
	Mesh     extrude.Mesh
	Base     palette.Color
}

func (e Entity) ID() selection.ID { return selection.ID(e.Building.ID) }

// Scene is an immutable set of entities in record order.
type Scene struct {
	Entities  []Entity
	Highlight palette.Color

	byID map[selection.ID]int
}

// Build makes an entity for every usable record. Records rejected by the
// height policy are skipped with a warning; degenerate footprints stay in
// the scene (selectable from the list) with an empty mesh.
func (b *Builder) Build(records []geo.Building) *Scene {
	start := time.Now()
	s := &Scene{
		Entities:  make([]Entity, 0, len(records)),
		Highlight: b.highlight,
		byID:      make(map[selection.ID]int, len(records)),
	}
	for _, r := range records {
		mesh, color, err := b.BuildMesh(r)
		if err != nil {
			zap.L().Warn("scene: skipping building", zap.String("id", r.ID), zap.Error(err))
			b.rejected("height")
			continue
		}
		id := selection.ID(r.ID)
		if _, dup := s.byID[id]; dup {
			zap.L().Warn("scene: duplicate building id, keeping first", zap.String("id", r.ID))
			b.rejected("duplicate")
			continue
		}
		if mesh.Empty() {
			zap.L().Debug("scene: degenerate footprint", zap.String("id", r.ID), zap.Int("points", len(r.Footprint)))
			if b.rec != nil {
				b.rec.DegenerateFootprint()
			}
		}
		s.byID[id] = len(s.Entities)
		s.Entities = append(s.Entities, Entity{Building: r, Mesh: mesh, Base: color})
		if b.rec != nil {
			b.rec.BuildingBuilt()
		}
	}
	took := time.Since(start)
	if b.rec != nil {
		b.rec.SceneBuilt(len(s.Entities), took)
	}
	zap.L().Info("scene: built",
		zap.Int("records", len(records)),
		zap.Int("buildings", len(s.Entities)),
		zap.Duration("took", took),
	)
	return s
}

func (b *Builder) rejected(reason string) {
	if b.rec != nil {
		b.rec.BuildingRejected(reason)
	}
}

func (s *Scene) Len() int { return len(s.Entities) }

// Find returns the entity with the given id.
func (s *Scene) Find(id selection.ID) (Entity, bool) {
	i, ok := s.Index(id)
	if !ok {
		return Entity{}, false
	}
	return s.Entities[i], true
}

func (s *Scene) Index(id selection.ID) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.byID[id]
	return i, ok
}

// Selected returns the entity matching the store's current selection.
func (s *Scene) Selected(store *selection.Store) (Entity, bool) {
	id, ok := store.Current()
	if !ok {
		return Entity{}, false
	}
	return s.Find(id)
}

// Bounds is the scene-space box around every mesh.
func (s *Scene) Bounds() (lo, hi mgl64.Vec3, ok bool) {
	for _, e := range s.Entities {
		elo, ehi, eok := e.Mesh.Bounds()
		if !eok {
			continue
		}
		if !ok {
			lo, hi, ok = elo, ehi, true
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], elo[k])
			hi[k] = max(hi[k], ehi[k])
		}
	}
	return lo, hi, ok
}

// DisplayColor is the color e renders with right now: the highlight when it
// is the selected building, its height color otherwise.
func DisplayColor(e Entity, store *selection.Store, highlight palette.Color) palette.Color {
	if store != nil && store.IsSelected(e.ID()) {
		return highlight
	}
	return e.Base
}

// DisplayColor uses the scene's highlight color.
func (s *Scene) DisplayColor(i int, store *selection.Store) palette.Color {
	return DisplayColor(s.Entities[i], store, s.Highlight)
}
