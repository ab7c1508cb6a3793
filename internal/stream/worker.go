package stream

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/heightstream/internal/heightfield"
	"github.com/Faultbox/heightstream/internal/logger"
)

// Options configures the simulation state a worker carries next to terrain
// generation.
type Options struct {
	AreaWidth         int // Lattice units covered by the terrain in X
	AreaHeight        int // Lattice units covered by the terrain in Y
	MaxAnts           int
	PointLightSpacing int
	Seed              int64
}

// Worker turns tile requests into height fields and advances the
// simulation. It only ever touches its Link; all state it owns is private to
// the goroutine (or frame loop) calling Tick.
type Worker struct {
	link    *Link
	gen     *heightfield.Generator
	ants    *Ants
	lights  *PointLights
	session uuid.UUID
	log     *zap.Logger

	// pending holds a height field the heavy channel had no room for.
	// No new request is drained until it is delivered.
	pending *heightfield.Heightfield

	tick      uint64
	generated uint64
	closedLog bool
}

// NewWorker creates a worker publishing on link.
func NewWorker(link *Link, gen *heightfield.Generator, opts Options) *Worker {
	session := uuid.New()
	w := &Worker{
		link:    link,
		gen:     gen,
		ants:    NewAnts(opts.MaxAnts, float32(opts.AreaWidth), float32(opts.AreaHeight), opts.Seed),
		lights:  NewPointLights(gen, opts.AreaWidth, opts.AreaHeight, opts.PointLightSpacing),
		session: session,
		log:     logger.Named("worker").With(zap.String("session", session.String())),
	}
	w.log.Info("terrain worker created",
		zap.Int64("seed", gen.Seed()),
		zap.Int("ants", w.ants.Len()),
		zap.Int("point_lights", w.lights.Len()),
	)
	return w
}

// Session returns the id tagging this worker's logs and notices.
func (w *Worker) Session() string {
	return w.session.String()
}

// Generated returns the number of height fields delivered so far.
func (w *Worker) Generated() uint64 {
	return w.generated
}

// Tick runs one worker step: serve at most one tile request, advance the
// simulation, publish timings.
func (w *Worker) Tick() {
	w.tick++
	watch := make([]WatchPoint, 0, 3)

	start := time.Now()
	w.serveRequest()
	watch = append(watch, WatchPoint{Name: "process requests", Duration: time.Since(start)})

	start = time.Now()
	dropped := w.stepSimulation()
	watch = append(watch, WatchPoint{Name: "update simulation", Duration: time.Since(start)})
	if dropped > 0 {
		w.log.Debug("light updates dropped", zap.Int("count", dropped))
	}

	// Telemetry is best effort; a slow consumer just misses samples.
	if err := w.link.publishMedium(Telemetry{Tick: w.tick, WatchPoints: watch}); err != nil {
		w.noteSendError("medium", err)
	}
}

func (w *Worker) serveRequest() {
	if w.pending == nil {
		req, ok := w.link.nextRequest()
		if !ok {
			return
		}
		hf, err := w.generate(req.Descriptor)
		if err != nil {
			w.log.Error("height field generation failed", zap.Error(err))
			if perr := w.link.publishCritical(Notice{Session: w.Session(), Err: err}); perr != nil {
				w.noteSendError("critical", perr)
			}
			return
		}
		w.pending = &hf
	}

	switch err := w.link.publishHeavy(*w.pending); {
	case err == nil:
		w.generated++
		w.log.Debug("height field published",
			zap.Int("tile", w.pending.Descriptor.TileIndex),
			zap.Int("lod", w.pending.Descriptor.LOD),
		)
		w.pending = nil
	case errors.Is(err, ErrFull):
		// Keep it and retry next tick.
	default:
		w.noteSendError("heavy", err)
		w.pending = nil
	}
}

func (w *Worker) generate(d heightfield.Descriptor) (hf heightfield.Heightfield, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generate tile %d lod %d: %v", d.TileIndex, d.LOD, r)
		}
	}()
	return w.gen.Generate(d), nil
}

func (w *Worker) stepSimulation() int {
	dropped := 0
	w.ants.Step(func(a Ant) {
		a.Z = w.gen.HeightAt(int(a.X), int(a.Y))
		if err := w.link.publishLight(LightUpdate{Kind: LightAnt, Ant: a}); err != nil {
			dropped++
			w.noteSendError("light", err)
		}
	})
	w.lights.Step(func(p PointLight) {
		if err := w.link.publishLight(LightUpdate{Kind: LightPointLight, PointLight: p}); err != nil {
			dropped++
			w.noteSendError("light", err)
		}
	})
	return dropped
}

// noteSendError logs a closed link once; full channels are expected under
// load and are not logged here.
func (w *Worker) noteSendError(class string, err error) {
	if !errors.Is(err, ErrClosed) || w.closedLog {
		return
	}
	w.closedLog = true
	w.log.Warn("link closed, dropping worker output", zap.String("class", class))
}
