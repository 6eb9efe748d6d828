package dmd

import (
	"sync"
)

// Pipeline is the frame ingest queue, normalization worker and fan-out
// point for one DMD. It owns its worker goroutine, cached palette, shadow
// and output buffers, and the set of registered backends and virtual
// consumers; callers create it before wiring producers or backends and stop
// it after both are torn down.
type Pipeline struct {
	cfg Config

	qmu    sync.Mutex
	queue  []DmdUpdate
	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}

	overflowLogged bool

	bmu      sync.Mutex
	backends []*backendSlot

	cmu       sync.Mutex
	consumers []*VirtualConsumer

	// heldBuffered is the most recently ingested update carrying
	// Buffered=true, retained so a network-server disconnect handler can
	// decide whether to blank the display or leave the buffered frame on
	// screen for a newly promoted owner. Cleared by the next ingest of any
	// kind. Guarded by qmu.
	heldBuffered *DmdUpdate

	// Worker-local state. Touched only by the worker goroutine: no lock
	// needed, matching the spec's "exclusively mutated by the pipeline
	// worker" invariant.
	currentMode   Mode
	palette       Palette
	paletteValid  bool
	indexedShadow []byte
	rgb24Shadow   []byte
	seg1Shadow    []uint16
	seg2Shadow    []uint16

	rgb24Buf  []byte
	rgb565Buf []byte

	dump diagnosticsDump
}

// NewPipeline creates a pipeline with the given configuration. Call Start to
// begin processing.
func NewPipeline(cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:    cfg,
		queue:  make([]DmdUpdate, 0, cfg.QueueDepth),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		dump:   newDiagnosticsDump(cfg.DebugDumpDir, cfg.DebugDumpPattern, cfg.DebugDumpEveryN),
	}
}

// Start launches the worker goroutine. Must be called at most once.
func (p *Pipeline) Start() {
	go p.run()
}

// Stop requests the worker to exit and waits for it to finish draining its
// current frame. Backends are not closed here; callers close them after
// Stop returns, matching the ownership order in the data model.
func (p *Pipeline) Stop() {
	close(p.stop)
	<-p.done
}

// AddBackend registers a display sink. Safe to call concurrently with the
// running worker.
func (p *Pipeline) AddBackend(b Backend) {
	p.bmu.Lock()
	defer p.bmu.Unlock()
	p.backends = append(p.backends, &backendSlot{backend: b, active: true})
}

// AddVirtualConsumer registers and returns a new in-process snapshot
// consumer.
func (p *Pipeline) AddVirtualConsumer() *VirtualConsumer {
	v := NewVirtualConsumer()
	p.cmu.Lock()
	p.consumers = append(p.consumers, v)
	p.cmu.Unlock()
	return v
}

// UpdateIndexed enqueues an indexed-palette frame. Never blocks.
func (p *Pipeline) UpdateIndexed(width, height int, depth Depth, payload []byte, tint Tint, buffered bool) {
	u := DmdUpdate{Variant: VariantIndexed, Indexed: &IndexedUpdate{
		Width: width, Height: height, Depth: depth, Payload: payload, Tint: tint, Buffered: buffered,
	}}
	p.enqueue(u)
}

// UpdateRGB24 enqueues a true-color frame. depthHint < 24 requests
// luminance-quantized display at that depth.
func (p *Pipeline) UpdateRGB24(width, height int, depthHint Depth, payload []byte, tint Tint, buffered bool) {
	u := DmdUpdate{Variant: VariantRGB24, RGB24: &RGB24Update{
		Width: width, Height: height, DepthHint: depthHint, Payload: payload, Tint: tint, Buffered: buffered,
	}}
	p.enqueue(u)
}

// UpdateSegments enqueues an alpha-numeric segment frame.
func (p *Pipeline) UpdateSegments(layout SegmentLayout, seg1, seg2 []uint16, tint Tint) {
	u := DmdUpdate{Variant: VariantSegments, Segments: &SegmentsUpdate{
		Layout: layout, Segments1: seg1, Segments2: seg2, Tint: tint,
	}}
	p.enqueue(u)
}

// enqueue appends to the tail of the ingest queue, dropping the oldest entry
// on overflow (newest-wins) and logging once per overflow burst.
func (p *Pipeline) enqueue(u DmdUpdate) {
	p.qmu.Lock()

	if u.bufferedFlag() {
		cp := u
		p.heldBuffered = &cp
	} else {
		p.heldBuffered = nil
	}

	if len(p.queue) >= p.cfg.QueueDepth {
		p.queue = p.queue[1:]
		if !p.overflowLogged {
			p.cfg.Logger.Warn("pipeline ingest queue overflow, dropping oldest", "depth", p.cfg.QueueDepth)
			p.overflowLogged = true
		}
	} else {
		p.overflowLogged = false
	}
	p.queue = append(p.queue, u)
	p.qmu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// bufferedFlag reports the Buffered flag of whichever variant is populated.
func (u DmdUpdate) bufferedFlag() bool {
	switch u.Variant {
	case VariantIndexed:
		return u.Indexed != nil && u.Indexed.Buffered
	case VariantRGB24:
		return u.RGB24 != nil && u.RGB24.Buffered
	default:
		return false
	}
}

// HeldBuffered returns the most recently ingested buffered=true update, if
// any update has arrived since the last ingest cleared it.
func (p *Pipeline) HeldBuffered() (DmdUpdate, bool) {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	if p.heldBuffered == nil {
		return DmdUpdate{}, false
	}
	return *p.heldBuffered, true
}

// Disconnect implements the owner-disconnect display policy (§9 open
// questions, resolved): if the most recent frame was not buffered, blank the
// display; if it was buffered, leave it on screen for a newly promoted
// owner.
func (p *Pipeline) Disconnect() {
	if _, held := p.HeldBuffered(); held {
		return
	}
	blank := make([]byte, 3*128*32)
	p.UpdateRGB24(128, 32, Depth24, blank, Tint{}, false)
}

func (p *Pipeline) dequeue() (DmdUpdate, bool) {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	if len(p.queue) == 0 {
		return DmdUpdate{}, false
	}
	u := p.queue[0]
	p.queue = p.queue[1:]
	return u, true
}

// run is the worker goroutine: Idle -> Draining -> Normalizing -> Emitting
// -> Idle, or Idle -> Stopping on shutdown.
func (p *Pipeline) run() {
	defer close(p.done)

	for {
		u, ok := p.dequeue()
		if !ok {
			select {
			case <-p.notify:
				continue
			case <-p.stop:
				return
			}
		}
		p.dispatch(u)
	}
}

func (p *Pipeline) dispatch(u DmdUpdate) {
	var mode Mode
	switch u.Variant {
	case VariantIndexed:
		mode = ModeIndexed
	case VariantRGB24:
		mode = ModeRGB24
	case VariantSegments:
		mode = ModeAlphaNumericSegments
	}

	refresh := mode != p.currentMode
	p.currentMode = mode

	switch u.Variant {
	case VariantIndexed:
		p.handleIndexed(u.Indexed, refresh)
	case VariantRGB24:
		p.handleRGB24(u.RGB24, refresh)
	case VariantSegments:
		p.handleSegments(u.Segments, refresh)
	}
}

func (p *Pipeline) handleIndexed(u *IndexedUpdate, refresh bool) {
	f := Frame{Width: u.Width, Height: u.Height, Mode: ModeIndexed, Depth: u.Depth, Payload: u.Payload}
	if err := f.Validate(); err != nil {
		p.cfg.Logger.Error("dropping invalid indexed frame", "err", err)
		return
	}

	n := u.Width * u.Height
	dstIndexed := make([]byte, n)
	dstPalette := make([]Tint, 64)
	changed, err := p.cfg.Colorizer.Convert(u.Payload, dstIndexed, dstPalette)
	if err == nil {
		if changed {
			p.emit(u.Width, u.Height, Depth6, dstIndexed, Palette{Depth: Depth6, Entries: dstPalette})
		}
		return
	}

	if !bytesEqual(u.Payload, p.indexedShadow) {
		p.indexedShadow = append(p.indexedShadow[:0], u.Payload...)
		refresh = true
	}

	ramp := levelRamp(u.Depth, p.cfg.SamSystem)
	pal := synthesizeRampedPalette(u.Tint, ramp)
	if !p.paletteValid || !palettesEqual(pal, p.palette) {
		p.palette = pal
		p.paletteValid = true
		refresh = true
	}

	if !refresh {
		return
	}

	p.emit(u.Width, u.Height, u.Depth, u.Payload, p.palette)
}

func (p *Pipeline) handleRGB24(u *RGB24Update, refresh bool) {
	f := Frame{Width: u.Width, Height: u.Height, Mode: ModeRGB24, Depth: Depth24, Payload: u.Payload}
	if err := f.Validate(); err != nil {
		p.cfg.Logger.Error("dropping invalid rgb24 frame", "err", err)
		return
	}

	rgb24 := u.Payload
	var levels []byte
	var pal Palette

	if u.DepthHint < Depth24 {
		n := u.Width * u.Height
		levels = make([]byte, n)
		LuminanceQuantize(levels, u.Payload, u.DepthHint)
		pal = SynthesizePalette(u.Tint, u.DepthHint)
		rgb24 = make([]byte, 3*n)
		IndexedToRGB24(rgb24, levels, pal)
	}

	if !bytesEqual(rgb24, p.rgb24Shadow) {
		p.rgb24Shadow = append(p.rgb24Shadow[:0], rgb24...)
		refresh = true
	}
	if u.DepthHint < Depth24 && (!p.paletteValid || !palettesEqual(pal, p.palette)) {
		p.palette = pal
		p.paletteValid = true
		refresh = true
	}

	if !refresh {
		return
	}

	if u.DepthHint < Depth24 {
		p.emit(u.Width, u.Height, u.DepthHint, levels, pal)
		return
	}
	p.emitRGB24Only(u.Width, u.Height, rgb24)
}

func (p *Pipeline) handleSegments(u *SegmentsUpdate, refresh bool) {
	indexed, width, height, err := p.cfg.SegmentRenderer.RenderSegments(u.Layout, u.Segments1, u.Segments2)
	if err != nil {
		p.cfg.Logger.Error("segment renderer unavailable", "err", err)
		return
	}

	if !sliceEqualU16(u.Segments1, p.seg1Shadow) || !sliceEqualU16(u.Segments2, p.seg2Shadow) {
		p.seg1Shadow = append(p.seg1Shadow[:0], u.Segments1...)
		p.seg2Shadow = append(p.seg2Shadow[:0], u.Segments2...)
		refresh = true
	}

	pal := synthesizeRampedPalette(u.Tint, LevelsWPC[:])
	if !p.paletteValid || !palettesEqual(pal, p.palette) {
		p.palette = pal
		p.paletteValid = true
		refresh = true
	}

	if !refresh {
		return
	}
	p.emit(width, height, Depth2, indexed, pal)
}

// emit derives RGB24 and RGB565 output buffers from an indexed frame and
// fans out to every active backend and virtual consumer.
func (p *Pipeline) emit(width, height int, depth Depth, indexed []byte, pal Palette) {
	n := width * height
	if cap(p.rgb24Buf) < 3*n {
		p.rgb24Buf = make([]byte, 3*n)
	}
	p.rgb24Buf = p.rgb24Buf[:3*n]
	IndexedToRGB24(p.rgb24Buf, indexed, pal)

	if cap(p.rgb565Buf) < 2*n {
		p.rgb565Buf = make([]byte, 2*n)
	}
	p.rgb565Buf = p.rgb565Buf[:2*n]
	RGB24ToRGB565(p.rgb565Buf, p.rgb24Buf)

	p.dump.maybeDump(p.rgb24Buf, p.cfg.Logger)

	p.bmu.Lock()
	for _, slot := range p.backends {
		if !slot.active {
			continue
		}
		var err error
		if depth == Depth6 && !slot.backend.SupportsColoredGrayscale() {
			err = slot.backend.RenderRGB24(width, height, append([]byte(nil), p.rgb24Buf...))
		} else {
			err = slot.backend.RenderIndexed(width, height, depth, pal, indexed)
		}
		if err != nil {
			p.cfg.Logger.Error("backend render failed, deactivating", "backend", slot.backend.Name(), "err", err)
			slot.active = false
		}
	}
	p.bmu.Unlock()

	p.cmu.Lock()
	for _, v := range p.consumers {
		v.update(width, height, depth, indexed, p.rgb24Buf)
	}
	p.cmu.Unlock()
}

// emitRGB24Only fans out a true-color frame that has no indexed counterpart.
func (p *Pipeline) emitRGB24Only(width, height int, rgb24 []byte) {
	n := width * height
	if cap(p.rgb565Buf) < 2*n {
		p.rgb565Buf = make([]byte, 2*n)
	}
	p.rgb565Buf = p.rgb565Buf[:2*n]
	RGB24ToRGB565(p.rgb565Buf, rgb24)

	p.dump.maybeDump(rgb24, p.cfg.Logger)

	p.bmu.Lock()
	for _, slot := range p.backends {
		if !slot.active {
			continue
		}
		if err := slot.backend.RenderRGB24(width, height, rgb24); err != nil {
			p.cfg.Logger.Error("backend render failed, deactivating", "backend", slot.backend.Name(), "err", err)
			slot.active = false
		}
	}
	p.bmu.Unlock()

	p.cmu.Lock()
	for _, v := range p.consumers {
		v.update(width, height, Depth24, nil, rgb24)
	}
	p.cmu.Unlock()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sliceEqualU16(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func palettesEqual(a, b Palette) bool {
	if a.Depth != b.Depth || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		if a.Entries[i] != b.Entries[i] {
			return false
		}
	}
	return true
}
