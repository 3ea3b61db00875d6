//go:build unix

package redshift

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"codeberg.org/tesselslate/wl"
	"github.com/pgaskin/automatic-redshift/wayland"
	"github.com/pgaskin/automatic-redshift/wayland/zwlr"
)

// ErrGammaControlUnsupported is returned by NewWayland when the compositor
// does not implement the wlr-gamma-control-unstable-v1 protocol.
var ErrGammaControlUnsupported = errors.New("compositor does not support zwlr_gamma_control_manager_v1")

// NewWayland connects to the specified Wayland display (empty for the
// default) to set gamma ramps for all current and future outputs. Only one
// client may control the gamma ramps of an output at a time; if another
// client holds them, updates for that output fail silently. If a fatal error
// occurs, the chan will return it, and the connection should be closed as it
// will no longer be usable. If logger is nil, logging is disabled.
func NewWayland(display string, logger *slog.Logger) (Manager, <-chan error, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := wayland.Connect(display)
	if err != nil {
		return nil, nil, err
	}

	m := &wlManager{
		conn:    conn,
		logger:  logger,
		outputs: make(map[uint32]*wlOutput),
	}
	if err := conn.Registry(wl.RegistryListener{
		Global:       m.registryGlobal,
		GlobalRemove: m.registryGlobalRemove,
	}); err != nil {
		conn.Close()
		return nil, nil, err
	}

	// wait for the initial burst of globals so we know whether the compositor
	// supports gamma control at all
	if err := conn.Enqueue(func() error { return nil }); err != nil {
		conn.Close()
		return nil, nil, err
	}
	var supported bool
	if err := conn.Do(func() error {
		supported = m.manager != nil
		return nil
	}); err != nil {
		conn.Close()
		return nil, nil, err
	}
	if !supported {
		conn.Close()
		return nil, nil, ErrGammaControlUnsupported
	}

	ch := make(chan error, 1)
	go func() {
		ch <- conn.Closed()
	}()
	return m, ch, nil
}

// wlManager tracks the set of live outputs and the profile to show on them.
// All fields after conn are only touched while holding the connection lock.
type wlManager struct {
	conn   *wayland.Connection
	logger *slog.Logger

	manager *zwlr.GammaControlManagerV1
	outputs map[uint32]*wlOutput
	profile *Profile
}

func (m *wlManager) Set(p Profile) {
	m.conn.Enqueue(func() error {
		m.profile = &p
		m.applyLocked()
		return nil
	})
}

func (m *wlManager) Close() {
	m.conn.Close()
}

func (m *wlManager) applyLocked() {
	if m.profile == nil {
		return
	}
	for _, o := range m.outputs {
		// a failure on one output must not block updates to the others
		if err := o.applyLocked(*m.profile); err != nil {
			m.logger.Warn("wayland: failed to update output", "output", o.label(), "error", err)
		}
	}
}

func (m *wlManager) registryGlobal(data any, self wl.Registry, name uint32, iface string, version uint32) error {
	return m.conn.Do(func() error {
		switch iface {
		case zwlr.GammaControlManagerV1Interface.Name:
			m.manager = new(zwlr.GammaControlManagerV1(self.Bind(name, &zwlr.GammaControlManagerV1Interface, version)))

		case wl.OutputInterface.Name:
			// defer the bind so the gamma control manager global, which may
			// be announced after the output, is seen first
			go m.conn.Enqueue(func() error {
				if m.manager == nil {
					return ErrGammaControlUnsupported
				}
				m.bindOutputLocked(self, name, version)
				return nil
			})
		}
		return nil
	})
}

func (m *wlManager) registryGlobalRemove(data any, self wl.Registry, name uint32) error {
	return m.conn.Do(func() error {
		if o, ok := m.outputs[name]; ok {
			m.logger.Debug("wayland: output removed", "output", o.label())
			m.removeLocked(o)
		}
		return nil
	})
}

func (m *wlManager) bindOutputLocked(registry wl.Registry, name uint32, version uint32) {
	o := &wlOutput{
		manager: m,
		name:    name,
		state:   outputAnnounced,
	}
	bound := wl.Output(registry.Bind(name, &wl.OutputInterface, min(version, 4)))
	bound.SetListener(wl.OutputListener{
		Name: o.outputName,
	}, nil)
	// request the gamma control speculatively; the ramp size arrives later
	control := m.manager.GetGammaControl(bound)
	control.SetListener(zwlr.GammaControlV1Listener{
		GammaSize: o.gammaControlGammaSize,
		Failed:    o.gammaControlFailed,
	}, nil)
	o.output = &bound
	o.control = &control
	o.state = outputAwaitingRampSize
	m.outputs[name] = o
	m.logger.Debug("wayland: new output", "output", name)
}

func (m *wlManager) removeLocked(o *wlOutput) {
	o.destroyLocked()
	delete(m.outputs, o.name)
}

// currentProfileLocked aggregates what the live outputs are showing: the
// average temperature, gamma, and brightness, inverted only if every output
// is. Used to seed a new output before the next recomputation stores a
// desired profile.
func (m *wlManager) currentProfileLocked() *Profile {
	var (
		count                          int
		temperature, gamma, brightness float64
		inverted                       = true
	)
	for _, o := range m.outputs {
		if o.applied == nil {
			continue
		}
		count++
		temperature += float64(o.applied.Temperature)
		gamma += o.applied.Gamma
		brightness += o.applied.Brightness
		inverted = inverted && o.applied.Inverted
	}
	if count == 0 {
		return nil
	}
	return &Profile{
		Temperature: int(math.Round(temperature / float64(count))),
		Gamma:       gamma / float64(count),
		Brightness:  brightness / float64(count),
		Inverted:    inverted,
	}
}

// outputState is the lifecycle state of a wlOutput. An output never leaves
// outputDestroyed; events referencing a destroyed output indicate the client
// and compositor have desynchronized and are fatal.
type outputState int

const (
	outputAnnounced outputState = iota
	outputAwaitingRampSize
	outputActive
	outputDestroyed
)

func (s outputState) String() string {
	switch s {
	case outputAnnounced:
		return "announced"
	case outputAwaitingRampSize:
		return "awaiting-ramp-size"
	case outputActive:
		return "active"
	case outputDestroyed:
		return "destroyed"
	}
	return "outputState(" + strconv.Itoa(int(s)) + ")"
}

// gammaControl is the part of the zwlr gamma control object used to push
// ramps, implemented by *zwlr.GammaControlV1.
type gammaControl interface {
	SetGamma(fd int)
	Destroy()
}

// outputHandle is the part of the bound wl_output used on destroy,
// implemented by *wl.Output.
type outputHandle interface {
	Release()
}

// wlOutput tracks the gamma control state for a single output. The registry
// name is its identity for its whole lifetime; the human-readable name
// arrives asynchronously and never gates ramp delivery.
type wlOutput struct {
	manager *wlManager
	name    uint32
	desc    string

	output  outputHandle
	control gammaControl

	state    outputState
	rampSize int
	applied  *Profile    // last profile pushed to the display
	stale    bool        // displayed ramp no longer matches applied
	inflight *rampBuffer // region from the last push, closed on the next one
}

func (o *wlOutput) label() string {
	if o.desc != "" {
		return strconv.FormatUint(uint64(o.name), 10) + " (" + o.desc + ")"
	}
	return strconv.FormatUint(uint64(o.name), 10)
}

func (o *wlOutput) outputName(data any, self wl.Output, name string) error {
	return o.manager.conn.Do(func() error {
		if o.state == outputDestroyed {
			return fmt.Errorf("wayland: name event for destroyed output %d", o.name)
		}
		o.desc = name
		o.manager.logger.Debug("wayland: output name", "output", o.name, "name", name)
		return nil
	})
}

func (o *wlOutput) gammaControlGammaSize(data any, self zwlr.GammaControlV1, size uint32) error {
	return o.manager.conn.Do(func() error {
		return o.setRampSizeLocked(int(size))
	})
}

func (o *wlOutput) gammaControlFailed(data any, self zwlr.GammaControlV1) error {
	return o.manager.conn.Do(func() error {
		if o.state == outputDestroyed {
			return fmt.Errorf("wayland: failed event for destroyed output %d", o.name)
		}
		// expected whenever another client holds the ramps or the output
		// disappears; not an error, just the end of this control object
		o.manager.logger.Debug("wayland: gamma control failed", "output", o.label())
		o.manager.removeLocked(o)
		return nil
	})
}

// setRampSizeLocked records the ramp length reported by the compositor and
// moves the output between awaiting-ramp-size and active.
func (o *wlOutput) setRampSizeLocked(size int) error {
	if o.state == outputDestroyed {
		return fmt.Errorf("wayland: gamma size event for destroyed output %d", o.name)
	}
	o.manager.logger.Debug("wayland: ramp size", "output", o.label(), "size", size)
	o.rampSize = size
	if size == 0 {
		o.state = outputAwaitingRampSize
		return nil
	}
	o.state = outputActive
	o.stale = true
	profile := o.manager.profile
	if profile == nil {
		profile = o.manager.currentProfileLocked()
	}
	if profile == nil {
		return nil
	}
	if err := o.applyLocked(*profile); err != nil {
		o.manager.logger.Warn("wayland: failed to update output", "output", o.label(), "error", err)
	}
	return nil
}

// applyLocked pushes the profile to the display if the output is active and
// the displayed ramp does not already match it.
func (o *wlOutput) applyLocked(p Profile) error {
	if o.state != outputActive {
		return nil
	}
	if !o.stale && o.applied != nil && *o.applied == p {
		return nil
	}
	buf, err := newRampBuffer(o.rampSize)
	if err != nil {
		return fmt.Errorf("create gamma ramp: %w", err)
	}
	if err := buf.fill(p); err != nil {
		buf.close()
		return fmt.Errorf("fill gamma ramp: %w", err)
	}
	if err := buf.submit(o.control); err != nil {
		buf.close()
		return fmt.Errorf("set gamma ramp: %w", err)
	}
	// the previous region was flushed with its own descriptor transfer, so
	// the compositor no longer needs ours
	if o.inflight != nil {
		o.inflight.close()
	}
	o.inflight = buf
	o.applied = &p
	o.stale = false
	o.manager.logger.Debug("wayland: ramp updated", "output", o.label(), "temperature", p.Temperature)
	return nil
}

func (o *wlOutput) destroyLocked() {
	if o.inflight != nil {
		o.inflight.close()
		o.inflight = nil
	}
	if o.control != nil {
		o.control.Destroy()
		o.control = nil
	}
	if o.output != nil {
		o.output.Release()
		o.output = nil
	}
	o.state = outputDestroyed
}
