package redshift

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// xManager manages gamma ramps for X11 displays using RandR. It is safe for
// concurrent usage.
type xManager struct {
	conn   *xgb.Conn
	errch  chan error
	logger *slog.Logger

	root xproto.Window

	mu      sync.Mutex
	profile *Profile
}

// NewX11 opens a X11 connection to the specified display (empty for the
// default), processing events in another goroutine. If a fatal error occurs,
// the chan will return it, and the connection should be closed as it will no
// longer be usable. If logger is nil, logging is disabled.
func NewX11(display string, logger *slog.Logger) (Manager, <-chan error, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, nil, err
	}

	e := make(chan error, 1)
	m := &xManager{conn: conn, errch: e, logger: logger}

	m.root = xproto.Setup(m.conn).DefaultScreen(conn).Root

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}

	if err := randr.SelectInputChecked(m.conn, m.root, randr.NotifyMaskCrtcChange).Check(); err != nil {
		conn.Close()
		return nil, nil, err
	}

	go func() {
		for {
			e, err := m.conn.WaitForEvent()
			if err != nil {
				m.errch <- err
				return
			}
			switch e := e.(type) {
			case randr.NotifyEvent:
				if e.SubCode == randr.NotifyCrtcChange {
					m.apply()
				}
			}
		}
	}()

	return m, e, nil
}

func (m *xManager) Close() {
	m.conn.Close()
}

func (m *xManager) Set(p Profile) {
	func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.profile = &p
	}()

	m.apply()
}

func (m *xManager) apply() {
	profile := func() *Profile {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.profile
	}()
	if profile == nil {
		return // not ready
	}

	resources, err := randr.GetScreenResourcesCurrent(m.conn, m.root).Reply()
	if err != nil {
		m.logger.Error("x11: randr: failed to get screen resources", "error", err)
		return
	}

	for _, crtc := range resources.Crtcs {
		if err := setCrtcRamp(m.conn, crtc, *profile); err != nil {
			m.logger.Warn("x11: randr: failed to set color ramp", "crtc", crtc, "error", err)
		}
	}
}

// setCrtcRamp applies the profile to the specified CRTC. The RandR extension
// must be initialized.
func setCrtcRamp(conn *xgb.Conn, crtc randr.Crtc, p Profile) error {
	gamma, err := randr.GetCrtcGammaSize(conn, crtc).Reply()
	if err != nil {
		return fmt.Errorf("get crtc gamma size: %w", err)
	}
	r := make([]uint16, gamma.Size)
	g := make([]uint16, gamma.Size)
	b := make([]uint16, gamma.Size)
	if err := FillColorRamp(r, g, b, p); err != nil {
		return fmt.Errorf("fill color ramp: %w", err)
	}
	if err := randr.SetCrtcGammaChecked(conn, crtc, gamma.Size, r, g, b).Check(); err != nil {
		return fmt.Errorf("set crtc gamma: %w", err)
	}
	return nil
}
