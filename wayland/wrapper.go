// Package wayland wraps the wl client library's main loop so that protocol
// objects can be used safely from multiple goroutines.
package wayland

import (
	"os"

	"codeberg.org/tesselslate/wl"
)

// The wl library's write queue is not goroutine-safe, and it provides no way
// to interrupt a running [wl.Display.Dispatch]. Every method call on a
// protocol object enqueues a message, so all of them (including calls made
// from event callbacks, which already run on the dispatch goroutine) must
// happen under the connection lock via [Connection.Do] or
// [Connection.Enqueue].

// Connection is a Wayland display connection whose dispatch loop runs on its
// own goroutine. All errors returned from Do/Enqueue callbacks are fatal and
// close the connection.
type Connection struct {
	done      chan struct{}
	closed    chan struct{}
	closedErr error
	mu        chan struct{} // held while touching the write queue; a chan so close can be selected against it
	display   *wl.Display
}

// Connect connects to the named Wayland display, or the default one if name
// is empty.
func Connect(name string) (*Connection, error) {
	display, err := wl.NewDisplay(name)
	if err != nil {
		return nil, err
	}

	c := &Connection{
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
		mu:      make(chan struct{}, 1),
		display: display,
	}
	go c.dispatch()

	c.mu <- struct{}{}

	return c, nil
}

func (c *Connection) dispatch() {
	defer close(c.done)
	for {
		// flush anything queued since the last round before blocking on the
		// socket again
		if err := c.Do(func() error {
			return nil
		}); err != nil {
			return // Do already closed the connection
		}
		if err := c.display.Dispatch(); err != nil {
			c.closeWithError(err)
			return
		}
	}
}

// Registry requests the display registry and sets its listener.
func (c *Connection) Registry(cb wl.RegistryListener) error {
	return c.Do(func() error {
		registry := c.display.GetRegistry()
		registry.SetListener(cb, nil)
		return nil
	})
}

// Do runs fn while holding the connection lock, then flushes the write queue.
// It must not be nested inside another Do or Enqueue callback. A returned
// error is fatal and closes the connection.
func (c *Connection) Do(fn func() error) error {
	select {
	case <-c.closed:
		if err := c.closedErr; err != nil {
			return err
		}
		return os.ErrClosed
	case <-c.mu: // lock
	}
	if err := fn(); err != nil {
		c.closeWithErrorLocked(err)
		return err
	}
	if err := c.display.Flush(); err != nil {
		c.closeWithErrorLocked(err)
		return err
	}
	c.mu <- struct{}{} // unlock
	return nil
}

// Enqueue waits for all events sent by the compositor so far to be
// dispatched, then runs fn as [Connection.Do] would. A returned error is
// fatal and closes the connection.
func (c *Connection) Enqueue(fn func() error) error {
	done := make(chan struct{})

	if err := c.Do(func() error {
		// a sync callback fires only once everything before it has been
		// processed
		cb := c.display.Sync()
		cb.SetListener(wl.CallbackListener{
			Done: func(data any, self wl.Callback, callbackData uint32) error {
				defer close(done)
				return c.Do(fn)
			},
		}, nil)
		return nil
	}); err != nil {
		return err
	}

	<-done
	return nil
}

// Close closes the connection if it is not already closed and waits for the
// dispatch goroutine to return.
func (c *Connection) Close() {
	c.closeWithError(nil)
	<-c.done
}

func (c *Connection) closeWithError(err error) {
	select {
	case <-c.closed:
		return
	case <-c.mu: // lock, and keep it so the closed chan is always selected from now on
	}
	c.closeWithErrorLocked(err)
}

func (c *Connection) closeWithErrorLocked(err error) {
	select {
	case <-c.closed:
		return
	default:
	}
	defer func() {
		c.closedErr = err
		close(c.closed)
	}()
	c.display.Close()
}

// Closed blocks until the connection is closed, returning the fatal error if
// it was not closed by [Connection.Close].
func (c *Connection) Closed() error {
	<-c.closed
	return c.closedErr
}
