//go:build unix

package redshift

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// rampBuffer is an anonymous shared memory region holding one gamma table:
// three consecutive ramps of size uint16 samples (red, green, blue). Each
// update gets a fresh region, since the compositor may still be reading the
// previously submitted one.
type rampBuffer struct {
	fd   int
	size int
}

func newRampBuffer(size int) (*rampBuffer, error) {
	if size < 2 {
		return nil, fmt.Errorf("invalid gamma ramp size %d", size)
	}
	fd, err := unix.Open("/dev/shm", unix.O_TMPFILE|unix.O_RDWR|unix.O_EXCL|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("allocate shared memory: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)*3*2); err != nil { // [3*size]uint16
		unix.Close(fd)
		return nil, fmt.Errorf("allocate shared memory: %w", err)
	}
	return &rampBuffer{fd: fd, size: size}, nil
}

func (r *rampBuffer) fill(p Profile) error {
	red := make([]uint16, r.size)
	green := make([]uint16, r.size)
	blue := make([]uint16, r.size)
	if err := FillColorRamp(red, green, blue, p); err != nil {
		return err
	}
	if _, err := unix.Pwritev(r.fd, [][]byte{
		unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(red))), r.size*2),
		unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(green))), r.size*2),
		unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(blue))), r.size*2),
	}, 0); err != nil {
		return fmt.Errorf("write shared memory: %w", err)
	}
	return nil
}

// submit hands the region off to the compositor. The compositor reads the
// table starting at the current file offset, so rewind first.
func (r *rampBuffer) submit(control gammaControl) error {
	if _, err := unix.Seek(r.fd, 0, unix.SEEK_SET); err != nil {
		return fmt.Errorf("seek shared memory: %w", err)
	}
	control.SetGamma(r.fd) // if this fails, the failed event arrives asynchronously
	return nil
}

func (r *rampBuffer) close() {
	unix.Close(r.fd)
}
