package presence

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeFrame tracks whether it was closed.
type fakeFrame struct {
	id     int
	closed bool
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

// fakeCamera hands out a scripted sequence of reads. A false entry in reads
// is a read that returns no data.
type fakeCamera struct {
	mu      sync.Mutex
	openErr error
	reads   []bool

	opens    int
	releases int
	frames   []*fakeFrame
}

func (c *fakeCamera) Open(index int) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.opens++
	return &fakeSource{cam: c}, nil
}

func (c *fakeCamera) openCount() (opens, releases int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens, c.releases
}

type fakeSource struct {
	cam  *fakeCamera
	next int
}

func (s *fakeSource) Read() (Frame, bool) {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	i := s.next
	s.next++
	if i >= len(s.cam.reads) || !s.cam.reads[i] {
		return nil, false
	}
	f := &fakeFrame{id: i}
	s.cam.frames = append(s.cam.frames, f)
	return f, true
}

func (s *fakeSource) Close() error {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	s.cam.releases++
	return nil
}

// okReads returns n successful reads.
func okReads(n int) []bool {
	reads := make([]bool, n)
	for i := range reads {
		reads[i] = true
	}
	return reads
}

// scriptedDetector returns its votes in order, then 0.
type scriptedDetector struct {
	name  string
	mu    sync.Mutex
	votes []int
	calls int
}

func (d *scriptedDetector) Name() string { return d.name }

func (d *scriptedDetector) CountFaces(f Frame) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if i < len(d.votes) {
		return d.votes[i]
	}
	return 0
}

// slowDetector reports faces after a fixed delay per frame.
type slowDetector struct {
	delay time.Duration
	faces int
}

func (d *slowDetector) Name() string { return "slow" }

func (d *slowDetector) CountFaces(f Frame) int {
	time.Sleep(d.delay)
	return d.faces
}

// recordingActuator remembers every level it was asked to apply. Like the
// real backends it refuses to write once ctx is done.
type recordingActuator struct {
	mu     sync.Mutex
	err    error
	levels []int
}

func (a *recordingActuator) SetBrightness(ctx context.Context, percent int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.levels = append(a.levels, percent)
	return a.err
}

func (a *recordingActuator) applied() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.levels...)
}

var errNoDevice = errors.New("no such device")
