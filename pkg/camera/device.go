package camera

import (
	"fmt"

	"github.com/teslashibe/facelight/pkg/presence"
	"gocv.io/x/gocv"
)

// Device opens OpenCV video captures. It holds no open handle between
// calls; every Open returns a fresh capture that the caller must Close.
type Device struct {
	config Config
}

// NewDevice creates a device using cfg's resolution settings.
func NewDevice(cfg Config) *Device {
	return &Device{config: cfg}
}

// Open opens the capture device at index.
func (d *Device) Open(index int) (presence.Source, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open video capture %d: %w", index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video capture %d did not open", index)
	}

	if d.config.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	}
	if d.config.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))
	}

	return &source{
		vc:  vc,
		raw: gocv.NewMat(),
	}, nil
}

// source is one open capture. Not safe for concurrent use.
type source struct {
	vc  *gocv.VideoCapture
	raw gocv.Mat
}

// Read grabs the next frame and converts it to equalized grayscale.
func (s *source) Read() (presence.Frame, bool) {
	if ok := s.vc.Read(&s.raw); !ok || s.raw.Empty() {
		return nil, false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(s.raw, &gray, gocv.ColorBGRToGray)

	eq := gocv.NewMat()
	gocv.EqualizeHist(gray, &eq)
	if eq.Empty() {
		eq.Close()
		return nil, false
	}
	return &Frame{mat: eq}, true
}

// Close releases the capture and its scratch buffer.
func (s *source) Close() error {
	s.raw.Close()
	return s.vc.Close()
}

// Frame is a grayscale, equalized OpenCV image.
type Frame struct {
	mat gocv.Mat
}

// Mat returns the underlying image. It is valid until Close.
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

// Size returns the frame width and height in pixels.
func (f *Frame) Size() (int, int) {
	return f.mat.Cols(), f.mat.Rows()
}

// Close frees the image.
func (f *Frame) Close() error {
	return f.mat.Close()
}
