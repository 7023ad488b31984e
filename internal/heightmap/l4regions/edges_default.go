//go:build !gocv

package l4regions

// DefaultDetector returns the edge detector compiled into this build. Build
// with -tags gocv to use OpenCV's Canny instead.
func DefaultDetector() EdgeDetector { return GradientDetector{} }
