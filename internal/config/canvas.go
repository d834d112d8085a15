package config

import "time"

// CanvasConfig tunes the viewport and the gesture stream.
type CanvasConfig struct {
	DefaultScale  float64
	MinScale      float64
	MaxScale      float64
	ZoomStep      float64
	FrameInterval time.Duration // pointer-move coalescing window
	RotateStep    float64       // degrees per rotate-knob click
	FitPadding    float64       // screen pixels kept around fitted tables
}

// LoadCanvasConfig reads CANVAS_* variables.  Out-of-range values are left
// for canvas.ViewportConfig to sanitise.
func LoadCanvasConfig() CanvasConfig {
	return CanvasConfig{
		DefaultScale:  envFloat("CANVAS_DEFAULT_SCALE", 1),
		MinScale:      envFloat("CANVAS_MIN_SCALE", 0.1),
		MaxScale:      envFloat("CANVAS_MAX_SCALE", 5),
		ZoomStep:      envFloat("CANVAS_ZOOM_STEP", 0.05),
		FrameInterval: envDur("CANVAS_FRAME_INTERVAL", 16*time.Millisecond),
		RotateStep:    envFloat("CANVAS_ROTATE_STEP", 15),
		FitPadding:    envFloat("CANVAS_FIT_PADDING", 40),
	}
}
