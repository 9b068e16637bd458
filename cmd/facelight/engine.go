package main

import (
	"fmt"

	"github.com/teslashibe/facelight/internal/config"
	"github.com/teslashibe/facelight/pkg/brightness"
	"github.com/teslashibe/facelight/pkg/camera"
	"github.com/teslashibe/facelight/pkg/detection"
	"github.com/teslashibe/facelight/pkg/presence"
)

// engine is the in-process presence pipeline.
type engine struct {
	state   *presence.State
	checker *presence.Checker
	monitor *presence.Monitor
	models  detection.Set
}

func newEngine(c config.Config) (*engine, error) {
	models, err := detection.Load(c.Detection)
	if err != nil {
		return nil, fmt.Errorf("load face models: %w", err)
	}

	actuator, err := brightness.New(c.Brightness)
	if err != nil {
		models.Close()
		return nil, fmt.Errorf("brightness backend: %w", err)
	}

	device := camera.NewDevice(c.Camera)
	checker := presence.NewChecker(c.Camera.Sampler(device), models.Detectors(), actuator, c.Monitor.CheckTimeout)
	state := presence.NewState()

	return &engine{
		state:   state,
		checker: checker,
		monitor: presence.NewMonitor(checker, state, c.Monitor.Interval, c.Monitor.StopTimeout),
		models:  models,
	}, nil
}

// Close stops monitoring and frees the models.
func (e *engine) Close() error {
	e.monitor.Stop()
	return e.models.Close()
}
