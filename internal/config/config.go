// Package config loads facelight configuration from defaults, .env files
// and FACELIGHT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/teslashibe/facelight/internal/httpc"
	"github.com/teslashibe/facelight/pkg/brightness"
	"github.com/teslashibe/facelight/pkg/camera"
	"github.com/teslashibe/facelight/pkg/client"
	"github.com/teslashibe/facelight/pkg/detection"
	"github.com/teslashibe/facelight/pkg/presence"
	"github.com/teslashibe/facelight/pkg/publish"
	"github.com/teslashibe/facelight/pkg/web"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FACELIGHT_"

// Monitor holds background loop timing.
type Monitor struct {
	Interval     time.Duration `json:"interval" validate:"gt=0"`
	CheckTimeout time.Duration `json:"check_timeout" validate:"gt=0"`
	StopTimeout  time.Duration `json:"stop_timeout" validate:"gt=0"`

	// AutoStart starts monitoring when the server comes up.
	AutoStart bool `json:"auto_start"`
}

// Config is the full service and CLI configuration.
type Config struct {
	Web        web.Config        `json:"web"`
	Camera     camera.Config     `json:"camera"`
	Detection  detection.Config  `json:"detection"`
	Brightness brightness.Config `json:"brightness"`
	MQTT       publish.Config    `json:"mqtt"`
	Monitor    Monitor           `json:"monitor"`

	// APIURL is the server the CLI client talks to.
	APIURL     string        `json:"api_url" validate:"required,url"`
	APITimeout time.Duration `json:"api_timeout" validate:"gt=0"`

	LogLevel string `json:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `json:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Web:        web.DefaultConfig(),
		Camera:     camera.DefaultConfig(),
		Detection:  detection.DefaultConfig(),
		Brightness: brightness.DefaultConfig(),
		MQTT:       publish.DefaultConfig(),
		Monitor: Monitor{
			Interval:     presence.DefaultInterval,
			CheckTimeout: presence.DefaultCheckTimeout,
			StopTimeout:  presence.DefaultStopTimeout,
		},
		APIURL:     client.DefaultBaseURL,
		APITimeout: httpc.DefaultTimeout,
		LogLevel:   "info",
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// Load reads the given .env files (or ./.env if none are given and it
// exists), applies FACELIGHT_* variables over the defaults and validates
// the result. Variables already set in the environment win over .env.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", strings.Join(envFiles, ", "), err)
	}

	cfg := Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FACELIGHT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.strVar("ADDR", &c.Web.Addr)
	e.strVar("STATIC_DIR", &c.Web.StaticDir)
	e.floatVar("CHECK_RATE", &c.Web.CheckRate)
	e.intVar("CHECK_BURST", &c.Web.CheckBurst)

	e.intVar("CAMERA_INDEX", &c.Camera.Index)
	e.intVar("CAMERA_WIDTH", &c.Camera.Width)
	e.intVar("CAMERA_HEIGHT", &c.Camera.Height)
	e.intVar("WARMUP_FRAMES", &c.Camera.WarmupFrames)
	e.intVar("BURST_FRAMES", &c.Camera.BurstFrames)

	e.strVar("CASCADE_DIR", &c.Detection.CascadeDir)
	var cascades string
	if e.strVar("CASCADES", &cascades) {
		c.Detection.Models = c.Detection.Models[:0]
		for _, f := range strings.Split(cascades, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.Detection.Models = append(c.Detection.Models, detection.DefaultModel(f))
			}
		}
	}
	scale, neighbors, size := 0.0, -1, 0
	e.floatVar("SCALE_FACTOR", &scale)
	e.intVar("MIN_NEIGHBORS", &neighbors)
	e.intVar("MIN_SIZE", &size)
	c.Detection.Tune(scale, neighbors, size)

	e.durationVar("POLL_INTERVAL", &c.Monitor.Interval)
	e.durationVar("CHECK_TIMEOUT", &c.Monitor.CheckTimeout)
	e.durationVar("STOP_TIMEOUT", &c.Monitor.StopTimeout)
	e.boolVar("AUTO_START", &c.Monitor.AutoStart)

	e.strVar("BRIGHTNESS_BACKEND", &c.Brightness.Backend)
	e.strVar("BACKLIGHT_DEVICE", &c.Brightness.Device)
	e.strVar("BACKLIGHT_ROOT", &c.Brightness.Root)
	e.strVar("BRIGHTNESS_COMMAND", &c.Brightness.Command)

	e.strVar("MQTT_BROKER", &c.MQTT.Broker)
	e.strVar("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	e.strVar("MQTT_USERNAME", &c.MQTT.Username)
	e.strVar("MQTT_PASSWORD", &c.MQTT.Password)
	e.strVar("MQTT_TOPIC_PREFIX", &c.MQTT.TopicPrefix)
	var qos int
	if e.intVar("MQTT_QOS", &qos) {
		c.MQTT.QoS = byte(qos)
		if qos < 0 || qos > 2 {
			e.fail("MQTT_QOS", "must be 0, 1 or 2")
		}
	}
	e.boolVar("MQTT_RETAIN", &c.MQTT.Retain)

	e.strVar("API_URL", &c.APIURL)
	e.durationVar("API_TIMEOUT", &c.APITimeout)
	e.strVar("LOG_LEVEL", &c.LogLevel)
	e.strVar("LOG_FILE", &c.LogFile)

	return e.err
}

// Validate checks every field against its validate tag.
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return err
}

// envReader parses FACELIGHT_* variables, keeping the first error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(key, msg string) {
	if e.err == nil {
		e.err = &ConfigError{Field: EnvPrefix + key, Message: msg}
	}
}

func (e *envReader) strVar(key string, dst *string) bool {
	v, ok := e.get(key)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) intVar(key string, dst *int) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, fmt.Sprintf("%q is not an integer", v))
		return false
	}
	*dst = n
	return true
}

func (e *envReader) floatVar(key string, dst *float64) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, fmt.Sprintf("%q is not a number", v))
		return false
	}
	*dst = f
	return true
}

func (e *envReader) boolVar(key string, dst *bool) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, fmt.Sprintf("%q is not a boolean", v))
		return false
	}
	*dst = b
	return true
}

func (e *envReader) durationVar(key string, dst *time.Duration) bool {
	v, ok := e.get(key)
	if !ok {
		return false
	}
	d, err := ParseDuration(v)
	if err != nil {
		e.fail(key, err.Error())
		return false
	}
	*dst = d
	return true
}

// ParseDuration accepts Go durations ("1500ms", "3s") and plain numbers,
// which are read as seconds.
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration", s)
	}
	return d, nil
}
