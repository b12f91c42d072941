package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDVehicle string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicAttitude string
	TopicMotion   string
	TopicCommand  string

	// Run against simulated sensors and actuators
	UseMock bool

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Line sensor, left to right
	LineSensorPins []string

	// Motors, "chA,chB" each
	MotorLeftPins      []string
	MotorRightPins     []string
	MotorRightReversed bool
	PWMFrequencyHz     int
	PWMFullScale       uint32

	// Feedback outputs
	BuzzerPin        string
	LEDPin           string
	PromptDurationMS int

	// Timing
	AttitudeIntervalMS  int
	MotionIntervalMS    int
	TelemetryIntervalMS int

	// Motion
	CruiseSpeed float64
	GainsFile   string

	// Web Server
	WebServerPort int
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal() and Get().
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional key at its default value.
func Defaults() *Config {
	return &Config{
		MQTTClientIDVehicle: "line-follower-vehicle",
		MQTTClientIDConsole: "line-follower-console",
		MQTTClientIDWeb:     "line-follower-web",
		TopicAttitude:       "vehicle/attitude",
		TopicMotion:         "vehicle/motion",
		TopicCommand:        "vehicle/command",
		IMUAccelRange:       1,
		IMUGyroRange:        2,
		MotorRightReversed:  true,
		PWMFrequencyHz:      20000,
		PWMFullScale:        11999,
		PromptDurationMS:    120,
		AttitudeIntervalMS:  10,
		MotionIntervalMS:    5,
		TelemetryIntervalMS: 100,
		CruiseSpeed:         0.10,
		GainsFile:           "./pid_gains.json",
		WebServerPort:       8080,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_VEHICLE":
		c.MQTTClientIDVehicle = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_ATTITUDE":
		c.TopicAttitude = value
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	case "USE_MOCK":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK %q: %w", value, err)
		}
		c.UseMock = b

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)

	// Line sensor
	case "LINE_SENSOR_PINS":
		pins := splitList(value)
		if len(pins) != 5 {
			return fmt.Errorf("LINE_SENSOR_PINS needs 5 pins, got %d", len(pins))
		}
		c.LineSensorPins = pins

	// Motors
	case "MOTOR_LEFT_PINS":
		pins := splitList(value)
		if len(pins) != 2 {
			return fmt.Errorf("MOTOR_LEFT_PINS needs 2 pins, got %d", len(pins))
		}
		c.MotorLeftPins = pins
	case "MOTOR_RIGHT_PINS":
		pins := splitList(value)
		if len(pins) != 2 {
			return fmt.Errorf("MOTOR_RIGHT_PINS needs 2 pins, got %d", len(pins))
		}
		c.MotorRightPins = pins
	case "MOTOR_RIGHT_REVERSED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MOTOR_RIGHT_REVERSED %q: %w", value, err)
		}
		c.MotorRightReversed = b
	case "PWM_FREQUENCY_HZ":
		hz, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PWM_FREQUENCY_HZ %q: %w", value, err)
		}
		if hz <= 0 {
			return fmt.Errorf("PWM_FREQUENCY_HZ must be positive, got %d", hz)
		}
		c.PWMFrequencyHz = hz
	case "PWM_FULL_SCALE":
		fs, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid PWM_FULL_SCALE %q: %w", value, err)
		}
		if fs == 0 {
			return fmt.Errorf("PWM_FULL_SCALE must be positive")
		}
		c.PWMFullScale = uint32(fs)

	// Feedback outputs
	case "BUZZER_PIN":
		c.BuzzerPin = value
	case "LED_PIN":
		c.LEDPin = value
	case "PROMPT_DURATION_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PROMPT_DURATION_MS %q: %w", value, err)
		}
		c.PromptDurationMS = ms

	// Timing
	case "ATTITUDE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ATTITUDE_INTERVAL_MS %q: %w", value, err)
		}
		c.AttitudeIntervalMS = interval
	case "MOTION_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOTION_INTERVAL_MS %q: %w", value, err)
		}
		c.MotionIntervalMS = interval
	case "TELEMETRY_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TELEMETRY_INTERVAL_MS %q: %w", value, err)
		}
		c.TelemetryIntervalMS = interval

	// Motion
	case "CRUISE_SPEED":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CRUISE_SPEED %q: %w", value, err)
		}
		if v < -1 || v > 1 {
			return fmt.Errorf("CRUISE_SPEED must be within [-1, 1], got %g", v)
		}
		c.CruiseSpeed = v
	case "GAINS_FILE":
		c.GainsFile = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.AttitudeIntervalMS <= 0 {
		return fmt.Errorf("ATTITUDE_INTERVAL_MS must be positive")
	}
	if c.MotionIntervalMS <= 0 {
		return fmt.Errorf("MOTION_INTERVAL_MS must be positive")
	}
	if c.TelemetryIntervalMS <= 0 {
		return fmt.Errorf("TELEMETRY_INTERVAL_MS must be positive")
	}
	if c.UseMock {
		return nil
	}
	if c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required")
	}
	if len(c.LineSensorPins) == 0 {
		return fmt.Errorf("LINE_SENSOR_PINS is required")
	}
	if len(c.MotorLeftPins) == 0 || len(c.MotorRightPins) == 0 {
		return fmt.Errorf("MOTOR_LEFT_PINS and MOTOR_RIGHT_PINS are required")
	}
	return nil
}

// AttitudeInterval is the attitude loop period.
func (c *Config) AttitudeInterval() time.Duration {
	return time.Duration(c.AttitudeIntervalMS) * time.Millisecond
}

// MotionInterval is the motion loop period.
func (c *Config) MotionInterval() time.Duration {
	return time.Duration(c.MotionIntervalMS) * time.Millisecond
}

// TelemetryInterval is the telemetry publish period.
func (c *Config) TelemetryInterval() time.Duration {
	return time.Duration(c.TelemetryIntervalMS) * time.Millisecond
}

// PromptDuration is the length of a feedback pulse.
func (c *Config) PromptDuration() time.Duration {
	return time.Duration(c.PromptDurationMS) * time.Millisecond
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
