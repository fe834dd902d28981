package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values for both binaries.
type Config struct {
	// Shared.
	APIKey      string
	DatabaseDSN string

	// Tracker server.
	HTTPPort          string
	Secret            string
	AdminPasswordHash string

	// Dispenser device.
	TrackerURL    string
	MotorPort     string
	RFIDPort      string
	CameraCommand string
	OCRBinary     string
	ScanFrames    int
	ScanThreshold float64
	CheckInterval time.Duration
}

// Load reads configuration from environment variables with reasonable
// defaults.
func Load() Config {
	cfg := Config{
		APIKey:            envOr("API_KEY", "SECRET123"),
		DatabaseDSN:       envOr("DATABASE_DSN", "file:meddispense.db"),
		HTTPPort:          envOr("HTTP_PORT", "8080"),
		Secret:            envOr("SECRET", "dev_secret"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		TrackerURL:        envOr("TRACKER_URL", "http://localhost:8080"),
		MotorPort:         envOr("MOTOR_PORT", "/dev/ttyACM0"),
		RFIDPort:          envOr("RFID_PORT", "/dev/ttyACM1"),
		CameraCommand:     envOr("CAMERA_COMMAND", "libcamera-still -n --width 2592 --height 1944 -o {out}"),
		OCRBinary:         envOr("OCR_BINARY", "tesseract"),
		ScanFrames:        5,
		ScanThreshold:     0.3,
		CheckInterval:     10 * time.Second,
	}

	if v := os.Getenv("SCAN_FRAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("invalid SCAN_FRAMES value %q, defaulting to %d", v, cfg.ScanFrames)
		} else {
			cfg.ScanFrames = n
		}
	}

	if v := os.Getenv("SCAN_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			log.Printf("invalid SCAN_THRESHOLD value %q, defaulting to %.1f", v, cfg.ScanThreshold)
		} else {
			cfg.ScanThreshold = f
		}
	}

	if v := os.Getenv("CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("invalid CHECK_INTERVAL value %q, defaulting to %s", v, cfg.CheckInterval)
		} else {
			cfg.CheckInterval = d
		}
	}

	// Validate that the HTTP port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
