package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meddispense/m/internal/config"
	"meddispense/m/internal/database"
	"meddispense/m/internal/dispense"
	"meddispense/m/internal/hardware"
	"meddispense/m/internal/migrations"
	"meddispense/m/internal/scan"
	"meddispense/m/internal/scheduler"
	"meddispense/m/internal/setup"
	"meddispense/m/internal/store"
	"meddispense/m/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()
	migrations.Run(db)
	local := store.New(db)

	client := tracker.New(cfg.TrackerURL, cfg.APIKey, tracker.DefaultTimeout)
	actuator := hardware.NewSerialActuator(cfg.MotorPort)
	camera := hardware.NewStillCamera(cfg.CameraCommand)

	rfid, err := hardware.OpenRFID(cfg.RFIDPort)
	if err != nil {
		log.Fatalf("rfid: %v", err)
	}
	defer rfid.Close()

	session := &setup.Session{
		Toggle: rfid,
		Camera: camera,
		Scanner: &scan.Scanner{
			Camera:     camera,
			Recognizer: hardware.NewTesseractOCR(cfg.OCRBinary),
			Frames:     cfg.ScanFrames,
			Threshold:  cfg.ScanThreshold,
			SettleWait: 200 * time.Millisecond,
		},
		Aligner:   actuator,
		Uploader:  &setup.StoreUploader{Local: local, Remote: client},
		AlignWait: 2 * time.Second,
	}
	if err := session.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("dispenser stopped")
			return
		}
		log.Fatalf("setup failed: %v", err)
	}

	loop := &scheduler.Loop{
		Source:    &scheduler.SyncedSource{Remote: client, Local: local},
		Dispenser: &dispense.Executor{Actuator: actuator, Stock: local, SettleWait: time.Second},
		Reporter:  &tracker.QueuedReporter{Client: client, Store: local},
		Tick:      cfg.CheckInterval,
	}
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("scheduler error: %v", err)
	}
	log.Println("dispenser stopped")
}
