package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intrepidcs/mic2/internal/config"
	"github.com/intrepidcs/mic2/internal/gps"
	"github.com/intrepidcs/mic2/internal/publish"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (optional)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dev, err := pickDevice(cfg)
	if err != nil {
		log.Fatalf("device lookup failed: %v", err)
	}
	dev.SetBaud(cfg.GPS.Baud)
	if _, err := dev.Open(); err != nil {
		log.Fatalf("open %s failed: %v", dev.PortName, err)
	}
	defer dev.Close()

	var pub *publish.Publisher
	if cfg.MQTT.Enable {
		pub, err = publish.New(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, cfg.MQTT.MinMoveM)
		if err != nil {
			log.Fatalf("mqtt connect failed: %v", err)
		}
		defer pub.Close()
	}

	log.Printf("gpsmon starting")
	log.Printf("port=%s baud=%d mqtt=%v", dev.PortName, cfg.GPS.Baud, cfg.MQTT.Enable)

	printTicker := time.NewTicker(cfg.GPS.PrintInterval)
	defer printTicker.Stop()
	publishTicker := time.NewTicker(cfg.MQTT.Interval)
	defer publishTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("gpsmon stopping")
			return
		case <-printTicker.C:
			if !dev.IsOpen() {
				if err := dev.Err(); err != nil {
					log.Fatalf("device stopped: %v", err)
				}
				log.Fatalf("device stopped: stream ended")
			}
			printInfo(dev)
		case <-publishTicker.C:
			if pub == nil || !dev.IsOpen() {
				continue
			}
			info, err := dev.Info()
			if err != nil {
				continue
			}
			if _, err := pub.Publish(info); err != nil {
				log.Printf("mqtt publish failed: %v", err)
			}
		}
	}
}

func pickDevice(cfg config.Config) (*gps.Device, error) {
	if cfg.GPS.Port != "" {
		return gps.NewDevice(cfg.GPS.Port, cfg.GPS.VID, cfg.GPS.PID), nil
	}
	return gps.FindFirst()
}

func printInfo(dev *gps.Device) {
	info, err := dev.Info()
	if err != nil {
		return
	}
	lock, _ := dev.HasLock()
	if info.Latitude == nil || info.Longitude == nil {
		log.Printf("fix: none (lock=%v sats=%d)", lock, len(info.Satellites))
		return
	}
	log.Printf("fix: lat=%.6f lon=%.6f alt=%s speed=%s lock=%v sats=%d",
		info.Latitude.Degrees(), info.Longitude.Degrees(),
		fmtOpt(info.AltitudeM, "m"), fmtOpt(info.SpeedKmh, "km/h"),
		lock, len(info.Satellites))
}

func fmtOpt(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%s", *v, unit)
}
