// Command pitchcam is the composition root for the on-board perception
// pipeline: it loads tuning configuration, opens the serial device (or an
// in-memory fake) and an in-memory fake camera (real camera capture is not
// wired; without -fake-camera it exits at startup), wires every worker
// stage, and serves the debug-UI HTTP surface,
// mirroring the reference server's top-level wiring in cmd/radar/radar.go
// (flag-based configuration, signal.NotifyContext for graceful shutdown, a
// WaitGroup joining every goroutine).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fieldcam/pitchvision/internal/config"
	"github.com/fieldcam/pitchvision/internal/httpapi"
	"github.com/fieldcam/pitchvision/internal/serialport"
	"github.com/fieldcam/pitchvision/internal/vision"
)

var (
	configFile   = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	listen       = flag.String("listen", ":8090", "Listen address for the debug-UI HTTP surface")
	fakeSerial   = flag.Bool("fake-serial", false, "Use an in-memory serial writer instead of opening a real port")
	fakeCamera   = flag.Bool("fake-camera", false, "Use an in-memory frame source instead of opening a real camera")
	cameraDevice = flag.String("camera-device", "/dev/video0", "Camera device path")
	frameWidth   = flag.Int("frame-width", 640, "Camera capture width, pixels")
	frameHeight  = flag.Int("frame-height", 480, "Camera capture height, pixels")
	opsLog       = flag.String("ops-log", "", "Path to the ops log file (defaults to stdout)")
	diagLog      = flag.String("diag-log", "", "Path to the diag log file (disabled if empty)")
	traceLog     = flag.String("trace-log", "", "Path to the trace log file (disabled if empty)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := configureLogging(); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	tuningCfg, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config from %s: %v", *configFile, err)
	}
	log.Printf("loaded tuning configuration from %s", *configFile)

	var writer serialport.Writer
	if *fakeSerial {
		writer = &serialport.FakeWriter{}
		log.Printf("serial link disabled: writing to an in-memory fake writer")
	} else {
		port, err := serialport.Open(tuningCfg.GetSerialDevice(), tuningCfg.GetSerialBaud())
		if err != nil {
			log.Fatalf("failed to open serial device %s: %v", tuningCfg.GetSerialDevice(), err)
		}
		writer = port
		defer port.Close()
	}

	var factory vision.FrameDeviceFactory
	if *fakeCamera {
		fakeDevice := vision.NewFakeFrameDevice(*frameWidth, *frameHeight)
		factory = &vision.FakeFrameDeviceFactory{Device: fakeDevice}
		log.Printf("camera disabled: reading from an in-memory fake frame device")
	} else {
		// No V4L2/camera-capture binding appears anywhere in the retrieved
		// corpus (the reference reads frames via cv2.VideoCapture, a CGO
		// dependency this module does not carry); run with -fake-camera
		// until a concrete capture library is wired. See DESIGN.md.
		log.Fatalf("real camera capture is not wired in this build; pass -fake-camera, or wire a capture device factory")
	}

	params := httpapi.NewParamStore(tuningCfg)
	broadcaster := httpapi.NewBroadcaster()
	api := httpapi.NewServer(params, broadcaster)

	pipeline := vision.NewPipeline(vision.PipelineConfig{
		FrameSource: vision.FrameSourceConfig{
			DevicePath: *cameraDevice,
			Width:      *frameWidth,
			Height:     *frameHeight,
			Factory:    factory,
		},
		Preprocess: func() vision.PreprocessConfig {
			cfg := params.Get()
			orange := cfg.GetOrange()
			blue := cfg.GetBlue()
			yellow := cfg.GetYellow()
			green := cfg.GetGreen()
			return vision.PreprocessConfig{
				CropRadius:  cfg.GetCropRadius(),
				Orange:      hsvRange(orange),
				Blue:        hsvRange(blue),
				Yellow:      hsvRange(yellow),
				Green:       hsvRange(green),
				MaskField:   cfg.GetMaskField(),
				RobotRadius: cfg.GetRobotRadius(),
			}
		},
		BallDetect: func() vision.BallDetectorConfig {
			cfg := params.Get()
			return vision.BallDetectorConfig{
				MinArea:            cfg.GetBallMinArea(),
				MaxArea:            cfg.GetBallMaxArea(),
				FilterEndurance:    cfg.GetBallFilterEndurance(),
				StrictSanityBounds: cfg.GetStrictSanityBounds(),
			}
		},
		GoalDetect: func() vision.GoalDetectorConfig {
			cfg := params.Get()
			return vision.GoalDetectorConfig{
				MinArea:                  cfg.GetGoalMinArea(),
				MaxArea:                  cfg.GetGoalMaxArea(),
				FilterEndurance:          cfg.GetGoalFilterEndurance(),
				GoalPolygonEpsilonFactor: cfg.GetGoalPolygonEpsilonFactor(),
			}
		},
		Writer: writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeline.Run(ctx)
		log.Print("pipeline stopped")
	}()

	go publishTicks(ctx, pipeline, broadcaster)

	wg.Add(1)
	go func() {
		defer wg.Done()
		srv := &http.Server{Addr: *listen, Handler: api.Mux()}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		log.Printf("debug-UI listening on %s", *listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	wg.Wait()
	log.Print("graceful shutdown complete")
}

func hsvRange(r config.HSVRangeConfig) vision.HSVRange {
	return vision.HSVRange{
		Lower: vision.HSV{H: r.Lower[0], S: r.Lower[1], V: r.Lower[2]},
		Upper: vision.HSV{H: r.Upper[0], S: r.Upper[1], V: r.Upper[2]},
	}
}

// publishTicks forwards every published ball detection to the debug-UI
// broadcaster so connected clients can tail live ticks over SSE.
func publishTicks(ctx context.Context, p *vision.Pipeline, b *httpapi.Broadcaster) {
	var gen uint64
	for {
		val, newGen, open := p.Balls.Wait(gen)
		if !open {
			return
		}
		gen = newGen
		tick := httpapi.DetectionTick{Tick: val.Tick.String()}
		if val.Ball.Present {
			tick.BallOk = true
			tick.Bearing = val.Ball.Bearing
			tick.Distance = val.Ball.Distance
		}
		b.Publish(tick)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func configureLogging() error {
	writers := vision.LogWriters{Ops: os.Stdout}
	if *opsLog != "" {
		f, err := os.OpenFile(*opsLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open ops log: %w", err)
		}
		writers.Ops = f
	}
	if *diagLog != "" {
		f, err := os.OpenFile(*diagLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open diag log: %w", err)
		}
		writers.Diag = f
	}
	if *traceLog != "" {
		f, err := os.OpenFile(*traceLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open trace log: %w", err)
		}
		writers.Trace = f
	}
	vision.SetLogWriters(writers)
	return nil
}
