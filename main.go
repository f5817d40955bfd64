package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"insync/cmd"
	"insync/internal/analysis"
	"insync/internal/audio"
	"insync/internal/config"
	"insync/internal/game"
	"insync/internal/log"
	"insync/internal/mailbox"
	"insync/internal/metrics"
	"insync/internal/replay"
	"insync/internal/spawn"
	"insync/internal/transport"
	"insync/internal/transport/udp"
	"insync/internal/tui"
	"insync/pkg/build"
)

// main is the entry point. The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands (list, analyze) if requested
//   - Initialize PortAudio and wire capture, analysis and spawning
//
// 2. Concurrent Phase (Hot Path):
//   - PortAudio callback posts buffers to the audio mailbox
//   - Spawn timer posts radial batches to the spawn mailbox
//   - Game loop drains both every frame
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop timer, stream, recording and transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("Build flags not set (%v), using development build info", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if opts.Command == "" {
		return // help or version
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := opts.Apply(cfg); err != nil {
		log.Fatalf("%v", err)
	}
	configureLogging(cfg)
	log.Debugf("%s", build.Get())

	window, err := analysis.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		log.Fatalf("audio.fft_window: %v", err)
	}

	switch opts.Command {
	case cmd.CommandList:
		err = listDevices()
	case cmd.CommandAnalyze:
		err = analyzeFile(opts.File, cfg, window)
	default:
		err = run(cfg, opts, window)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func configureLogging(cfg *config.Config) {
	level, ok := log.ParseLevel(cfg.LogLevel)
	if !ok {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}
	if cfg.Debug {
		level = log.LevelDebug
	}
	log.SetLevel(level)
}

// listDevices handles the one-off device listing command.
func listDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(os.Stdout)
}

// analyzeFile replays a WAV file through the detector and prints each onset
// with the enemy it would have spawned.
func analyzeFile(path string, cfg *config.Config, window analysis.WindowFunc) error {
	res, err := replay.AnalyzeFile(path, replay.Options{
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		Window:          window,
		NoveltyWindow:   cfg.Analysis.Window,
		Threshold:       cfg.Analysis.Threshold,
		MinPeakInterval: cfg.Analysis.MinPeakInterval,
		Seed:            cfg.Spawn.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d Hz, %d channel(s), %d-bit, %s, %d buffers of %d frames\n\n",
		path, res.SampleRate, res.Channels, res.BitDepth, res.Duration.Round(time.Millisecond),
		res.Buffers, cfg.Audio.FramesPerBuffer)
	for _, o := range res.Onsets {
		fmt.Printf("%10s  buffer %6d  novelty %8.2f  spawn (%6.2f, %6.2f, %6.2f)\n",
			o.Time.Round(time.Millisecond), o.Buffer, o.Value, o.Position.X, o.Position.Y, o.Position.Z)
	}
	fmt.Printf("\n%d onset(s)\n", len(res.Onsets))
	return nil
}

// run captures the microphone and drives the game loop until SIGINT/SIGTERM.
func run(cfg *config.Config, opts *cmd.Options, window analysis.WindowFunc) error {
	// One thread for the audio callback, one for the game loop and I/O.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if opts.PickDevice {
		sel, ok, err := tui.PickDevice()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	audioQueue, err := mailbox.New[[]float32](cfg.Audio.QueueSize, mailbox.DropOldest)
	if err != nil {
		return err
	}
	engine, err := audio.NewEngine(cfg.Audio, cfg.Recording.BitDepth, audioQueue)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Errorf("Error closing audio engine: %v", err)
		}
	}()

	analyzer, err := analysis.NewSpectralAnalyzer(cfg.Audio.FramesPerBuffer, engine.SampleRate(), window)
	if err != nil {
		return err
	}
	curve, err := analysis.NewNoveltyCurve(analyzer, cfg.Analysis.Window, cfg.Analysis.Threshold)
	if err != nil {
		return err
	}
	detector := analysis.NewPeakDetector(cfg.Analysis.MinPeakInterval)
	snapshot := analysis.NewSnapshot(analyzer.Bins())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Spawn events go to WebSocket clients, or to the log when disabled.
	var spawnTransport transport.Transport = transport.NewLoggingTransport()
	if cfg.Transport.WebSocketEnabled || m != nil {
		server := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress)
		if m != nil {
			server.Handle("/metrics", m.Handler())
		}
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Close()
		if cfg.Transport.WebSocketEnabled {
			spawnTransport = server
		}
	}
	factory := game.NewBroadcastFactory(spawnTransport)

	overflow, err := mailbox.ParsePolicy(cfg.Spawn.Overflow)
	if err != nil {
		return err
	}
	scheduler, err := spawn.NewScheduler(spawn.Options{
		Interval: cfg.Spawn.Interval,
		Overflow: overflow,
		Seed:     cfg.Spawn.Seed,
	}, factory)
	if err != nil {
		return err
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		defer sender.Close()
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, snapshot)
		if err != nil {
			return err
		}
		publisher.Start()
		defer publisher.Close()
	}

	loop, err := game.NewLoop(game.Options{
		Source:    audioQueue,
		Curve:     curve,
		Detector:  detector,
		Scheduler: scheduler,
		Snapshot:  snapshot,
		Metrics:   m,
		Drops: func() metrics.Drops {
			return metrics.Drops{
				Audio:      audioQueue.Dropped(),
				Gated:      engine.Gated(),
				Suppressed: detector.Suppressed(),
				Spawn:      scheduler.Dropped(),
			}
		},
		FrameRate: cfg.Game.FrameRate,
	})
	if err != nil {
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The first callback marks the start of the hot path.
	if err := engine.StartInputStream(); err != nil {
		return err
	}

	recording := ""
	if cfg.Recording.Enabled {
		recording = audio.RecordingPath(cfg.Recording.OutputDir, cfg.Recording.File, time.Now())
		if err := engine.StartRecording(recording); err != nil {
			return err
		}
		log.Infof("Recording to %s", recording)
	}

	log.Infof("%s listening on %s (spawn every %s, threshold %.1f). Ctrl+C to quit.",
		build.Get().Name, engine.DeviceName(), cfg.Spawn.Interval, cfg.Analysis.Threshold)

	if err := loop.Run(ctx); err != nil {
		return err
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if recording != "" {
		if err := engine.StopRecording(); err != nil {
			log.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", recording)
		}
	}

	log.Infof("Shutdown: %d buffers, %d dropped, %d enemies created, %d timer batches dropped",
		curve.Frames(), audioQueue.Dropped(), factory.Created(), scheduler.Dropped())
	return nil
}
