package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/keysight/internal/app"
	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/capture"
	"github.com/ayusman/keysight/internal/config"
	"github.com/ayusman/keysight/internal/midi"
	"github.com/ayusman/keysight/internal/server"
	"github.com/ayusman/keysight/internal/session"
	"github.com/ayusman/keysight/internal/store"
	"github.com/ayusman/keysight/internal/tray"
)

const usage = `Usage: keysight <command> [flags]

Commands:
  calibrate   derive the keyboard calibration from a reference photograph
  run         attribute played notes to fingers from the live camera
  midi        list MIDI input ports
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "calibrate":
		err = runCalibrate(os.Args[2:])
	case "run":
		err = runLive(os.Args[2:])
	case "midi":
		err = listMIDI()
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		var calErr *calibrate.Error
		if errors.As(err, &calErr) {
			log.Fatalf("Calibration failed at %s: %v", calErr.Stage, calErr.Err)
		}
		log.Fatal(err)
	}
}

// commonFlags are shared by the calibrate and run commands.
type commonFlags struct {
	dataDir      string
	tuningPath   string
	cameraMatrix string
	distortion   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.dataDir, "data", defaultDataDir(), "directory holding the database")
	fs.StringVar(&c.tuningPath, "config", "", "tuning JSON file layered over the defaults")
	fs.StringVar(&c.cameraMatrix, "camera-matrix", "", "camera matrix text file for lens undistortion")
	fs.StringVar(&c.distortion, "distortion", "", "distortion coefficients text file for lens undistortion")
}

func (c *commonFlags) open() (*store.Store, *config.Tuning, error) {
	tuning := config.DefaultTuning()
	if c.tuningPath != "" {
		t, err := config.LoadTuning(c.tuningPath)
		if err != nil {
			return nil, nil, err
		}
		tuning = t
	}

	if err := os.MkdirAll(c.dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(c.dataDir, "keysight.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return st, tuning, nil
}

func runCalibrate(args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	image := fs.String("image", "", "reference photograph of the keyboard (required)")
	out := fs.String("out", "predictions", "directory for diagnostic images, empty to skip")
	fs.Parse(args)

	if *image == "" {
		fs.Usage()
		return errors.New("calibrate: -image is required")
	}

	st, tuning, err := common.open()
	if err != nil {
		return err
	}
	defer st.Close()

	a := app.New(app.Config{
		Store:            st,
		Tuning:           tuning,
		CameraMatrixPath: common.cameraMatrix,
		DistortionPath:   common.distortion,
		OutputDir:        *out,
	})
	defer a.Close()

	cal, err := a.Calibrate(*image)
	if err != nil {
		return err
	}

	fmt.Printf("Keyboard band: rows %d..%d\n", cal.Band.Top, cal.Band.Bottom)
	fmt.Printf("Top edge:      %v\n", cal.Edges.Top)
	fmt.Printf("Bottom edge:   %v\n", cal.Edges.Bottom)
	if *out != "" {
		fmt.Printf("Diagnostic images written to %s\n", *out)
	}
	return nil
}

func runLive(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	image := fs.String("image", "", "recalibrate from this photograph before starting")
	cameraID := fs.Int("camera", 0, "camera device id")
	midiIn := fs.String("midi", "", "MIDI input port name (default: first port)")
	logPath := fs.String("log", session.DefaultLogPath, "results log written on exit")
	addr := fs.String("addr", ":8080", "HTTP address for the API and preview, empty to disable")
	display := fs.Bool("display", true, "show the rectified preview window")
	withTray := fs.Bool("tray", false, "show a system tray menu")
	mockDetector := fs.Bool("mock-detector", false, "run without MediaPipe; every note is recorded as missed")
	webDir := fs.String("web", "", "directory of the live web page (default: search next to the binary)")
	fs.Parse(args)

	st, tuning, err := common.open()
	if err != nil {
		return err
	}
	defer st.Close()

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = *cameraID
	camCfg.FPS = tuning.Session.FPS

	a := app.New(app.Config{
		Store:            st,
		Tuning:           tuning,
		Camera:           camCfg,
		CameraMatrixPath: common.cameraMatrix,
		DistortionPath:   common.distortion,
		LogPath:          *logPath,
		MIDIInput:        *midiIn,
		Display:          *display,
		MockDetector:     *mockDetector,
	})
	defer a.Close()

	if *image != "" {
		if _, err := a.Calibrate(*image); err != nil {
			return err
		}
	} else if err := a.LoadLatestCalibration(); err != nil {
		return fmt.Errorf("%w (run `keysight calibrate -image <photo>` first)", err)
	}

	feed := server.NewFeedHandler()
	a.AddSink(feed)

	var t *tray.Tray
	if *withTray {
		t = tray.New()
		t.OnToggle(a.SetEnabled)
		if *addr != "" {
			t.OnPreview(func() { fmt.Printf("Preview: http://localhost%s/api/stream\n", *addr) })
		}
		a.AddSink(t)
	}

	if err := a.Start(); err != nil {
		return err
	}

	if *addr != "" {
		srv := server.New(server.Config{
			StaticDir: findWebDir(*webDir),
			Store:     st,
			Frames:    a.Frames(),
			Feed:      feed,
			Layout:    a.Layout(),
			Status:    func() any { return a.Status() },
		})
		go func() {
			fmt.Printf("Starting server on %s\n", *addr)
			if err := srv.ListenAndServe(*addr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if t != nil {
		go func() {
			select {
			case <-sigCh:
			case <-a.Done():
			}
			t.Quit()
		}()
		// The tray owns the main thread until it quits.
		t.Run()
	} else {
		select {
		case <-sigCh:
		case <-a.Done():
		}
	}

	return a.Stop()
}

func listMIDI() error {
	names, err := midi.ListInputs()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No MIDI inputs found")
		return nil
	}
	for i, name := range names {
		fmt.Printf("%d: %s\n", i, name)
	}
	return nil
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".keysight"
	}
	return filepath.Join(homeDir, ".keysight")
}

// findWebDir returns dir when set, otherwise the first web directory found
// in the working directory, next to the executable or in the data
// directory. It returns "" when there is none.
func findWebDir(dir string) string {
	if dir != "" {
		return dir
	}

	candidates := []string{"web"}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "web"))
	}
	candidates = append(candidates, filepath.Join(defaultDataDir(), "web"))

	for _, p := range candidates {
		if _, err := os.Stat(filepath.Join(p, "index.html")); err == nil {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
