package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantFPS int
	}{
		{
			name:    "defaults",
			cfg:     DefaultConfig(),
			wantFPS: DefaultFPS,
		},
		{
			name:    "zero config falls back to defaults",
			cfg:     Config{DeviceID: 1},
			wantFPS: DefaultFPS,
		},
		{
			name:    "custom fps",
			cfg:     Config{DeviceID: 2, Width: 1280, Height: 720, FPS: 15},
			wantFPS: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.cfg)

			if cam == nil {
				t.Fatal("NewCamera returned nil")
			}
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{name: "set to 10", fps: 10, wantFPS: 10},
		{name: "set to 1", fps: 1, wantFPS: 1},
		{name: "set to 0 should keep previous", fps: 0, wantFPS: 1},
		{name: "set to negative should keep previous", fps: -5, wantFPS: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	if _, err := cam.ReadFrame(); err != ErrCameraNotOpen {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultConfig())

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Cols() != DefaultWidth || mat.Rows() != DefaultHeight {
			t.Logf("Frame dimensions: %dx%d (camera may not support 1920x1080)", mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestLoadImage_Missing(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for a missing image")
	}
}

func TestReadFloats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camera_matrix.txt")
	content := "# fx 0 cx\n1.4e+03 0 9.6e+02\n0 1.4e+03 5.4e+02\n\n0 0 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readFloats(path)
	if err != nil {
		t.Fatalf("readFloats() error = %v", err)
	}
	want := []float64{1400, 0, 960, 0, 1400, 540, 0, 0, 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readFloats() mismatch (-want +got):\n%s", diff)
	}

	t.Run("bad value", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.txt")
		if err := os.WriteFile(bad, []byte("1 two 3\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := readFloats(bad); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("wrong matrix size", func(t *testing.T) {
		short := filepath.Join(dir, "short.txt")
		if err := os.WriteFile(short, []byte("1 2 3\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadUndistorter(short, short); err == nil {
			t.Error("expected error for a 3-value camera matrix")
		}
	})
}
