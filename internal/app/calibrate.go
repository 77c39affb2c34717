package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/capture"
	"github.com/ayusman/keysight/internal/geometry"
	"github.com/ayusman/keysight/internal/store"
	"github.com/ayusman/keysight/internal/vision"
)

// Diagnostic image names written by Calibrate.
const (
	EdgesImage      = "lines_edges.jpg"
	MergedImage     = "hough.jpg"
	LongestImage    = "keyboard_longest_lines.jpg"
	RectifiedImage  = "transformed.jpg"
	KeyBordersImage = "transformed_withlines.jpg"
)

// Calibrate derives the keyboard calibration from the reference photograph
// at imagePath, stores it and makes it current for the live loop.
func (a *App) Calibrate(imagePath string) (*calibrate.Calibration, error) {
	img, err := capture.LoadImage(imagePath)
	if err != nil {
		return nil, calibrate.NewError("setup", err)
	}
	defer img.Close()

	if a.config.CameraMatrixPath != "" && a.config.DistortionPath != "" {
		u, err := capture.LoadUndistorter(a.config.CameraMatrixPath, a.config.DistortionPath)
		if err != nil {
			return nil, calibrate.NewError("setup", err)
		}
		undistorted := gocv.NewMat()
		u.Apply(img, &undistorted)
		u.Close()
		img.Close()
		img = undistorted
	}

	cal, err := a.CalibrateImage(img)
	if err != nil {
		return nil, err
	}

	id := ""
	if a.config.Store != nil {
		rec := &store.CalibrationRecord{ImagePath: imagePath, Calibration: *cal}
		if err := a.config.Store.Calibrations().Create(rec); err != nil {
			return nil, fmt.Errorf("store calibration: %w", err)
		}
		id = rec.ID
		log.Printf("Stored calibration %s", id)
	}

	if err := a.setCalibration(cal, id); err != nil {
		return nil, err
	}

	if a.config.OutputDir != "" {
		if err := a.writeDiagnostics(img, cal); err != nil {
			log.Printf("Error writing diagnostic images: %v", err)
		}
	}
	return cal, nil
}

// CalibrateImage runs the calibration pipeline on a loaded photograph:
// fiducial band, crop, line extraction, merge, edge selection and
// homography.
func (a *App) CalibrateImage(img gocv.Mat) (*calibrate.Calibration, error) {
	band, err := vision.NewFiducialLocator().Locate(img)
	if err != nil {
		return nil, err
	}
	log.Printf("Fiducial band rows %d..%d", band.Top, band.Bottom)

	cropped := a.extractionImage(img, band)
	defer cropped.Close()

	raw := vision.NewHoughExtractor(a.tuning.Extract).Extract(cropped)
	log.Printf("Extracted %d raw segments", len(raw))

	cal, err := calibrate.Calibrate(raw, band, img.Cols(), img.Rows(), a.tuning.CalibrateParams())
	if err != nil {
		return nil, err
	}
	log.Printf("Merged into %d lines, keyboard edges %v and %v",
		len(cal.Lines.Merged), cal.Edges.Top, cal.Edges.Bottom)
	return cal, nil
}

// extractionImage returns a copy of img with the rows above the fiducial
// band, less the crop margin, blanked. The caller closes the result.
func (a *App) extractionImage(img gocv.Mat, band calibrate.Band) gocv.Mat {
	cropped := img.Clone()
	vision.BlankAbove(&cropped, band.Top-a.tuning.Fiducial.CropMargin)
	return cropped
}

// UseCalibration makes a stored calibration current.
func (a *App) UseCalibration(rec *store.CalibrationRecord) error {
	cal := rec.Calibration
	return a.setCalibration(&cal, rec.ID)
}

// LoadLatestCalibration makes the most recent stored calibration current.
func (a *App) LoadLatestCalibration() error {
	if a.config.Store == nil {
		return ErrNotCalibrated
	}
	rec, err := a.config.Store.Calibrations().Latest()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotCalibrated, err)
	}
	log.Printf("Using calibration %s from %s", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04"))
	return a.UseCalibration(rec)
}

// writeDiagnostics saves the intermediate images of a calibration run.
func (a *App) writeDiagnostics(img gocv.Mat, cal *calibrate.Calibration) error {
	dir := a.config.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	cropped := a.extractionImage(img, cal.Band)
	defer cropped.Close()
	edges := vision.NewHoughExtractor(a.tuning.Extract).Edges(cropped)
	defer edges.Close()
	if err := capture.SaveImage(filepath.Join(dir, EdgesImage), edges); err != nil {
		return err
	}

	merged := img.Clone()
	defer merged.Close()
	vision.DrawLines(&merged, cal.Lines.Merged, vision.Red, 2)
	if err := capture.SaveImage(filepath.Join(dir, MergedImage), merged); err != nil {
		return err
	}

	longest := img.Clone()
	defer longest.Close()
	vision.DrawLines(&longest, []geometry.Line{cal.Edges.Top, cal.Edges.Bottom}, vision.Red, 3)
	if err := capture.SaveImage(filepath.Join(dir, LongestImage), longest); err != nil {
		return err
	}

	rectified := vision.Warp(img, cal.Homography, cal.Width, cal.Height)
	defer rectified.Close()
	if err := capture.SaveImage(filepath.Join(dir, RectifiedImage), rectified); err != nil {
		return err
	}

	vision.DrawLayout(&rectified, a.Layout())
	return capture.SaveImage(filepath.Join(dir, KeyBordersImage), rectified)
}
