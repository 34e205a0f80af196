// Package export renders a finished sweep session into its operator-facing
// artifacts: the CSV dataset and the Bode plot image.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bodelab/bodesweep/pkg/models"
)

// DatasetHeader is the fixed CSV column row. Kept byte-for-byte compatible
// with the datasets produced by the bench tool this replaces, so existing
// analysis notebooks keep working.
const DatasetHeader = "CH1_FREQ [Hz], CH1_AMPL [Vpp], CH2_FREQ [Hz], CH2_AMPL [Vpp], PHASE_DIFF [Deg], GAIN [dB]"

// BaseName returns the shared artifact stem Bode_MM-DD-YYYY_HR-MIN-SEC for a
// sweep that completed at t.
func BaseName(t time.Time) string {
	return "Bode_" + t.Format("01-02-2006_15-04-05")
}

// WriteCSV writes the dataset header and one row per record, in capture
// order.
func WriteCSV(w io.Writer, records []models.Record) error {
	if _, err := io.WriteString(w, DatasetHeader+"\n"); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := strings.Join([]string{
			formatField(rec.Ch1Freq),
			formatField(rec.Ch1Ampl),
			formatField(rec.Ch2Freq),
			formatField(rec.Ch2Ampl),
			formatField(rec.PhaseDiff),
			formatField(rec.GainDb),
		}, ", ")
		if _, err := io.WriteString(w, row+"\n"); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

func formatField(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SaveDataset writes the session's records to <dir>/<BaseName>.csv and
// returns the path. The directory is created if missing.
func SaveDataset(dir string, session *models.SweepSession, completedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, BaseName(completedAt)+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, session.Records); err != nil {
		return "", err
	}
	return path, nil
}
