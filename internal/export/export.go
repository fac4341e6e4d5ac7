// Package export writes the session output records consumed outside the
// engine: the per-rep CSV table and the telemetry summary JSON. Pure
// serialization of already-computed structures.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/claude/physioreps/internal/models"
)

// repsHeader is the column order of the per-rep CSV record.
var repsHeader = []string{
	"rep_index", "start_time", "end_time", "duration_sec",
	"peak_flexion_angle", "peak_extension_angle",
}

// WriteRepsCSV writes one row per rep, with header.
func WriteRepsCSV(w io.Writer, reps []models.RepRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(repsHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range reps {
		record := []string{
			strconv.Itoa(r.RepIndex),
			formatSec(r.StartTimeSec),
			formatSec(r.EndTimeSec),
			formatSec(r.DurationSec),
			formatAngle(r.PeakFlexionAngle),
			formatAngle(r.PeakExtensionAngle),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing rep %d: %w", r.RepIndex, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTelemetryJSON writes the indented telemetry summary record.
func WriteTelemetryJSON(w io.Writer, tel models.Telemetry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(tel)
}

func formatSec(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatAngle(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
