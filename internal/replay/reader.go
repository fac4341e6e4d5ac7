// Package replay re-runs recorded landmark logs through the rep engine.
// A log is one JSON frame per line, as captured from the camera feed;
// blank lines and #-prefixed comment lines are ignored.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/claude/physioreps/internal/models"
)

// maxLineBytes bounds a single frame line. A full 33-landmark frame is
// well under 8KB; anything bigger is a corrupt log.
const maxLineBytes = 1 << 20

// ReadFrames parses a frame log from r. Frames keep their recorded
// order; timestamps are session-relative seconds.
func ReadFrames(r io.Reader) ([]models.FramePayload, error) {
	var frames []models.FramePayload

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var frame models.FramePayload
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		frames = append(frames, frame)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo, err)
	}
	return frames, nil
}

// ReadLogFile reads a frame log from disk.
func ReadLogFile(path string) ([]models.FramePayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := ReadFrames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
