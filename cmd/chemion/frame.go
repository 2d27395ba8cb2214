package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/srg/chemion/internal/protocol"
)

// readFrame loads a pixel frame from path, or from stdin when path is "-".
// Both {"glasses_frame": [[...]]} and a bare [[...]] are accepted.
func readFrame(path string, stdin io.Reader) (protocol.Frame, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoFrame
	}

	if data[0] == '{' {
		var req protocol.FrameRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid frame JSON: %w", err)
		}
		return req.Frame, nil
	}

	var frame protocol.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid frame JSON: %w", err)
	}
	return frame, nil
}
