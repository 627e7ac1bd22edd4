package traceback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mvrheden/go-syncutil/syncexec"
)

// errorsDir is the directory error reports are written to, relative to the
// working directory.
//
// for testing purposes
var errorsDir = `errors`

// WarnDevs is the default reporting callback: it persists err, enriched via
// [Error.WithEnvVars], as an indented JSON file at
// errors/<YYYY-MM-DD.HH-MM-SS.nanos>.json.
//
// The file write happens on a worker goroutine; the returned task completes
// once the write has finished (or failed - IO failures are logged, never
// returned, as there is nobody left to hand them to).
func WarnDevs(err *Error) syncexec.Task[struct{}] {
	return syncexec.Offload(func() struct{} {
		warnDevs(err)
		return struct{}{}
	})
}

func warnDevs(err *Error) {
	err = err.WithEnvVars()

	now := time.Now().UTC()
	filename := now.Format(`2006-01-02.15-04-05`) + `.` + strconv.FormatInt(now.UnixNano(), 10) + `.json`

	if mkdirErr := os.MkdirAll(errorsDir, 0o755); mkdirErr != nil {
		logger().Err().
			Err(mkdirErr).
			Str(`dir`, errorsDir).
			Log(`traceback: failed to create error report directory`)
		return
	}

	data, marshalErr := json.MarshalIndent(err, ``, `  `)
	if marshalErr != nil {
		logger().Err().
			Err(marshalErr).
			Str(`id`, err.ID.String()).
			Log(`traceback: failed to encode error report`)
		return
	}

	path := filepath.Join(errorsDir, filename)
	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		logger().Err().
			Err(writeErr).
			Str(`path`, path).
			Log(`traceback: failed to write error report`)
		return
	}

	logger().Info().
		Str(`path`, path).
		Str(`id`, err.ID.String()).
		Log(`traceback: error report written`)
}
