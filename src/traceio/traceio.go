// Package traceio reads and writes network trace dumps: JSONL files with
// one TraceEnvelope per line, as produced by a browser-instrumentation
// collaborator.
package traceio

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/webperflab/NetworkTimingAnalyzer/src/logging"
	"github.com/webperflab/NetworkTimingAnalyzer/src/types"
)

// MaxLineBytes caps one logical JSONL line. Defensive: a corrupt file must
// not turn into an unbounded allocation.
const MaxLineBytes = 200 * 1024 * 1024

// Trace is one page load's worth of decoded records plus the trace-level
// metadata the producer attached.
type Trace struct {
	Records  []*types.NetworkRecord
	FinalURL string
	PageTag  string
}

// ReadTrace parses a JSONL trace file. Lines that fail to decode, lack the
// envelope halves, or carry a different schema version are skipped with a
// debug log; capture pipelines routinely interleave foreign lines. Returns
// an error only when the file cannot be opened or zero records decode.
func ReadTrace(path string, schemaVersion int) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trace, err := readTrace(f, schemaVersion)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Infof("loaded %d records from %s (schema_version=%d)", len(trace.Records), path, schemaVersion)
	return trace, nil
}

func readTrace(r io.Reader, schemaVersion int) (*Trace, error) {
	reader := bufio.NewReader(r)
	trace := &Trace{}
	skipped := 0
	for {
		// ReadBytes grows its result across internal buffer fills, so one
		// call returns the whole logical line (or everything up to EOF).
		line, rerr := reader.ReadBytes('\n')
		if len(line) > MaxLineBytes {
			return nil, fmt.Errorf("line exceeds %d bytes", MaxLineBytes)
		}
		if len(line) > 0 {
			var env types.TraceEnvelope
			switch {
			case json.Unmarshal(line, &env) != nil || env.Meta == nil || env.Record == nil:
				skipped++
			case env.Meta.SchemaVersion != schemaVersion:
				skipped++
			default:
				if env.Meta.FinalURL != "" {
					trace.FinalURL = env.Meta.FinalURL
				}
				if env.Meta.PageTag != "" {
					trace.PageTag = env.Meta.PageTag
				}
				trace.Records = append(trace.Records, env.Record)
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				logging.Warnf("trace read: %v", rerr)
			}
			break
		}
	}
	if skipped > 0 {
		logging.Debugf("skipped %d undecodable or foreign lines", skipped)
	}
	if len(trace.Records) == 0 {
		return nil, errors.New("no records")
	}
	return trace, nil
}

// WriteTrace writes a trace as envelope-per-line JSONL, one Meta per line
// so readers can filter without cross-line state.
func WriteTrace(path string, trace *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, r := range trace.Records {
		env := types.TraceEnvelope{
			Meta: &types.TraceMeta{
				SchemaVersion: types.SchemaVersion,
				PageTag:       trace.PageTag,
				FinalURL:      trace.FinalURL,
			},
			Record: r,
		}
		b, err := json.Marshal(&env)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	// Close errors surface write failures on some filesystems; do not
	// swallow them behind a defer.
	return f.Close()
}
