// Package dumper writes failure artifacts to disk for offline debugging.
package dumper

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/counselhub/counselhub/internal/log"
)

// Dumper writes debug artifacts (rolled-back mutations, job histories, raw
// payloads) into the configured dump directory. Every method is a no-op when
// dumping is disabled, so call sites never need their own guard.
type Dumper struct {
	config Config
	mu     sync.Mutex
}

// New creates a new Dumper instance.
func New(config Config) *Dumper {
	return &Dumper{
		config: config,
	}
}

// DumpStruct writes data as indented JSON.
func (d *Dumper) DumpStruct(ctx context.Context, data any, name string) {
	d.write(ctx, name, "json", func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(data)
	})
}

// DumpRecords writes records as JSON lines, one record per line.
func (d *Dumper) DumpRecords(ctx context.Context, records []any, name string) {
	d.write(ctx, name, "jsonl", func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		enc := json.NewEncoder(bw)

		for i, record := range records {
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}

		return bw.Flush()
	})
}

// DumpBytes writes data untouched.
func (d *Dumper) DumpBytes(ctx context.Context, data []byte, name string) {
	d.write(ctx, name, "bin", func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// write opens a fresh timestamped file under DumpPath and hands it to fill.
// Dump failures are logged, never returned; dumping is best-effort and must
// not alter the caller's control flow.
func (d *Dumper) write(ctx context.Context, name, ext string, fill func(io.Writer) error) {
	if !d.config.Enabled {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.config.DumpPath, 0o750); err != nil {
		log.Warn(ctx, "failed to create dump directory",
			log.String("path", d.config.DumpPath), log.Cause(err))
		return
	}

	stamp := time.Now().Format("20060102_150405")
	fullPath := filepath.Join(d.config.DumpPath, fmt.Sprintf("%s_%s.%s", name, stamp, ext))

	//nolint:gosec // Path is operator-configured.
	file, err := os.Create(fullPath)
	if err != nil {
		log.Warn(ctx, "failed to create dump file", log.String("path", fullPath), log.Cause(err))
		return
	}

	defer func() {
		if err := file.Close(); err != nil {
			log.Warn(ctx, "failed to close dump file", log.String("path", fullPath), log.Cause(err))
		}
	}()

	if err := fill(file); err != nil {
		log.Warn(ctx, "failed to write dump file", log.String("path", fullPath), log.Cause(err))
		return
	}

	log.Info(ctx, "dump written", log.String("path", fullPath))
}
