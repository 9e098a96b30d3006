// This file provides JSONL export and import of lists, with atomic writes.
package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExportList writes every entity of list, in index order, to path as JSONL.
// The file is replaced atomically. An unknown list produces an empty file.
func (b *Backend) ExportList(ctx context.Context, list, path string) (int, error) {
	entities, err := b.GetEntities(ctx, list)
	if err != nil {
		return 0, err
	}

	records := make([]json.RawMessage, 0, len(entities))
	for _, e := range entities {
		data, err := json.Marshal(e.Entity)
		if err != nil {
			return 0, fmt.Errorf("marshaling %q: %w", e.ID, err)
		}
		records = append(records, data)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, fmt.Errorf("exporting list %q: %w", list, err)
	}
	return len(records), nil
}

// ImportList reads entities from a JSONL file and saves them to list as a
// single batch. Lines that are not valid entities are skipped. Returns the
// number of entities saved.
func (b *Backend) ImportList(ctx context.Context, list, path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	entities := make([]types.Entity, 0, len(records))
	for _, rec := range records {
		var e types.Entity
		if err := json.Unmarshal(rec, &e); err != nil {
			b.logger.Warn("skipping malformed entity", "list", list, "error", err)
			continue
		}
		entities = append(entities, e)
	}
	if err := b.Save(ctx, list, entities); err != nil {
		return 0, err
	}
	return len(entities), nil
}
