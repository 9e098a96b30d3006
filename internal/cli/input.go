package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/entities/pkg/types"
)

// readEntities reads entities from path, or from stdin when path is "-".
// The input is either a JSON array of entities or a stream of JSON objects,
// one per line. Entities without an id get a generated one.
func readEntities(stdin io.Reader, path string) ([]types.Entity, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, sysError(fmt.Errorf("read input: %w", err))
	}

	entities, err := decodeEntities(data)
	if err != nil {
		return nil, userError(fmt.Errorf("parse JSON: %w", err))
	}
	for i := range entities {
		if entities[i].ID == "" {
			entities[i].ID = types.NewEntityID()
		}
	}
	return entities, nil
}

func decodeEntities(data []byte) ([]types.Entity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var entities []types.Entity
		if err := json.Unmarshal(data, &entities); err != nil {
			return nil, err
		}
		return entities, nil
	}

	var entities []types.Entity
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var e types.Entity
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(entities)+1, err)
		}
		entities = append(entities, e)
	}
	return entities, nil
}
