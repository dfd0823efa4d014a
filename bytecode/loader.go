package bytecode

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes a Program from r. It does not Build a VM — callers
// combine Load with Build so they can adjust Config in between.
func Load(r io.Reader) (*Program, error) {
	var p Program
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("bytecode: decode program: %w", err)
	}
	return &p, nil
}

// LoadFile opens path and decodes it as a Program.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bytecode: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
