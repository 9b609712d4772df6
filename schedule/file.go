package schedule

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// File is an input schedule stored on disk:
//
//	name: two
//	operations:
//	  - {kind: write, object: A, txn: pear}
//	  - {kind: commit, txn: pear}
type File struct {
	Name       string      `yaml:"name"`
	Operations []Operation `yaml:"operations"`
}

// LoadFile reads and validates a YAML input schedule.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schedule %s", path)
	}

	f, err := DecodeFile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding schedule %s", path)
	}
	return f, nil
}

// DecodeFile decodes a YAML input schedule. Unknown fields are rejected.
func DecodeFile(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}

	for i, op := range f.Operations {
		if err := Validate(op); err != nil {
			return nil, errors.Wrapf(err, "operation %d", i)
		}
	}
	return &f, nil
}
