// Package params handles the JSON configuration documents exchanged with the
// containerized trainer. The documents permit `//` and `/* */` comments which
// are stripped before parsing; documents are always rewritten comment-free.
package params

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// Document is a parsed configuration document. Known keys are exposed through
// the typed views (Train, Runtime); everything else is preserved verbatim in
// the underlying field map so rewriting a template never loses information.
type Document struct {
	fields map[string]interface{}
}

// Load reads, strips comments from and parses the document at path.
func Load(path string) (*Document, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config document %q", path)
	}

	return Parse(raw)
}

// Parse strips comments from and parses a raw document.
func Parse(raw []byte) (*Document, error) {
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, errors.Wrap(err, "could not strip comments from config document")
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(standardized, &fields); err != nil {
		return nil, errors.Wrap(err, "could not parse config document")
	}

	return &Document{fields: fields}, nil
}

// Has returns true when the document contains the given key.
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Get returns the raw value stored under key.
func (d *Document) Get(key string) (interface{}, bool) {
	value, ok := d.fields[key]
	return value, ok
}

// Set stores value under key, adding the key when absent.
func (d *Document) Set(key string, value interface{}) {
	d.fields[key] = value
}

// Keys returns the number of keys in the document.
func (d *Document) Keys() int {
	return len(d.fields)
}

// Save writes the document comment-free with four space indentation,
// matching the format the trainer expects.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d.fields, "", "    ")
	if err != nil {
		return errors.Wrap(err, "could not serialize config document")
	}

	if err := ioutil.WriteFile(path, data, os.FileMode(0644)); err != nil {
		return errors.Wrapf(err, "could not write config document %q", path)
	}

	return nil
}

// Train decodes the typed view of the training parameter keys.
func (d *Document) Train() (TrainParams, error) {
	train := TrainParams{}
	err := d.decodeInto(&train)
	return train, err
}

// Runtime decodes the typed view of the runtime parameter keys.
func (d *Document) Runtime() (RuntimeParams, error) {
	runtime := RuntimeParams{}
	err := d.decodeInto(&runtime)
	return runtime, err
}

func (d *Document) decodeInto(view interface{}) error {
	data, err := json.Marshal(d.fields)
	if err != nil {
		return errors.Wrap(err, "could not serialize config document")
	}

	return errors.Wrap(json.Unmarshal(data, view), "could not decode typed view of config document")
}
