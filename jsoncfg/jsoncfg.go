// Package jsoncfg provides JSON configuration file helpers.
package jsoncfg

import (
	"encoding/json"
	"os"
)

// Open loads the JSON configuration file at path into v.
func Open(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := json.NewDecoder(f)
	d.DisallowUnknownFields()
	return d.Decode(v)
}

// Save writes v to the configuration file at path as indented JSON.
func Save(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	e := json.NewEncoder(f)
	e.SetIndent("", "    ")
	if err = e.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
