// Package dataset loads citation/text records and keeps the scripture index
// built from them.
package dataset

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/versemark/versemark/pkg/index"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Load reads a record array from a .json, .yaml or .yml file.
func Load(path string) ([]index.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses a record array. ext selects the format; anything other
// than .yaml/.yml is treated as JSON.
func Decode(data []byte, ext string) ([]index.Record, error) {
	var records []index.Record
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding yaml dataset: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding json dataset: %w", err)
		}
	}
	return records, nil
}

// Save writes records as indented JSON.
func Save(path string, records []index.Record) error {
	if records == nil {
		records = []index.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Fingerprint is a blake3 digest of the records, in order. Two datasets
// with the same fingerprint build the same index.
func Fingerprint(records []index.Record) string {
	h := blake3.New()
	for _, r := range records {
		h.Write([]byte(r.Reference))
		h.Write([]byte{0})
		h.Write([]byte(r.Text))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
