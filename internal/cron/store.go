package cron

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// storeDocument is the durable JSON document {version, jobs: [...]}.
type storeDocument struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

const currentStoreVersion = 1

// loadStore reads the store document from path. A missing or corrupt file
// yields an empty store rather than an error; operations continue and the
// corruption is logged.
func loadStore(path string, log *logrus.Entry) *storeDocument {
	data, err := os.ReadFile(path)
	if err != nil {
		return &storeDocument{Version: currentStoreVersion}
	}
	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.WithError(err).Warn("cron store corrupt, starting from an empty store")
		return &storeDocument{Version: currentStoreVersion}
	}
	if doc.Version == 0 {
		doc.Version = currentStoreVersion
	}
	return &doc
}

// saveStore writes doc atomically: write to a temp file in the same
// directory, then rename over the destination.
func saveStore(path string, doc *storeDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
