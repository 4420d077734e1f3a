// Package version reports the build version and derives the asset version
// browsers compare to decide whether their copy of the app is stale.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
)

type Info struct {
	Version string `json:"version"`
}

// Load reads path, falling back to 0.0.0 when it is missing or malformed.
func Load(path string, logger *log.Logger) Info {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("could not read version file", "path", path, "err", err)
		return Info{Version: "0.0.0"}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil || info.Version == "" {
		logger.Warn("could not parse version file", "path", path, "err", err)
		return Info{Version: "0.0.0"}
	}
	return info
}

// Asset combines the version with a digest of every file in assets, so the
// value changes whenever a stylesheet or script does.
func (i Info) Asset(assets fs.FS) (string, error) {
	h := sha256.New()
	err := fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return err
		}
		h.Write([]byte(path))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return i.Version + "-" + hex.EncodeToString(h.Sum(nil)[:6]), nil
}
