package jscbridge

import (
	"fmt"
	"io/fs"
)

// LoadAsset reads a host-packaged script from fsys and evaluates it under its
// file name.
func (m *Manager) LoadAsset(fsys fs.FS, filename string) Result {
	source, err := fs.ReadFile(fsys, filename)
	if err != nil {
		m.Logger.Error("Failed to load asset", "asset", filename, "error", err)
		return failure(fmt.Errorf("loading asset %s: %w", filename, err))
	}
	res := m.Evaluate(string(source), filename)
	if res.OK() {
		m.Logger.Debug("Loaded asset", "asset", filename)
	}
	return res
}
