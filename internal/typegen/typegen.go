// Package typegen writes TypeScript declarations for the data the bridge
// hands to scripts, so bundled TS code can type-check against it.
package typegen

import (
	"fmt"

	"github.com/tkrajina/typescriptify-golang-structs/typescriptify"

	jscbridge "github.com/yejune/go-jsc-bridge"
)

func converter(extra []any) *typescriptify.TypeScriptify {
	c := typescriptify.New()
	c.CreateInterface = true
	c.BackupDir = ""
	c.Add(jscbridge.LogEntry{})
	c.Add(jscbridge.PackageMeta{})
	for _, v := range extra {
		c.Add(v)
	}
	return c
}

// Generate returns the declarations for the built-in types plus extra
func Generate(extra ...any) (string, error) {
	out, err := converter(extra).Convert(nil)
	if err != nil {
		return "", fmt.Errorf("generating typescript: %w", err)
	}
	return out, nil
}

// WriteFile writes Generate's output to path
func WriteFile(path string, extra ...any) error {
	if err := converter(extra).ConvertToFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
