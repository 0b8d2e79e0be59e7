// Package bundler turns an entry module and its imports into a single
// CommonJS script the bridge can evaluate.
package bundler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	esbuildApi "github.com/evanw/esbuild/pkg/api"
)

// Ids the CommonJS shim resolves itself. They are never bundled.
var builtinExternals = []string{"react", "@clevertree/meta"}

var loaders = map[string]esbuildApi.Loader{
	".js":   esbuildApi.LoaderJS,
	".jsx":  esbuildApi.LoaderJSX,
	".ts":   esbuildApi.LoaderTS,
	".tsx":  esbuildApi.LoaderTSX,
	".json": esbuildApi.LoaderJSON,
	".txt":  esbuildApi.LoaderText,
}

// Options controls a build
type Options struct {
	// External lists extra ids left to require() at runtime, usually the
	// names of registered virtual packages.
	External []string
	Minify   bool
	// Target defaults to ES2017, which every backend parses.
	Target esbuildApi.Target
}

// Result is a finished bundle
type Result struct {
	JS           string   `json:"js"`
	Dependencies []string `json:"dependencies"`
}

// Build bundles the file at entry
func Build(entry string, opts Options) (Result, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return Result{}, err
	}
	return build(esbuildApi.BuildOptions{
		EntryPoints: []string{abs},
		Outfile:     "out.js",
	}, opts)
}

// BuildSource bundles contents as if it were a file in resolveDir
func BuildSource(contents, resolveDir string, opts Options) (Result, error) {
	return build(esbuildApi.BuildOptions{
		Stdin: &esbuildApi.StdinOptions{
			Contents:   contents,
			Loader:     esbuildApi.LoaderTSX,
			ResolveDir: resolveDir,
		},
		Outdir: "/",
	}, opts)
}

func build(buildOptions esbuildApi.BuildOptions, opts Options) (Result, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Result{}, err
	}
	target := opts.Target
	if target == esbuildApi.DefaultTarget {
		target = esbuildApi.ES2017
	}
	buildOptions.AbsWorkingDir = wd
	buildOptions.Bundle = true
	buildOptions.Write = false
	buildOptions.Metafile = true
	buildOptions.Format = esbuildApi.FormatCommonJS
	buildOptions.Platform = esbuildApi.PlatformNeutral
	buildOptions.Target = target
	buildOptions.External = append(append([]string{}, builtinExternals...), opts.External...)
	buildOptions.Loader = loaders
	buildOptions.MinifyWhitespace = opts.Minify
	buildOptions.MinifyIdentifiers = opts.Minify
	buildOptions.MinifySyntax = opts.Minify
	// Legal comments would end up after the completion value
	buildOptions.LegalComments = esbuildApi.LegalCommentsNone

	result := esbuildApi.Build(buildOptions)
	if len(result.Errors) > 0 {
		fileLocation := "unknown"
		lineNum := "unknown"
		if result.Errors[0].Location != nil {
			fileLocation = result.Errors[0].Location.File
			lineNum = result.Errors[0].Location.LineText
		}
		return Result{}, fmt.Errorf("%s in %s at %s", result.Errors[0].Text, fileLocation, lineNum)
	}

	var br Result
	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".js") {
			br.JS = string(file.Contents)
		}
	}
	br.Dependencies = dependencyPaths(result.Metafile, wd)
	return br, nil
}

type metafileSchema struct {
	Inputs map[string]interface{} `json:"inputs"`
}

// dependencyPaths lists the absolute paths of every bundled input outside
// node_modules. Metafile keys are relative to wd.
func dependencyPaths(metafile, wd string) []string {
	var meta metafileSchema
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil
	}
	var paths []string
	for key := range meta.Inputs {
		if strings.Contains(key, "node_modules/") || key == "<stdin>" {
			continue
		}
		if filepath.IsAbs(key) {
			paths = append(paths, filepath.Clean(key))
		} else {
			paths = append(paths, filepath.Join(wd, key))
		}
	}
	sort.Strings(paths)
	return paths
}
