package jscbridge

import (
	"encoding/json"

	"github.com/yejune/go-jsc-bridge/internal/shim"
)

// PackageMeta is the shape require('@clevertree/meta') falls back to.
type PackageMeta struct {
	Dirname  string `json:"dirname"`
	Filename string `json:"filename"`
}

// installCommonJS evaluates the module/exports/require shim. It resets the
// module cache and the virtual package map.
func installCommonJS(c *Context) error {
	_, err := c.rt.Execute(shim.CommonJS, shim.CommonJSOrigin)
	return err
}

// SetPackageMeta sets what require('@clevertree/meta') returns when no
// virtual package of that name is registered.
func (c *Context) SetPackageMeta(meta PackageMeta) error {
	if c.rt == nil {
		return ErrNotInitialized
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.rt.Assign([]string{shim.MetaOverride}, string(data), "meta.js")
}

// SetReact sets what require('react') returns when no virtual package of
// that name is registered.
func (c *Context) SetReact(objectExpression string) error {
	if c.rt == nil {
		return ErrNotInitialized
	}
	return c.rt.Assign([]string{shim.ReactOverride}, objectExpression, "react.js")
}
