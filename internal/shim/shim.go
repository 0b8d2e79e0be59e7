// Package shim holds the bootstrap scripts evaluated into every fresh engine
// context. They are written in ES5 so every backend can run them.
package shim

// Script origins, as they appear in stack traces.
const (
	ConsoleOrigin  = "console_shim.js"
	CommonJSOrigin = "commonjs_init.js"
)

// Global names the scripts define. Host code and cooperating scripts rely on
// them, so they are part of the contract.
const (
	NativeLogName = "__native_log"
	ConsoleLogs   = "__console_logs"
	ModuleCache   = "__module_cache"
	Packages      = "__clevertree_packages"
	ReactOverride = "__react"
	MetaOverride  = "__clevertree_meta"
	Staging       = "__jscbridge_staging"
)

// ModuleNotFound starts the message require throws for an unknown id.
const ModuleNotFound = "Module not found: "

// Console installs console.log/warn/info/error. Each call formats its
// arguments, records the line in __console_logs and forwards it to
// __native_log when the host bound one.
var Console = `(function (g) {
	if (!g.__console_logs) g.__console_logs = [];
	function emit(tag, args) {
		var parts = [];
		for (var i = 0; i < args.length; i++) parts.push(String(args[i]));
		var line = '[' + tag + '] ' + parts.join(' ');
		g.__console_logs.push(line);
		if (typeof g.__native_log === 'function') g.__native_log(line);
	}
	g.console = {
		log: function () { emit('LOG', arguments); },
		warn: function () { emit('WARN', arguments); },
		info: function () { emit('INFO', arguments); },
		error: function () { emit('ERROR', arguments); }
	};
})(typeof globalThis !== 'undefined' ? globalThis : this);`

// CommonJS installs module, exports and require, with the module cache and
// the virtual package map consulted in that order.
var CommonJS = `(function (g) {
	var has = Object.prototype.hasOwnProperty;
	g.module = { exports: {} };
	g.exports = g.module.exports;
	g.__module_cache = {};
	g.__clevertree_packages = {};
	g.require = function (id) {
		if (has.call(g.__module_cache, id)) return g.__module_cache[id];
		if (has.call(g.__clevertree_packages, id)) return g.__clevertree_packages[id];
		if (id === 'react') return g.__react || {};
		if (id === '@clevertree/meta') return g.__clevertree_meta || { dirname: '/', filename: '/index.js' };
		throw new Error('Module not found: ' + id);
	};
})(typeof globalThis !== 'undefined' ? globalThis : this);`

// ReadConsoleLogs evaluates to the JSON encoded console buffer.
var ReadConsoleLogs = `JSON.stringify(typeof __console_logs === 'undefined' ? [] : __console_logs)`
