// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Frame streaming server, Prometheus metrics, CSV analysis workflow
// 0.2.0 - Procedural planet textures, Planet view, texture cache
// 0.1.0 - Initial release: transit model, System and Transit views, headless curve export
