// Package assets provides the scripts and page templates used by the
// HTML to delta backends.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the html2delta worker script run by Node.js and
// the converter page template loaded by the headless browser backend.
//
// FilesystemLoader allows users to override those assets from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the converter. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is
// not found.
//
// # Directory Structure
//
//	{basePath}/
//	├── scripts/
//	│   └── {name}.js            # Worker scripts (e.g., html2delta.js)
//	└── templates/
//	    └── {name}.html          # Browser page templates (e.g., converter.html)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
