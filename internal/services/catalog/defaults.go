package catalog

import _ "embed"

// defaultCatalog is the built-in character set, used when no catalog file
// is configured. 32 characters, so the default 25-card deal always fits.
//
//go:embed characters.json
var defaultCatalog []byte
