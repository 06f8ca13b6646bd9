package config

import _ "embed"

// Default holds the embedded default configuration, including the
// built-in mapping tables and animation catalog.
//
//go:embed conf.yaml
var Default []byte
