package data

import (
	_ "embed"
)

// DemoSeed is the fixture set blockctl seeds when no file is given.
//
//go:embed seed/demo.yaml
var DemoSeed []byte
