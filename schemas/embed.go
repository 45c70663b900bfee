// Package schemas holds the JSON Schema documents shipped with the module builder.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Blueprint is the file name of the Blueprint document schema.
const Blueprint = "blueprint.schema.json"
