package dtdl

import (
	"embed"
	"fmt"
	"io/fs"
)

// The demo interface documents describe the industrial equipment used by the
// bundled visualisation: motors, pumps (extending motors), and storage
// tanks.
//
//go:embed models/*.json
var demoFS embed.FS

// Demo returns a Registry loaded with the embedded demo models. It panics if
// the embedded documents fail to parse, which would indicate a broken build.
func Demo() *Registry {
	sub, err := fs.Sub(demoFS, "models")
	if err != nil {
		panic(fmt.Sprintf("dtdl: embedded models: %v", err))
	}
	r := NewRegistry()
	if _, err := r.Load(sub); err != nil {
		panic(fmt.Sprintf("dtdl: parse embedded models: %v", err))
	}
	return r
}
