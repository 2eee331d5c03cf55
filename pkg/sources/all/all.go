// Package all registers every built-in source adapter.
package all

import (
	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
	"github.com/doodlesbykumbi/devicehub/pkg/sources/intune"
	"github.com/doodlesbykumbi/devicehub/pkg/sources/kandji"
)

// Registry returns a registry holding the Intune and Kandji adapters.
func Registry() *sources.Registry {
	r := sources.NewRegistry()
	r.Register(model.SourceIntune, intune.New)
	r.Register(model.SourceKandji, kandji.New)
	return r
}
