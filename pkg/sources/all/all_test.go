package all

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/devicehub/pkg/model"
	"github.com/doodlesbykumbi/devicehub/pkg/sources"
)

func TestRegistry(t *testing.T) {
	r := Registry()
	assert.Equal(t, []model.SourceKind{model.SourceIntune, model.SourceKandji}, r.Kinds())

	for _, kind := range r.Kinds() {
		src, err := r.New(kind, sources.Options{})
		require.NoError(t, err)
		assert.Equal(t, kind, src.Kind())
	}
}
