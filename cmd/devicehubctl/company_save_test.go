package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCompanyFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("save", pflag.ContinueOnError)
	addCompanyFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestCompanyRequestFromFlags(t *testing.T) {
	t.Run("only changed flags are set", func(t *testing.T) {
		req, err := companyRequestFromFlags(parseCompanyFlags(t, "--id", "7", "--kandji-api-key", ""))
		require.NoError(t, err)

		require.NotNil(t, req.ID)
		assert.Equal(t, uint(7), *req.ID)
		require.NotNil(t, req.KandjiAPIKey)
		assert.Equal(t, "", *req.KandjiAPIKey)
		assert.Nil(t, req.Name)
		assert.Nil(t, req.Archived)
		assert.Equal(t, []string{"kandji_api_key"}, req.Fields())
	})

	t.Run("archived flag", func(t *testing.T) {
		req, err := companyRequestFromFlags(parseCompanyFlags(t, "--id", "3", "--archived"))
		require.NoError(t, err)
		require.NotNil(t, req.Archived)
		assert.True(t, *req.Archived)
	})

	t.Run("new company needs a name", func(t *testing.T) {
		_, err := companyRequestFromFlags(parseCompanyFlags(t, "--kandji-api-key", "k"))
		assert.ErrorContains(t, err, "--name is required")
	})

	t.Run("nothing to save", func(t *testing.T) {
		_, err := companyRequestFromFlags(parseCompanyFlags(t, "--id", "3"))
		assert.ErrorContains(t, err, "nothing to save")
	})
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.NoError(t, loadEnv(""))
	assert.Error(t, loadEnv("missing.env"))
}
