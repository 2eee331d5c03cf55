package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/require"
)

// Environment knobs for the feature suite.
const (
	envEnable = "DEVICEHUB_INTEGRATION"
	envTags   = "DEVICEHUB_FEATURE_TAGS"
	envFormat = "DEVICEHUB_FEATURE_FORMAT"
)

func suiteOptions(t *testing.T, path string) *godog.Options {
	format := os.Getenv(envFormat)
	if format == "" {
		format = "pretty"
	}
	return &godog.Options{
		Format:   format,
		Paths:    []string{path},
		Tags:     os.Getenv(envTags),
		Strict:   true,
		TestingT: t,
	}
}

// TestFeatures runs each feature file as its own subtest against one shared
// Postgres container. Scenarios reset the tables before they start.
func TestFeatures(t *testing.T) {
	if v := os.Getenv(envEnable); v == "" || v == "0" || v == "false" {
		t.Skipf("set %s=1 to run the feature suite against Postgres", envEnable)
	}
	if testing.Short() {
		t.Skip("feature suite needs docker")
	}

	features, err := filepath.Glob(filepath.Join("features", "*.feature"))
	require.NoError(t, err)
	require.NotEmpty(t, features, "no feature files found")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc, err := NewTestContext(ctx)
	require.NoError(t, err, "start postgres container")
	defer tc.Close(ctx)

	for _, path := range features {
		name := strings.TrimSuffix(filepath.Base(path), ".feature")
		t.Run(name, func(t *testing.T) {
			suite := godog.TestSuite{
				Name: name,
				ScenarioInitializer: func(sc *godog.ScenarioContext) {
					NewStepsContext(tc).RegisterSteps(sc)
				},
				Options: suiteOptions(t, path),
			}
			if status := suite.Run(); status != 0 {
				t.Fatalf("feature %s exited with status %d", name, status)
			}
		})
	}
}
