package commands

import (
	"testing"

	"jupiter/internal/application"
	"jupiter/internal/config"
	"jupiter/internal/testkit"
)

// newEnv wraps a bootstrapped testkit workspace in an application Env
func newEnv(t *testing.T) (*testkit.Env, *application.Env) {
	t.Helper()
	kit := testkit.New(t, "UTC")
	return kit, application.NewEnv(kit.Store, kit.Remote, kit.Clock, nil, nil, config.Default())
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && len(substr) > 0 && searchString(s, substr)))
}

func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
