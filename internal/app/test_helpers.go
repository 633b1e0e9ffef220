package app

import (
	"os"
	"testing"

	"github.com/vk/musicscripts/internal/config"
	"github.com/vk/musicscripts/internal/hcl_adapter"
	"github.com/vk/musicscripts/internal/registry"
	"github.com/vk/musicscripts/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Overrides are
// applied after the defaults and the configuration files of appConfig.
func SetupAppTest(t *testing.T, appConfig *Config, overrides ...func(*config.Model)) (*App, *testutil.SafeBuffer) {
	t.Helper()
	return SetupAppTestWithModules(t, appConfig, overrides, nil)
}

// SetupAppTestWithModules is SetupAppTest with an explicit module list.
func SetupAppTestWithModules(t *testing.T, appConfig *Config, overrides []func(*config.Model), modules []registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	if appConfig.WorkerCount == 0 {
		appConfig.WorkerCount = 2
	}
	appConfig.Overrides = append(appConfig.Overrides, overrides...)
	testApp := NewApp(logBuffer, appConfig, hcl_adapter.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("MUSIC_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
