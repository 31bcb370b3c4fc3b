package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/mocks"
	"github.com/dukex/pressdesk/pkg/otelhelper"
	"github.com/dukex/pressdesk/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := cmd.NewRegistry(logger, "")
	require.NoError(t, err)

	core, err := cmd.NewCore(logger, file.NewPersistence(t.TempDir()), mocks.NewPermissiveEventBus(), reg,
		otelhelper.NoopTracer(), cmd.CoreConfig{})
	require.NoError(t, err)

	return NewAPI(logger, core, nil).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestAPI_RootEndpoint(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pressdesk API", string(body))
}

func TestAPI_Probes(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := get(t, app, path)

		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "OK", string(body), path)
	}
}

func TestAPI_AgentTypes(t *testing.T) {
	status, body := get(t, setupTestApp(t), "/agents/types")
	require.Equal(t, http.StatusOK, status)

	var payload struct {
		Types []struct {
			ID string `json:"id"`
		} `json:"types"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))

	ids := make([]string, 0, len(payload.Types))
	for _, info := range payload.Types {
		ids = append(ids, info.ID)
	}

	assert.ElementsMatch(t, []string{"seo_optimizer", "content_gap", "headline_refresh"}, ids)
}

func TestAPI_ChatUnavailable(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
