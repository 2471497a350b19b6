package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provisr/provisr/internal/config"
)

// fakeDirectory serves both the token endpoint and the create-account
// endpoint. UPNs listed in rejectUPNs get a duplicate-object rejection.
type fakeDirectory struct {
	rejectUPNs  map[string]bool
	rejectToken bool
	createCalls atomic.Int64
}

func (f *fakeDirectory) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/contoso/oauth2/v2.0/token", func(w http.ResponseWriter, _ *http.Request) {
		if f.rejectToken {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_client",
				"error_description": "bad secret",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v1.0/users", func(w http.ResponseWriter, r *http.Request) {
		f.createCalls.Add(1)
		var body struct {
			UserPrincipalName string `json:"userPrincipalName"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if f.rejectUPNs[body.UserPrincipalName] {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "Request_BadRequest",
					"message": "Another object with the same value for property userPrincipalName already exists.",
				},
			})
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

// writeTestConfig writes a config file pointing at the fake directory and
// returns its path together with the log file path it configures.
func writeTestConfig(t *testing.T, serverURL string) (configPath, logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "provisr.log")
	configPath = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf(`logging:
  level: info
  format: json
  file: %s
graph:
  base_url: %s
  login_url: %s
  tenant_id: contoso
  client_id: app-123
throttle:
  every: 20
  pause_seconds: 0
`, logPath, serverURL, serverURL)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, logPath
}

func writeUsersCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	content := "DisplayName,UserPrincipalName,Password\n"
	for _, row := range rows {
		content += row + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func executeCreate(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"create"}, args...))
	err = root.Execute()
	return out.String(), err
}

func TestCreateCommand(t *testing.T) {
	t.Run("MixedOutcomesStillExitZero", func(t *testing.T) {
		directory := &fakeDirectory{rejectUPNs: map[string]bool{"broken@contoso.com": true}}
		srv := httptest.NewServer(directory.handler(t))
		defer srv.Close()

		configPath, logPath := writeTestConfig(t, srv.URL)
		csvPath := writeUsersCSV(t,
			"Jane Doe,jdoe@contoso.com,P@ss1234",
			"John Roe,broken@contoso.com,P@ss1234",
		)
		t.Setenv(config.EnvClientSecret, "s3cret")

		stdout, err := executeCreate(t, csvPath, "--config", configPath)
		require.NoError(t, err, "per-record failures must not fail the command")

		assert.Equal(t, int64(2), directory.createCalls.Load())
		assert.Contains(t, stdout, "Created 1 out of 2 users")

		logData, readErr := os.ReadFile(logPath)
		require.NoError(t, readErr)
		log := string(logData)
		assert.Contains(t, log, `"level":"info"`)
		assert.Contains(t, log, "jdoe@contoso.com")
		assert.Contains(t, log, `"level":"error"`)
		assert.Contains(t, log, "userPrincipalName already exists")
		assert.Contains(t, log, "Completed creating 1 users out of 2 users.")
	})

	t.Run("AuthFailureAbortsBeforeAnyRecord", func(t *testing.T) {
		directory := &fakeDirectory{rejectToken: true}
		srv := httptest.NewServer(directory.handler(t))
		defer srv.Close()

		configPath, logPath := writeTestConfig(t, srv.URL)
		csvPath := writeUsersCSV(t, "Jane Doe,jdoe@contoso.com,P@ss1234")
		t.Setenv(config.EnvClientSecret, "wrong")

		_, err := executeCreate(t, csvPath, "--config", configPath)
		require.Error(t, err)
		assert.Zero(t, directory.createCalls.Load(), "no record may be processed after a fatal startup failure")

		logData, readErr := os.ReadFile(logPath)
		require.NoError(t, readErr)
		assert.Contains(t, string(logData), "could not establish directory session")
		assert.NotContains(t, string(logData), "Completed creating")
	})

	t.Run("MissingSecretAborts", func(t *testing.T) {
		directory := &fakeDirectory{}
		srv := httptest.NewServer(directory.handler(t))
		defer srv.Close()

		configPath, _ := writeTestConfig(t, srv.URL)
		csvPath := writeUsersCSV(t, "Jane Doe,jdoe@contoso.com,P@ss1234")
		t.Setenv(config.EnvClientSecret, "")

		_, err := executeCreate(t, csvPath, "--config", configPath)
		require.Error(t, err)
		assert.Zero(t, directory.createCalls.Load())
	})

	t.Run("UnreadableInputAborts", func(t *testing.T) {
		directory := &fakeDirectory{}
		srv := httptest.NewServer(directory.handler(t))
		defer srv.Close()

		configPath, _ := writeTestConfig(t, srv.URL)
		t.Setenv(config.EnvClientSecret, "s3cret")

		_, err := executeCreate(t, filepath.Join(t.TempDir(), "missing.csv"), "--config", configPath)
		require.Error(t, err)
		assert.Zero(t, directory.createCalls.Load())
	})

	t.Run("RequiresExactlyOneArgument", func(t *testing.T) {
		_, err := executeCreate(t)
		assert.Error(t, err)
	})
}
