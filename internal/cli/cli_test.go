package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/treasury/internal/calldata"
)

const (
	safeChecksum = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	safeLower    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	signerA      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	signerB      = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// env isolates one test: temp config and data dirs and a fake Safe
// Transaction Service for sepolia.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/safes/"+safeChecksum+"/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":"` + safeChecksum + `","nonce":0,"threshold":1,"owners":["` + signerA + `"],"version":"1.4.1"}`))
	})
	mux.HandleFunc("/api/v1/safes/"+safeChecksum+"/balances/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"tokenAddress":null,"balance":"42"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("TREASURY_SAFE_API_URLS", "sepolia="+srv.URL)
	t.Setenv("TREASURY_SAFE_API_ATTEMPTS", "1")
	t.Setenv("TREASURY_SAFE_API_RATE_LIMIT", "1000")
	t.Setenv("TREASURY_LOG_LEVEL", "error")
	t.Setenv("TREASURY_CONFIG_DIR", "")
	t.Setenv("TREASURY_DATA_DIR", "")

	dir := t.TempDir()
	return &env{configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

// run executes the CLI in-process and returns stdout.
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (e *env) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out := e.mustRun(t, append([]string{"--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

// createActive creates and activates a treasury for group, returning the
// account id.
func (e *env) createActive(t *testing.T, group string) string {
	t.Helper()
	var created struct {
		Account struct {
			AccountID string `json:"account_id"`
		} `json:"account"`
	}
	e.runJSON(t, &created, "create", group, "--admin", signerA, "--threshold", "1", "--salt", "7")
	require.NotEmpty(t, created.Account.AccountID)
	e.mustRun(t, "activate", created.Account.AccountID, safeLower)
	return created.Account.AccountID
}

func TestInit_WritesConfigAndDatabase(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "Treasury initialized")

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "add_threshold: keep")
	assert.FileExists(t, filepath.Join(e.dataDir, "treasury.db"))

	// Second init leaves the config alone.
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte("backend: sqlite\n"), 0o644))
	e.mustRun(t, "init")
	data, err = os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\n", string(data))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Contains(t, out, "treasury "+Version)
	assert.Contains(t, out, modulePath)
}

func TestCreateShowLifecycle(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "show", "g1")
	assert.Contains(t, out, "State:     none")

	var created struct {
		Account struct {
			AccountID string `json:"account_id"`
			Status    string `json:"status"`
		} `json:"account"`
		Configuration struct {
			Signers   []string `json:"signers"`
			Threshold int      `json:"threshold"`
			SaltNonce int64    `json:"salt_nonce"`
		} `json:"configuration"`
	}
	e.runJSON(t, &created, "create", "g1", "--admin", signerA, "--signer", signerB, "--threshold", "2", "--salt", "99")
	assert.Equal(t, "pending", created.Account.Status)
	assert.Equal(t, []string{signerA, signerB}, created.Configuration.Signers)
	assert.Equal(t, 2, created.Configuration.Threshold)
	assert.EqualValues(t, 99, created.Configuration.SaltNonce)

	out = e.mustRun(t, "show", "g1")
	assert.Contains(t, out, "State:     pending")
	assert.Contains(t, out, "Threshold: 2 of 2")

	e.mustRun(t, "activate", created.Account.AccountID, safeLower)

	var view struct {
		State         string `json:"state"`
		Accessibility struct {
			Accessible bool   `json:"accessible"`
			Balance    string `json:"balance"`
		} `json:"accessibility"`
	}
	e.runJSON(t, &view, "show", "g1")
	assert.Equal(t, "active", view.State)
	assert.True(t, view.Accessibility.Accessible)
	assert.Equal(t, "42", view.Accessibility.Balance)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t)
	e.createActive(t, "g1")

	_, err := e.run(t, "create", "g1", "--admin", signerB)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "create", "g2", "--admin", signerA, "--threshold", "5")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "proposals", "nobody")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = e.run(t, "--data-dir", filepath.Join(e.configDir, "config.yaml", "nested"), "show", "g1")
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestProposeAndList(t *testing.T) {
	e := newEnv(t)
	e.createActive(t, "g1")

	out := e.mustRun(t, "propose", "g1", "--to", signerB, "--value", "1.5", "--description", "grant")
	assert.Contains(t, out, "Proposed nonce 0: 1500000000000000000 wei")
	e.mustRun(t, "propose", "g1", "--to", signerB, "--value", "0", "--data", "0xdeadbeef", "--description", "call")

	out = e.mustRun(t, "proposals", "g1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "), lines[1])
	assert.Contains(t, lines[1], "0xdeadbeef")
	assert.Contains(t, lines[2], "transfer")

	_, err := e.run(t, "propose", "g1", "--to", signerB, "--value", "-1", "--description", "x")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestSyncAndInspect(t *testing.T) {
	e := newEnv(t)
	e.createActive(t, "g1")

	out := e.mustRun(t, "sync", "g1", "m2", "role_granted", signerB)
	assert.Contains(t, out, "Proposed addOwnerWithThreshold at nonce 0")

	out = e.mustRun(t, "sync", "g1", "m1", "role_granted", signerA)
	assert.Contains(t, out, "No change")

	var proposals []struct {
		Nonce int64  `json:"nonce"`
		Data  string `json:"data"`
	}
	e.runJSON(t, &proposals, "proposals", "g1")
	require.Len(t, proposals, 1)

	var call calldata.Call
	e.runJSON(t, &call, "inspect", proposals[0].Data)
	assert.Equal(t, calldata.MethodAddOwner, call.Method)
	assert.Equal(t, signerB, call.Owner)
	assert.EqualValues(t, 1, call.Threshold)

	_, err := e.run(t, "inspect", "0x12345678")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestReconnectCheckUnbind(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun(t, "reconnect", "g1", safeLower)
	assert.Contains(t, out, "Reconnected group g1")
	assert.Contains(t, out, "Threshold: 1 of 1")

	out = e.mustRun(t, "check", "g1")
	assert.Contains(t, out, "Accessible: yes (balance 42 wei")

	e.mustRun(t, "create", "g2", "--admin", signerA)
	var results []struct {
		Accessibility struct {
			Accessible bool   `json:"accessible"`
			Class      string `json:"class"`
		} `json:"accessibility"`
	}
	e.runJSON(t, &results, "check")
	require.Len(t, results, 2)

	e.mustRun(t, "unbind", "g1")
	out = e.mustRun(t, "show", "g1")
	assert.Contains(t, out, "State:     none")

	_, err := e.run(t, "reconnect", "g3", signerB)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestConfig_InvalidPolicy(t *testing.T) {
	e := newEnv(t)
	t.Setenv("TREASURY_SYNC_ADD_THRESHOLD", "double")
	_, err := e.run(t, "show", "g1")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.createActive(t, "g1")
	e.mustRun(t, "propose", "g1", "--to", signerB, "--value", "1", "--description", "grant")

	dir := filepath.Join(t.TempDir(), "snapshot")
	out := e.mustRun(t, "export", dir)
	assert.Contains(t, out, "Exported 1 accounts, 1 configurations, 1 bindings, 1 proposals")
	assert.FileExists(t, filepath.Join(dir, "proposals.jsonl"))
}
