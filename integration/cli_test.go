//go:build integration

package integration_test

import (
	"io/fs"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"gopkg.in/yaml.v3"

	"github.com/openkcm/console-session/internal/config"
	"github.com/openkcm/console-session/internal/dbtest/valkeytest"
)

func TestStatusAndLogoutAgainstValkey(t *testing.T) {
	const configFilePath = "./cli_test/config.yaml"

	ctx := t.Context()
	testdir := filepath.Dir(configFilePath)

	client, port, terminate := valkeytest.Start(ctx)
	defer terminate(ctx)
	client.Close()

	// Prepare config
	os.MkdirAll(testdir, fs.ModePerm)
	defer os.RemoveAll(testdir)

	if err := os.WriteFile(configFilePath, []byte(validConfig), fs.ModePerm); err != nil {
		t.Fatalf("failed to write config file: %s", err)
	}
	defer os.Remove(configFilePath)

	var cfg config.Config
	if err := commoncfg.LoadConfig(&cfg, nil, testdir); err != nil {
		t.Fatalf("failed to load config: %s", err)
	}

	currdir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get wd: %s", err)
	}

	cfg.CredentialStore.Backend = "valkey"
	cfg.CredentialStore.ValKey.Host = commoncfg.SourceRef{
		Source: "embedded",
		Value:  net.JoinHostPort("localhost", port.Port()),
	}
	cfg.CredentialStore.ValKey.User = commoncfg.SourceRef{Source: "embedded", Value: ""}
	cfg.CredentialStore.ValKey.Password = commoncfg.SourceRef{Source: "embedded", Value: ""}

	cfgMap := make(map[any]any)
	if err := mapstructure.Decode(cfg, &cfgMap); err != nil {
		t.Fatalf("failed to decode mapstructure: %s", err)
	}

	f, err := os.Create(configFilePath)
	if err != nil {
		t.Fatalf("failed to create config file: %s", err)
	}
	defer f.Close()

	if err := yaml.NewEncoder(f).Encode(cfgMap); err != nil {
		t.Fatalf("failed to write config: %s", err)
	}

	os.Chdir(testdir)
	defer os.Chdir(currdir)

	// An empty store reports an anonymous session with a login redirect
	cmd := exec.CommandContext(ctx, filepath.Join(currdir, "./console-session"), "status", "--path", "/admin/portfolio")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to execute console-session status: %s\nOutput: %s", err, out)
	}
	if !strings.Contains(string(out), "status: anonymous") {
		t.Fatalf("expected an anonymous status report, got:\n%s", out)
	}
	if !strings.Contains(string(out), "action: redirect") {
		t.Fatalf("expected a redirect decision, got:\n%s", out)
	}

	// Logout with nothing stored is a harmless cleanup
	cmd = exec.CommandContext(ctx, filepath.Join(currdir, "./console-session"), "logout")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to execute console-session logout: %s\nOutput: %s", err, out)
	}
}
