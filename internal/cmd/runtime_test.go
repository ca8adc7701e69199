package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/csvpeek/internal/config"
	"github.com/salmonumbrella/csvpeek/internal/inspect"
	"github.com/salmonumbrella/csvpeek/internal/secrets"
)

func TestFlagChanged_NilCmd(t *testing.T) {
	if flagChanged(nil, "output") {
		t.Error("expected false for nil cmd")
	}
}

func TestFlagChanged_UnsetFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", "text", "")

	if flagChanged(cmd, "output") {
		t.Error("expected false for unset flag")
	}
}

func TestFlagChanged_SetFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", "text", "")
	if err := cmd.Flags().Set("output", "json"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	if !flagChanged(cmd, "output") {
		t.Error("expected true for set flag")
	}
}

func TestFlagChanged_InheritedFlag(t *testing.T) {
	parent := &cobra.Command{}
	parent.PersistentFlags().String("delimiter", "", "")

	child := &cobra.Command{}
	parent.AddCommand(child)

	if err := parent.PersistentFlags().Set("delimiter", ";"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	if !flagChanged(child, "delimiter") {
		t.Error("expected true for inherited flag")
	}
}

func TestFormatConfigLoadError_Nil(t *testing.T) {
	err := formatConfigLoadError(nil)
	if err != nil {
		t.Errorf("expected nil for nil input, got %v", err)
	}
}

func TestFormatConfigLoadError_WrapsError(t *testing.T) {
	original := errors.New("file not found")
	err := formatConfigLoadError(original)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "load config: file not found" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func withActiveConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := activeConfig
	activeConfig = cfg
	t.Cleanup(func() { activeConfig = prev })
}

func TestPreviewRows_Precedence(t *testing.T) {
	withActiveConfig(t, &config.Config{})

	cmd := &cobra.Command{}
	cmd.Flags().Int("rows", inspect.DefaultPreviewRows, "")
	if got := previewRows(cmd, 99); got != inspect.DefaultPreviewRows {
		t.Errorf("default = %d, want %d", got, inspect.DefaultPreviewRows)
	}

	activeConfig = &config.Config{PreviewRows: 12}
	if got := previewRows(cmd, 99); got != 12 {
		t.Errorf("config = %d, want 12", got)
	}

	if err := cmd.Flags().Set("rows", "3"); err != nil {
		t.Fatal(err)
	}
	if got := previewRows(cmd, 3); got != 3 {
		t.Errorf("flag = %d, want 3", got)
	}
	if got := previewRows(cmd, -4); got != 0 {
		t.Errorf("negative flag = %d, want 0", got)
	}
}

func TestLoadOptions_Precedence(t *testing.T) {
	withActiveConfig(t, &config.Config{Delimiter: "ab"})

	cmd := &cobra.Command{}
	cmd.Flags().String("delimiter", "", "")
	if _, err := loadOptions(cmd); err == nil {
		t.Error("expected invalid config delimiter to fail")
	}

	prev := delimiterFlag
	defer func() { delimiterFlag = prev }()
	delimiterFlag = "tab"
	if err := cmd.Flags().Set("delimiter", "tab"); err != nil {
		t.Fatal(err)
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		t.Fatalf("flag delimiter: %v", err)
	}
	if len(opts) != 1 {
		t.Errorf("got %d options, want 1", len(opts))
	}

	activeConfig = &config.Config{}
	plain := &cobra.Command{}
	if opts, err := loadOptions(plain); err != nil || len(opts) != 0 {
		t.Errorf("default = %v, %v; want no options", opts, err)
	}
}

func TestResolveLocation_UsesConfigFileName(t *testing.T) {
	withActiveConfig(t, &config.Config{FileName: "milk.csv"})

	dir := t.TempDir()
	prev := executablePath
	executablePath = func() (string, error) { return filepath.Join(dir, "csvpeek"), nil }
	defer func() { executablePath = prev }()

	got, err := resolveLocation("")
	if err != nil {
		t.Fatalf("resolveLocation: %v", err)
	}
	if want := filepath.Join(dir, "milk.csv"); got != want {
		t.Errorf("resolveLocation(\"\") = %q, want %q", got, want)
	}
}

// mockSecretsStore is an in-memory secrets.Store.
type mockSecretsStore struct {
	tokens map[string]secrets.Token
	err    error
}

func newMockSecretsStore() *mockSecretsStore {
	return &mockSecretsStore{tokens: map[string]secrets.Token{}}
}

func (m *mockSecretsStore) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.tokens))
	for k := range m.tokens {
		keys = append(keys, "token:"+k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *mockSecretsStore) GetToken(host string) (secrets.Token, error) {
	if m.err != nil {
		return secrets.Token{}, m.err
	}
	if tok, ok := m.tokens[strings.ToLower(host)]; ok {
		return tok, nil
	}
	return secrets.Token{}, fmt.Errorf("%s: %w", host, secrets.ErrNotFound)
}

func (m *mockSecretsStore) SetToken(host string, tok secrets.Token) error {
	if m.err != nil {
		return m.err
	}
	tok.Host = strings.ToLower(host)
	m.tokens[tok.Host] = tok
	return nil
}

func (m *mockSecretsStore) DeleteToken(host string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.tokens[strings.ToLower(host)]; !ok {
		return fmt.Errorf("%s: %w", host, secrets.ErrNotFound)
	}
	delete(m.tokens, strings.ToLower(host))
	return nil
}

func (m *mockSecretsStore) ListTokens() ([]secrets.Token, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []secrets.Token
	for _, tok := range m.tokens {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out, nil
}

func withSecretsStore(t *testing.T, store secrets.Store, openErr error) {
	t.Helper()
	prev := openSecretsStore
	openSecretsStore = func() (secrets.Store, error) {
		if openErr != nil {
			return nil, openErr
		}
		return store, nil
	}
	t.Cleanup(func() { openSecretsStore = prev })
}

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	prev := envGet
	envGet = func(key string) string { return env[key] }
	t.Cleanup(func() { envGet = prev })
}

func TestTokenForHost(t *testing.T) {
	store := newMockSecretsStore()
	store.tokens["data.example.com"] = secrets.Token{Host: "data.example.com", Value: "from-keyring"}

	tests := []struct {
		name    string
		env     map[string]string
		store   secrets.Store
		openErr error
		host    string
		want    string
		wantErr bool
	}{
		{"env wins", map[string]string{"CSVPEEK_TOKEN": "from-env"}, store, nil, "data.example.com", "from-env", false},
		{"keyring", nil, store, nil, "data.example.com", "from-keyring", false},
		{"unknown host is anonymous", nil, store, nil, "other.example.com", "", false},
		{"store unavailable is anonymous", nil, nil, errors.New("no keyring"), "data.example.com", "", false},
		{"store read failure", nil, &mockSecretsStore{err: errors.New("locked")}, nil, "data.example.com", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			withSecretsStore(t, tt.store, tt.openErr)

			got, err := tokenForHost(context.Background(), tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("tokenForHost() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("tokenForHost() = %q, want %q", got, tt.want)
			}
		})
	}
}
