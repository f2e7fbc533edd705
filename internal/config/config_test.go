package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "minimal valid",
			cfg:  Config{Inputs: []string{"a.xlsx"}, OutputPath: "out.xlsx"},
		},
		{
			name:    "no inputs",
			cfg:     Config{OutputPath: "out.xlsx"},
			wantErr: true,
		},
		{
			name:    "empty output",
			cfg:     Config{Inputs: []string{"a.xlsx"}},
			wantErr: true,
		},
		{
			name:    "negative anchor cap",
			cfg:     Config{Inputs: []string{"a.xlsx"}, OutputPath: "out.xlsx", MaxAnchorRows: -1},
			wantErr: true,
		},
		{
			name: "anonymize with source identifier",
			cfg: Config{
				Inputs: []string{"a.xlsx"}, OutputPath: "out.xlsx",
				Anonymize: true, IncludeSourceIdentifier: true,
			},
			wantErr: true,
		},
		{
			name: "anonymize alone",
			cfg:  Config{Inputs: []string{"a.xlsx"}, OutputPath: "out.xlsx", Anonymize: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandInputs_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.xlsx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	cfg := Config{Inputs: []string{dir}, OutputPath: "out.xlsx"}
	require.NoError(t, cfg.Validate())

	files, err := cfg.ExpandInputs()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.xlsx", filepath.Base(files[0]))
	assert.Equal(t, "b.xlsx", filepath.Base(files[1]))
}

func TestExpandInputs_MissingFileKept(t *testing.T) {
	// Nonexistent paths stay in the list; the accessor reports them as
	// per-document open failures.
	cfg := Config{Inputs: []string{"no/such/file.xlsx"}, OutputPath: "out.xlsx"}
	require.NoError(t, cfg.Validate())

	files, err := cfg.ExpandInputs()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestExpandInputs_EmptyDirectory(t *testing.T) {
	cfg := Config{Inputs: []string{t.TempDir()}, OutputPath: "out.xlsx"}
	require.NoError(t, cfg.Validate())

	_, err := cfg.ExpandInputs()
	assert.Error(t, err)
}
