package clicfg

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/svcinfo"
)

type newSettings struct {
	Port uint16 `json:"port" example:"8080"`
}

type newArgs struct {
	Verbose bool `json:"verbose" short:"V"`
}

// withProcess 替换 os.Args 与 exit，返回记录的退出码 (-1 表示未退出)。
func withProcess(t *testing.T, args ...string) *int {
	t.Helper()
	code := -1
	origArgs, origExit := os.Args, exit
	os.Args = append([]string{"svc"}, args...)
	exit = func(c int) { code = c }
	t.Cleanup(func() {
		os.Args, exit = origArgs, origExit
	})

	return &code
}

func TestNew_ExitCodes(t *testing.T) {
	info := svcinfo.New("svc", "0.1.0", "", "")
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte("port = 1\n"), 0o600))

	tests := []struct {
		name        string
		args        []string
		wantCode    int
		wantSession bool
		wantStderr  string
	}{
		{name: "ready", args: []string{"-c", good, "-V"}, wantCode: -1, wantSession: true},
		{name: "generated", args: []string{"-g", filepath.Join(dir, "gen.toml")}, wantCode: 0},
		{name: "help", args: []string{"-h"}, wantCode: 0},
		{name: "missing config", args: nil, wantCode: 1, wantStderr: "Error: could not parse arguments"},
		{name: "load failure", args: []string{"-c", filepath.Join(dir, "absent.toml")}, wantCode: 1, wantStderr: "Error: could not load application configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := withProcess(t, tt.args...)
			var stdout, stderr bytes.Buffer

			s := New[newSettings, newArgs](info, "CLICFG_NEW_", WithWriter(&stdout), WithErrWriter(&stderr))
			assert.Equal(t, tt.wantCode, *code)
			assert.Equal(t, tt.wantSession, s != nil)
			if tt.wantSession {
				assert.True(t, s.Args.Verbose)
				assert.Equal(t, uint16(1), s.Config.Port)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestTryNew_NilOnExit(t *testing.T) {
	withProcess(t, "--version")
	var stdout bytes.Buffer

	s, err := TryNew[newSettings, newArgs](svcinfo.New("svc", "0.1.0", "", ""), "X_", WithWriter(&stdout))
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Contains(t, stdout.String(), "0.1.0")
}

func TestArgFields(t *testing.T) {
	type args struct {
		Name    string  `json:"service_name" short:"n" desc:"name"`
		Count   *uint64 `json:"count"`
		Ignored string  `json:"-"`
	}

	fields, err := argFields(reflect.TypeFor[args]())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "service-name", fields[0].flag)
	assert.Equal(t, "service_name", fields[0].key)
	assert.Equal(t, []string{"n"}, fields[0].aliases())
	assert.True(t, fields[1].optional)

	type dupShort struct {
		A bool `json:"a" short:"c"`
	}
	_, err = argFields(reflect.TypeFor[dupShort]())
	require.Error(t, err)

	type unsupported struct {
		M map[string]string `json:"m"`
	}
	_, err = argFields(reflect.TypeFor[unsupported]())
	require.Error(t, err)
}
