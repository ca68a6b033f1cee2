package clicfg_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgm"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/clicfg"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/svcinfo"
)

type application struct {
	ListenPort uint16 `json:"listen_port" desc:"Port to listen on"     example:"8080"`
	ListenHost string `json:"listen_host" desc:"Hostname to listen to" example:"localhost"`
}

type settings struct {
	Application application `json:"application" desc:"App Settings"`
	OverrideMe  string      `json:"override_me" desc:"Overrides the CLI argument"`
}

type arguments struct {
	EnableWorldPeace bool     `json:"enable_world_peace" short:"e" desc:"world peace, careful, has consequences"`
	OverrideMe       string   `json:"override_me"        short:"o" desc:"This value will be overridden by the config"`
	Retries          *int     `json:"retries"            desc:"optional retry count"`
	Tags             []string `json:"tags"               desc:"tags"`
}

func (arguments) Describe() string { return "A NEW description, not using the one from the build" }

var info = svcinfo.New("test-service", "1.2.3", "someone", "default description")

func negotiate(t *testing.T, args ...string) (clicfg.Result[settings, arguments], string, error) {
	t.Helper()
	var out bytes.Buffer
	res, err := clicfg.Negotiate[settings, arguments](
		context.Background(), info, "CLICFG_TEST_", append([]string{"test-service"}, args...),
		clicfg.WithWriter(&out), clicfg.WithErrWriter(&out),
	)

	return res, out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNegotiate_Ready(t *testing.T) {
	path := writeConfig(t, `
[application]
listen_port = 8080
listen_host = "localhost"
`)
	t.Setenv("CLICFG_TEST_APPLICATION__LISTEN_PORT", "9999")

	res, _, err := negotiate(t, "--config", path, "-e", "--override-me", "from-cli", "--retries", "3", "--tags", "a", "--tags", "b")
	require.NoError(t, err)
	require.Equal(t, clicfg.StateReady, res.State)
	require.NotNil(t, res.Session)

	s := res.Session
	assert.True(t, s.Args.EnableWorldPeace)
	assert.Equal(t, "from-cli", s.Args.OverrideMe)
	require.NotNil(t, s.Args.Retries)
	assert.Equal(t, 3, *s.Args.Retries)
	assert.Equal(t, []string{"a", "b"}, s.Args.Tags)

	assert.Equal(t, uint16(9999), s.Config.Application.ListenPort)
	assert.Equal(t, "localhost", s.Config.Application.ListenHost)
	// 配置中没有该 key 时使用 CLI 参数
	assert.Equal(t, "from-cli", s.Config.OverrideMe)
}

func TestNegotiate_FileOverridesArgs(t *testing.T) {
	path := writeConfig(t, `
override_me = "from-file"

[application]
listen_port = 1
listen_host = "h"
`)

	res, _, err := negotiate(t, "-c", path, "-o", "from-cli")
	require.NoError(t, err)
	assert.Equal(t, "from-cli", res.Session.Args.OverrideMe)
	assert.Equal(t, "from-file", res.Session.Config.OverrideMe)
	assert.Nil(t, res.Session.Args.Retries)
}

func TestNegotiate_MissingConfig(t *testing.T) {
	res, _, err := negotiate(t)
	require.Error(t, err)
	assert.Nil(t, res.Session)
	assert.ErrorIs(t, err, clicfg.ErrArgParse)

	var cerr *clicfg.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, clicfg.KindArgParse, cerr.Kind)
}

func TestNegotiate_MalformedConfig(t *testing.T) {
	path := writeConfig(t, "[application\nlisten_port = ")

	res, _, err := negotiate(t, "--config", path)
	require.Error(t, err)
	assert.Nil(t, res.Session)
	assert.ErrorIs(t, err, cfgm.ErrConfigLoad)
	assert.NotErrorIs(t, err, clicfg.ErrArgParse)

	var cerr *clicfg.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, clicfg.KindConfigLoad, cerr.Kind)
	assert.Equal(t, path, cerr.Path)
}

func TestNegotiate_MissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	_, _, err := negotiate(t, "--config", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, cfgm.ErrConfigLoad)
	assert.Contains(t, err.Error(), path)
}

func TestNegotiate_GenerateShortCircuits(t *testing.T) {
	bad := writeConfig(t, "this is not toml")
	out := filepath.Join(t.TempDir(), "generated.toml")

	res, _, err := negotiate(t, "--config", bad, "--generate", out)
	require.NoError(t, err)
	assert.Equal(t, clicfg.StateGenerated, res.State)
	assert.Nil(t, res.Session)
	assert.Equal(t, out, res.GeneratedPath)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	for _, key := range []string{"application", "listen_port", "listen_host", "override_me"} {
		assert.Contains(t, string(data), key)
	}

	// 生成的文件可以直接用于启动
	res, _, err = negotiate(t, "-c", out)
	require.NoError(t, err)
	assert.Equal(t, uint16(8080), res.Session.Config.Application.ListenPort)
	assert.Equal(t, "localhost", res.Session.Config.Application.ListenHost)
}

func TestNegotiate_GenerateFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "no-such-dir", "generated.toml")

	_, _, err := negotiate(t, "-g", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, clicfg.ErrConfigGenerate)
	assert.ErrorIs(t, err, cfgm.ErrConfigFileWrite)
	assert.Contains(t, err.Error(), out)
}

func TestNegotiate_Info(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "help", args: []string{"--help"}, want: []string{"A NEW description", "--config", "--generate", "--enable-world-peace"}},
		{name: "version", args: []string{"--version"}, want: []string{"1.2.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out, err := negotiate(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, clicfg.StateInfo, res.State)
			assert.Nil(t, res.Session)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestNegotiate_ArgParseFailures(t *testing.T) {
	path := writeConfig(t, "[application]\nlisten_port = 1\nlisten_host = \"h\"\n")

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--config", path, "--bogus"}},
		{name: "positional argument", args: []string{"--config", path, "extra"}},
		{name: "missing flag value", args: []string{"--config"}},
		{name: "bad int", args: []string{"--config", path, "--retries", "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, err := negotiate(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, clicfg.ErrArgParse)
			assert.Nil(t, res.Session)
		})
	}
}

func TestNegotiate_ReservedFlag(t *testing.T) {
	type badArgs struct {
		Config string `json:"config"`
	}

	_, err := clicfg.Negotiate[settings, badArgs](context.Background(), info, "X_", []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, clicfg.ErrArgParse)
	assert.Contains(t, err.Error(), "reserved")
}

func TestNegotiate_WithLoadOptions(t *testing.T) {
	path := writeConfig(t, "unknown_key = 1\noverride_me = \"x\"\n[application]\nlisten_port = 1\nlisten_host = \"h\"\n")

	var out bytes.Buffer
	_, err := clicfg.Negotiate[settings, arguments](
		context.Background(), info, "CLICFG_TEST_", []string{"test-service", "-c", path},
		clicfg.WithWriter(&out), clicfg.WithLoadOptions(cfgm.WithStrict()),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, cfgm.ErrConfigLoad)
	assert.Contains(t, err.Error(), "unknown_key")
}

func TestNegotiate_WithDefaults(t *testing.T) {
	path := writeConfig(t, "[application]\nlisten_host = \"h\"\n")

	var out bytes.Buffer
	res, err := clicfg.Negotiate[settings, arguments](
		context.Background(), info, "CLICFG_TEST_", []string{"test-service", "-c", path},
		clicfg.WithWriter(&out),
		clicfg.WithDefaults(settings{Application: application{ListenPort: 7070}}),
	)
	require.NoError(t, err)
	assert.Equal(t, uint16(7070), res.Session.Config.Application.ListenPort)
	assert.Equal(t, "h", res.Session.Config.Application.ListenHost)
}
