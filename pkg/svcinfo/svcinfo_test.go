package svcinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_MetricsName(t *testing.T) {
	info := New("my-cool-service", "1.2.3", "someone", "does things")

	assert.Equal(t, "my-cool-service", info.Name)
	assert.Equal(t, "my_cool_service", info.MetricsName)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "someone", info.Author)
	assert.Equal(t, "does things", info.Description)
}

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		bi          debug.BuildInfo
		wantName    string
		wantVersion string
	}{
		{
			name:        "tagged module",
			bi:          debug.BuildInfo{Main: debug.Module{Path: "github.com/acme/billing-api", Version: "v1.4.0"}},
			wantName:    "billing-api",
			wantVersion: "v1.4.0",
		},
		{
			name:        "devel build",
			bi:          debug.BuildInfo{Main: debug.Module{Path: "github.com/acme/worker", Version: "(devel)"}},
			wantName:    "worker",
			wantVersion: DevVersion,
		},
		{
			name:        "main path only",
			bi:          debug.BuildInfo{Path: "github.com/acme/tool/cmd/tool-x"},
			wantName:    "tool-x",
			wantVersion: DevVersion,
		},
		{
			name:        "empty",
			bi:          debug.BuildInfo{},
			wantName:    "unknown",
			wantVersion: DevVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := fromBuildInfo(&tt.bi, "a", "d")
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, MetricsName(tt.wantName), info.MetricsName)
		})
	}
}

func TestFromBuildInfo_Live(t *testing.T) {
	info := FromBuildInfo("a", "d")

	assert.NotEmpty(t, info.Name)
	assert.NotEmpty(t, info.Version)
	assert.NotContains(t, info.MetricsName, "-")
}
