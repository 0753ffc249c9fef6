package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr string
	}{
		{"Defaults", Config{StagedSuffix: ".merge-staged"}, ""},
		{"Empty", Config{}, ""},
		{"Negative Workers", Config{Workers: -1}, "must not be negative"},
		{"Suffix Without Dot", Config{StagedSuffix: "staged"}, "must start with a dot"},
		{"Sidecar Suffix", Config{StagedSuffix: ".meta"}, "must differ from the sidecar suffix"},
		{"Bad Pattern", Config{Ignore: []string{"Temp/[x"}}, "invalid pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.expectErr)
		})
	}
}

func TestConfig_EngineOptions(t *testing.T) {
	opts := Config{Workers: 3, Ignore: []string{"Temp/**"}, StagedSuffix: ".pending", HashCacheSize: 16}.EngineOptions(nil)

	assert.Equal(t, []string{"Temp/**", "**/*.pending"}, opts.Index.Identity.Ignore)
	assert.Equal(t, opts.Index.Identity.Ignore, opts.Index.Types.Ignore)
	assert.Equal(t, ".pending", opts.Rewrite.StagedSuffix)
	assert.Equal(t, 3, opts.Rewrite.Workers)
	assert.Equal(t, 16, opts.Duplicate.CacheSize)

	def := Config{}.EngineOptions(nil)
	assert.Empty(t, def.Index.Identity.Ignore)
	assert.Equal(t, ".merge-staged", def.Rewrite.StagedSuffix)
}
