package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skybox-manifest/pkg/logger"
	"skybox-manifest/pkg/manifest"
)

func TestStrategyRouter(t *testing.T) {
	r := NewStrategyRouter(logger.NewNopLogger())
	r.Register(manifest.NewHTMLStrategy())
	r.Register(manifest.NewJSONStrategy())

	s := r.GetStrategy("JSON ")
	require.NotNil(t, s)
	assert.Equal(t, "json", s.Version())

	s = r.GetStrategy("html")
	require.NotNil(t, s)
	assert.Equal(t, "html", s.Version())

	assert.Nil(t, r.GetStrategy("xml"))
	assert.Equal(t, []string{"html", "json"}, r.Versions())
}
