package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	require.NotNil(t, doc.Info)
	assert.Equal(t, "1.0.0", doc.Info.Version)

	for _, path := range []string{
		"/wizards/{org}/{user}/{variant}/start",
		"/wizards/{org}/{user}/{variant}/draft",
		"/wizards/{org}/{user}/{variant}/goto/{index}",
		"/wizards/{org}/{user}/{variant}/events",
	} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}

	again, err := GetSwagger()
	require.NoError(t, err)
	assert.Same(t, doc, again)
}
