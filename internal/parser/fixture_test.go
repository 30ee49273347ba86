package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/producttest"
)

type fixture = producttest.Fixture

func defaultFixture() fixture { return producttest.Default() }

func writeProduct(t *testing.T, f fixture, extra map[string]string) string {
	return producttest.WriteProduct(t, f, extra)
}

func rootOf(t *testing.T, f fixture) *metadata.Element {
	t.Helper()
	root, err := metadata.LoadXML(strings.NewReader(f.XML()))
	require.NoError(t, err)
	return root
}
