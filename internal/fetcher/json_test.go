package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnvelope struct {
	Title  string `json:"title"`
	Events []struct {
		ID string `json:"id"`
	} `json:"events"`
}

func TestDecodeJSONObject(t *testing.T) {
	input := `{"title":"EONET Events","events":[{"id":"EONET_1"},{"id":"EONET_2"}]}`

	obj, err := DecodeJSONObject[testEnvelope](strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "EONET Events", obj.Title)
	require.Len(t, obj.Events, 2)
	assert.Equal(t, "EONET_1", obj.Events[0].ID)
}

func TestDecodeJSONObject_Malformed(t *testing.T) {
	_, err := DecodeJSONObject[testEnvelope](strings.NewReader(`{"title":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode body")
}
