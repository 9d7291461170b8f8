package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidateJSON_PlainArray(t *testing.T) {
	got := parseCandidateJSON(`[
		{"name": "AgroSense", "website": "https://agrosense.example.com", "description": "Soil sensors", "city": "Wageningen", "country": "Netherlands"},
		{"name": "FlowBio", "funding_signal": true, "funding_amount": "$4M"}
	]`)
	require.Len(t, got, 2)
	assert.Equal(t, "AgroSense", got[0].Name)
	require.NotNil(t, got[0].Location)
	assert.Equal(t, "Netherlands", got[0].Location.Country)
	assert.True(t, got[1].FundingSignal)
	assert.Nil(t, got[1].Location)
}

func TestParseCandidateJSON_CodeFences(t *testing.T) {
	got := parseCandidateJSON("```json\n[{\"name\": \"AgroSense\"}]\n```")
	require.Len(t, got, 1)
	assert.Equal(t, "AgroSense", got[0].Name)
}

func TestParseCandidateJSON_SurroundingProse(t *testing.T) {
	got := parseCandidateJSON(`Here are the startups you asked for:
[{"name": "AgroSense"}, {"name": "FlowBio"}]
Let me know if you need more.`)
	assert.Len(t, got, 2)
}

func TestParseCandidateJSON_SkipsMalformedElements(t *testing.T) {
	got := parseCandidateJSON(`[{"name": "AgroSense"}, "not an object", {"name": ""}, {"name": "FlowBio"}]`)
	require.Len(t, got, 2)
	assert.Equal(t, "AgroSense", got[0].Name)
	assert.Equal(t, "FlowBio", got[1].Name)
}

func TestParseCandidateJSON_NoArray(t *testing.T) {
	assert.Empty(t, parseCandidateJSON("I could not find any startups matching that focus."))
	assert.Empty(t, parseCandidateJSON(""))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, stripCodeFences("```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[{"a":1}]`, stripCodeFences("```\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[{"a":1}]`, stripCodeFences(`[{"a":1}]`))
}
