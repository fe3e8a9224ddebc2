package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *Storage) {
	t.Helper()
	storage, err := newStorage(t.TempDir(), testLogger())
	require.NoError(t, err)

	lib := newTemplateLibrary()
	server := newServer("spine2d-animation-server", "0.1.0",
		storage,
		newPSDImporter(storage, testLogger()),
		newRigger(storage, testLogger()),
		newGenerator(storage, newKeywordInterpreter(lib), newSynthesizer(lib)),
		newExporter(storage, MergeKeyType, testLogger()),
		testLogger())
	return server, storage
}

// roundTrip runs newline-delimited requests through the server and decodes
// one response per request line.
func roundTrip(t *testing.T, server *Server, requests ...string) []rpcResponse {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	require.NoError(t, server.Run(in, &out))

	var responses []rpcResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp rpcResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

// toolPayload digs the JSON payload out of a callTool response envelope.
func toolPayload(t *testing.T, resp rpcResponse) (map[string]any, bool) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var res toolResult
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Len(t, res.Content, 1)
	require.Equal(t, "text", res.Content[0].Type)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &payload))
	return payload, res.IsError
}

func TestServerListTools(t *testing.T) {
	server, _ := newTestServer(t)

	responses := roundTrip(t, server, `{"jsonrpc":"2.0","id":1,"method":"listTools"}`)
	require.Len(t, responses, 1)
	resp := responses[0]
	require.Nil(t, resp.Error)
	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, float64(1), resp.ID)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result struct {
		Tools []toolSpec `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Tools, 5)
	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{
		"import_psd", "setup_character", "generate_animation",
		"preview_animation", "export_animation",
	}, names)
}

func TestServerUnknownMethod(t *testing.T) {
	server, _ := newTestServer(t)

	responses := roundTrip(t, server, `{"jsonrpc":"2.0","id":7,"method":"shutdown"}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, rpcMethodNotFound, responses[0].Error.Code)
}

func TestServerUnknownTool(t *testing.T) {
	server, _ := newTestServer(t)

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"render_movie"}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, rpcMethodNotFound, responses[0].Error.Code)
}

func TestServerSkipsMalformedLines(t *testing.T) {
	server, _ := newTestServer(t)

	responses := roundTrip(t, server,
		`this is not json`,
		`{"jsonrpc":"2.0","id":2,"method":"listResources"}`)
	require.Len(t, responses, 1)
	assert.Equal(t, float64(2), responses[0].ID)
}

func TestServerToolErrors(t *testing.T) {
	server, _ := newTestServer(t)

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"import_psd","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"callTool","params":{"name":"setup_character","arguments":{"character_id":"char_missing"}}}`)
	require.Len(t, responses, 2)

	payload, isError := toolPayload(t, responses[0])
	assert.True(t, isError)
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["message"], "Missing file_path")

	payload, isError = toolPayload(t, responses[1])
	assert.True(t, isError)
	assert.Equal(t, KindNotFound, payload["code"])
	assert.Contains(t, payload["message"], "Character not found")
}

func TestServerPipelineFlow(t *testing.T) {
	server, storage := newTestServer(t)
	saveTestCharacter(t, storage, "char_00000000_hero")

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"callTool","params":{"name":"setup_character","arguments":{"character_id":"char_00000000_hero"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"callTool","params":{"name":"generate_animation","arguments":{"character_id":"char_00000000_hero","description":"very happy waving with sparkles"}}}`)
	require.Len(t, responses, 2)

	rigPayload, isError := toolPayload(t, responses[0])
	require.False(t, isError)
	assert.Equal(t, "success", rigPayload["status"])
	assert.Equal(t, float64(5), rigPayload["bones_count"])
	assert.Equal(t, float64(1), rigPayload["ik_constraints"])

	animPayload, isError := toolPayload(t, responses[1])
	require.False(t, isError)
	assert.Equal(t, "wave", animPayload["animation_type"])
	assert.Equal(t, "happy", animPayload["emotion"])
	animationID, _ := animPayload["animation_id"].(string)
	require.NotEmpty(t, animationID)

	// Export and preview both resolve through the stored rig.
	responses = roundTrip(t, server,
		`{"jsonrpc":"2.0","id":3,"method":"callTool","params":{"name":"export_animation","arguments":{"character_id":"char_00000000_hero","animation_id":"`+animationID+`","format":"json"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"callTool","params":{"name":"preview_animation","arguments":{"character_id":"char_00000000_hero","animation_id":"`+animationID+`"}}}`)
	require.Len(t, responses, 2)

	exportPayload, isError := toolPayload(t, responses[0])
	require.False(t, isError)
	assert.Equal(t, "wave", exportPayload["animation_name"])
	url, _ := exportPayload["export_url"].(string)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "wave.json"))

	previewPayload, isError := toolPayload(t, responses[1])
	require.False(t, isError)
	previewURL, _ := previewPayload["preview_url"].(string)
	assert.True(t, strings.HasPrefix(previewURL, "file://"))
}

func TestServerResources(t *testing.T) {
	server, storage := newTestServer(t)
	saveTestCharacter(t, storage, "char_00000000_hero")

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":1,"method":"listResources"}`,
		`{"jsonrpc":"2.0","id":2,"method":"readResource","params":{"uri":"spine2d://characters"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"readResource","params":{"uri":"spine2d://nope"}}`)
	require.Len(t, responses, 3)

	raw, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	var listed struct {
		Resources []resourceSpec `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed.Resources, 3)
	assert.Equal(t, "spine2d://characters", listed.Resources[0].URI)

	raw, err = json.Marshal(responses[1].Result)
	require.NoError(t, err)
	var read struct {
		Contents []resourceContent `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(raw, &read))
	require.Len(t, read.Contents, 1)
	var characters []CharacterSummary
	require.NoError(t, json.Unmarshal([]byte(read.Contents[0].Text), &characters))
	require.Len(t, characters, 1)
	assert.Equal(t, "char_00000000_hero", characters[0].ID)
	assert.Equal(t, "hero", characters[0].Name)

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, rpcInvalidRequest, responses[2].Error.Code)
}
