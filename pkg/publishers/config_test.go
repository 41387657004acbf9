package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileYAMLExpandsEnv(t *testing.T) {
	t.Setenv("HOOK_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "publishers.yaml")
	content := `
publishers:
  - id: hook
    type: HTTP
    http:
      url: " https://example.test/hook "
      headers:
        Authorization: "Bearer ${HOOK_TOKEN}"
        "": ignored
  - id: queue
    type: aws-sqs
    enabled: false
    sqs:
      region: eu-west-1
      queue_url: https://sqs.example.test/123/records
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfgs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	hook := cfgs[0]
	assert.Equal(t, TypeHTTP, hook.Type)
	assert.Equal(t, "https://example.test/hook", hook.HTTP.URL)
	assert.Equal(t, "POST", hook.HTTP.Method)
	assert.Equal(t, httpDefaultTimeout, hook.HTTP.TimeoutSeconds)
	assert.Equal(t, map[string]string{"Authorization": "Bearer s3cret"}, hook.HTTP.Headers)
	assert.True(t, hook.IsEnabled())

	assert.Equal(t, "eu-west-1", cfgs[1].SQS.Region)
	assert.False(t, cfgs[1].IsEnabled())
	assert.Len(t, Enabled(cfgs), 1)
}

func TestParseJSON(t *testing.T) {
	data := `{"publishers":[{"id":"ps","type":"gcp-pubsub","pubsub":{"project_id":"p","topic":"records"}}]}`
	cfgs, err := Parse([]byte(data), ".json")
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	assert.Equal(t, "records", cfgs[0].PubSub.Topic)
}

func TestParseJSONInlineCredentials(t *testing.T) {
	data := `{"publishers":[{"id":"t","type":"aws-sns","sns":{"region":"us-east-1","topic_arn":"arn:aws:sns:us-east-1:1:t","access_key_id":"a","secret_access_key":"b"}}]}`
	cfgs, err := Parse([]byte(data), "")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfgs[0].SNS.Region)
	assert.Equal(t, "a", cfgs[0].SNS.AccessKeyID)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":        `publishers: []`,
		"missing id":   "publishers:\n  - type: http\n    http: {url: x}\n",
		"missing url":  "publishers:\n  - id: a\n    type: http\n",
		"unknown type": "publishers:\n  - id: a\n    type: carrier-pigeon\n",
		"duplicate":    "publishers:\n  - {id: a, type: http, http: {url: x}}\n  - {id: a, type: http, http: {url: y}}\n",
		"half keys":    "publishers:\n  - {id: a, type: aws-sqs, sqs: {region: r, queue_url: q, access_key_id: k}}\n",
		"no region":    "publishers:\n  - {id: a, type: aws-sns, sns: {topic_arn: t}}\n",
		"no topic":     "publishers:\n  - {id: a, type: gcp-pubsub, pubsub: {project_id: p}}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body), ".yaml")
			assert.Error(t, err)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("  ")
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("publishers: []"), ".toml")
	assert.Error(t, err)
}
