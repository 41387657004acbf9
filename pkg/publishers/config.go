package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported sink types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "aws-sqs"
	TypeSNS    = "aws-sns"
	TypePubSub = "gcp-pubsub"
)

const (
	httpDefaultMethod  = "POST"
	httpDefaultTimeout = 5
)

// File is the on-disk layout of the publishers file.
type File struct {
	Publishers []SinkConfig `json:"publishers" yaml:"publishers"`
}

// SinkConfig declares one publisher. Exactly one of the typed blocks must be
// set and it must match Type.
type SinkConfig struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials are optional static keys. When empty the default AWS
// credential chain is used.
type AWSCredentials struct {
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSConfig targets an SQS queue.
type SQSConfig struct {
	AWSCredentials `json:",inline" yaml:",inline"`
	QueueURL       string `json:"queue_url" yaml:"queue_url"`
	// MessageGroupID is required for FIFO queues.
	MessageGroupID string `json:"message_group_id" yaml:"message_group_id"`
}

// SNSConfig targets an SNS topic.
type SNSConfig struct {
	AWSCredentials `json:",inline" yaml:",inline"`
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
}

// PubSubConfig targets a Google Cloud Pub/Sub topic.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPConfig posts events as JSON to a webhook.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled defaults to true when the flag is omitted.
func (c SinkConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoadFile reads a YAML or JSON publishers file. ${VAR} references are
// expanded from the environment before decoding.
func LoadFile(path string) ([]SinkConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
}

// Parse decodes publishers content. ext selects the decoder; an empty ext
// tries YAML then JSON.
func Parse(data []byte, ext string) ([]SinkConfig, error) {
	var (
		f   File
		err error
	)
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	case "":
		if err = yaml.Unmarshal(data, &f); err != nil {
			err = json.Unmarshal(data, &f)
		}
	default:
		return nil, fmt.Errorf("publishers file extension %q not supported", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(f.Publishers) == 0 {
		return nil, errors.New("publishers file contains no entries")
	}

	seen := make(map[string]struct{}, len(f.Publishers))
	out := make([]SinkConfig, 0, len(f.Publishers))
	for i, cfg := range f.Publishers {
		cfg = normalize(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

// Enabled filters out disabled sinks.
func Enabled(cfgs []SinkConfig) []SinkConfig {
	out := make([]SinkConfig, 0, len(cfgs))
	for _, c := range cfgs {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

func normalize(cfg SinkConfig) SinkConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.HTTP != nil {
		h := *cfg.HTTP
		h.URL = strings.TrimSpace(h.URL)
		h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
		if h.Method == "" {
			h.Method = httpDefaultMethod
		}
		if h.TimeoutSeconds <= 0 {
			h.TimeoutSeconds = httpDefaultTimeout
		}
		h.Headers = trimHeaders(h.Headers)
		cfg.HTTP = &h
	}
	if cfg.SQS != nil {
		s := *cfg.SQS
		s.AWSCredentials = s.AWSCredentials.trimmed()
		s.QueueURL = strings.TrimSpace(s.QueueURL)
		s.MessageGroupID = strings.TrimSpace(s.MessageGroupID)
		cfg.SQS = &s
	}
	if cfg.SNS != nil {
		s := *cfg.SNS
		s.AWSCredentials = s.AWSCredentials.trimmed()
		s.TopicARN = strings.TrimSpace(s.TopicARN)
		cfg.SNS = &s
	}
	if cfg.PubSub != nil {
		p := *cfg.PubSub
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		cfg.PubSub = &p
	}
	return cfg
}

func (c AWSCredentials) trimmed() AWSCredentials {
	return AWSCredentials{
		Region:          strings.TrimSpace(c.Region),
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
	}
}

func (c AWSCredentials) validate(id, block string) error {
	if c.Region == "" {
		return fmt.Errorf("%s.region is required for publisher %q", block, id)
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key must be set together for publisher %q", block, block, id)
	}
	return nil
}

func trimHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate checks that the block for Type is present and complete.
func (c SinkConfig) Validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	switch c.Type {
	case "":
		return fmt.Errorf("type is required for publisher %q", c.ID)
	case TypeHTTP:
		if c.HTTP == nil || c.HTTP.URL == "" {
			return fmt.Errorf("http.url is required for publisher %q", c.ID)
		}
	case TypeSQS:
		if c.SQS == nil || c.SQS.QueueURL == "" {
			return fmt.Errorf("sqs.queue_url is required for publisher %q", c.ID)
		}
		return c.SQS.validate(c.ID, "sqs")
	case TypeSNS:
		if c.SNS == nil || c.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for publisher %q", c.ID)
		}
		return c.SNS.validate(c.ID, "sns")
	case TypePubSub:
		if c.PubSub == nil || c.PubSub.ProjectID == "" {
			return fmt.Errorf("pubsub.project_id is required for publisher %q", c.ID)
		}
		if c.PubSub.Topic == "" {
			return fmt.Errorf("pubsub.topic is required for publisher %q", c.ID)
		}
	default:
		return fmt.Errorf("type %q not supported for publisher %q", c.Type, c.ID)
	}
	return nil
}
