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

const (
	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// Config declares one run-event sink.
//
//	publishers:
//	  - id: ops-hook
//	    type: http
//	    http:
//	      url: https://hooks.example.com/market-brief
//	      headers:
//	        Authorization: Bearer ${HOOK_TOKEN}
//	  - id: runs
//	    type: queue
//	    queue:
//	      provider: aws-sqs
//	      aws: {uri: ..., region: ..., access_key_id: ..., secret_access_key: ...}
type Config struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Queue   *QueueConfig   `json:"queue" yaml:"queue"`
	HTTP    *WebhookConfig `json:"http" yaml:"http"`
}

// QueueConfig selects a cloud queue provider and carries its settings.
type QueueConfig struct {
	Provider string        `json:"provider" yaml:"provider"`
	AWS      *SQSConfig    `json:"aws" yaml:"aws"`
	SNS      *SNSConfig    `json:"sns" yaml:"sns"`
	GCP      *PubSubConfig `json:"gcp" yaml:"gcp"`
}

// SQSConfig addresses an SQS queue with static credentials.
type SQSConfig struct {
	QueueURL        string `json:"uri" yaml:"uri"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SNSConfig addresses an SNS topic with static credentials.
type SNSConfig struct {
	TopicARN        string `json:"topic_arn" yaml:"topic_arn"`
	Region          string `json:"region" yaml:"region"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// PubSubConfig addresses a Pub/Sub topic. An empty CredentialsFile uses
// application default credentials.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// WebhookConfig describes an HTTP endpoint that receives run events as JSON.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled defaults to true when the flag is omitted.
func (c Config) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// LoadConfigs reads sink definitions from a YAML or JSON file after expanding
// ${VAR} references, so secrets can stay in the environment.
func LoadConfigs(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return ParseConfigs([]byte(os.ExpandEnv(string(raw))), filepath.Ext(path))
}

// ParseConfigs decodes, normalizes and checks sink definitions. Order is kept
// and ids must be unique.
func ParseConfigs(data []byte, ext string) ([]Config, error) {
	var doc struct {
		Publishers []Config `json:"publishers" yaml:"publishers"`
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case "", ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported publishers file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file: %w", err)
	}
	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file declares no publishers")
	}

	ids := make(map[string]bool, len(doc.Publishers))
	for i := range doc.Publishers {
		c := &doc.Publishers[i]
		c.normalize()
		if err := c.check(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if ids[c.ID] {
			return nil, fmt.Errorf("duplicate publisher id %q", c.ID)
		}
		ids[c.ID] = true
	}
	return doc.Publishers, nil
}

// Enabled drops disabled sinks.
func Enabled(cfgs []Config) []Config {
	var out []Config
	for _, c := range cfgs {
		if c.IsEnabled() {
			out = append(out, c)
		}
	}
	return out
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// missing names the first empty field as prefix.name.
func missing(prefix string, fields map[string]string, order ...string) error {
	for _, name := range order {
		if fields[name] == "" {
			return fmt.Errorf("%s.%s is required", prefix, name)
		}
	}
	return nil
}

func (c *Config) normalize() {
	trimAll(&c.ID, &c.Type)
	c.Type = strings.ToLower(c.Type)
	if c.Queue != nil {
		c.Queue.normalize()
	}
	if c.HTTP != nil {
		c.HTTP.normalize()
	}
}

func (c *Config) check() error {
	if c.ID == "" {
		return errors.New("id is required")
	}

	var err error
	switch c.Type {
	case TypeHTTP:
		var url string
		if c.HTTP != nil {
			url = c.HTTP.URL
		}
		err = missing("http", map[string]string{"url": url}, "url")
	case TypeQueue:
		if c.Queue == nil {
			err = errors.New("queue section is required")
		} else {
			err = c.Queue.check()
		}
	case "":
		err = errors.New("type is required")
	default:
		err = fmt.Errorf("type %q not supported", c.Type)
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", c.ID, err)
	}
	return nil
}

func (q *QueueConfig) normalize() {
	q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
	if a := q.AWS; a != nil {
		trimAll(&a.QueueURL, &a.Region, &a.AccessKeyID, &a.SecretAccessKey)
	}
	if s := q.SNS; s != nil {
		trimAll(&s.TopicARN, &s.Region, &s.AccessKeyID, &s.SecretAccessKey)
	}
	if g := q.GCP; g != nil {
		trimAll(&g.ProjectID, &g.Topic, &g.CredentialsFile)
	}
}

func (q *QueueConfig) check() error {
	switch q.Provider {
	case QueueProviderAWSSQS:
		if q.AWS == nil {
			return errors.New("aws section is required")
		}
		return missing("aws", map[string]string{
			"uri":               q.AWS.QueueURL,
			"region":            q.AWS.Region,
			"access_key_id":     q.AWS.AccessKeyID,
			"secret_access_key": q.AWS.SecretAccessKey,
		}, "uri", "region", "access_key_id", "secret_access_key")
	case QueueProviderAWSSNS:
		if q.SNS == nil {
			return errors.New("sns section is required")
		}
		return missing("sns", map[string]string{
			"topic_arn":         q.SNS.TopicARN,
			"region":            q.SNS.Region,
			"access_key_id":     q.SNS.AccessKeyID,
			"secret_access_key": q.SNS.SecretAccessKey,
		}, "topic_arn", "region", "access_key_id", "secret_access_key")
	case QueueProviderGCP:
		if q.GCP == nil {
			return errors.New("gcp section is required")
		}
		return missing("gcp", map[string]string{
			"project_id": q.GCP.ProjectID,
			"topic":      q.GCP.Topic,
		}, "project_id", "topic")
	case "":
		return errors.New("queue.provider is required")
	default:
		return fmt.Errorf("queue provider %q not supported", q.Provider)
	}
}

func (w *WebhookConfig) normalize() {
	trimAll(&w.URL, &w.Method)
	w.Method = strings.ToUpper(w.Method)
	if w.Method == "" {
		w.Method = httpDefaultMethod
	}
	if w.TimeoutSeconds <= 0 {
		w.TimeoutSeconds = httpDefaultTimeoutSeconds
	}

	headers := make(map[string]string, len(w.Headers))
	for k, v := range w.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	w.Headers = nil
	if len(headers) > 0 {
		w.Headers = headers
	}
}
