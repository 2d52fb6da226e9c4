package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/goccy/go-yaml"
)

const (
	DefaultCycleMin     = 4000 * time.Millisecond
	DefaultCycleMax     = 6000 * time.Millisecond
	DefaultPollInterval = 1 * time.Millisecond
	DefaultHookTimeout  = 5 * time.Second
	DefaultListenAddr   = ":8080"
	DefaultLightName    = "trafficlight"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Light     *LightConfig     `yaml:"light"`
	Responder *ResponderConfig `yaml:"responder"`
	Hooks     []*HookConfig    `yaml:"hooks"`
}

type LightConfig struct {
	Name         string        `yaml:"name"`
	CycleMin     time.Duration `yaml:"cycle_min"`
	CycleMax     time.Duration `yaml:"cycle_max"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type ResponderConfig struct {
	Addr string `yaml:"addr"`
}

type HookConfig struct {
	Name    string        `yaml:"name"`
	Run     string        `yaml:"run"`
	Phase   *Phase        `yaml:"phase"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *LightConfig) setDefaults() {
	if c.Name == "" {
		c.Name = DefaultLightName
	}
	if c.CycleMin == 0 {
		c.CycleMin = DefaultCycleMin
	}
	if c.CycleMax == 0 {
		c.CycleMax = DefaultCycleMax
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

func (c *LightConfig) Validate() error {
	if c.CycleMin <= 0 {
		return fmt.Errorf("%w: light.cycle_min must be positive: %s", ErrInvalidConfig, c.CycleMin)
	}
	if c.CycleMax < c.CycleMin {
		return fmt.Errorf("%w: light.cycle_max %s is less than cycle_min %s", ErrInvalidConfig, c.CycleMax, c.CycleMin)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: light.poll_interval must be positive: %s", ErrInvalidConfig, c.PollInterval)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Light.Validate(); err != nil {
		return err
	}
	for i, h := range c.Hooks {
		if strings.TrimSpace(h.Run) == "" {
			return fmt.Errorf("%w: hooks[%d] %s has no run command", ErrInvalidConfig, i, h.Name)
		}
	}
	return nil
}

func newDefaultConfig() *Config {
	return &Config{
		Light: &LightConfig{},
		Responder: &ResponderConfig{
			Addr: DefaultListenAddr,
		},
	}
}

// LoadConfig reads the config from src, which is a file path, a file://,
// http(s):// or s3:// URL. An empty src yields the defaults.
func LoadConfig(ctx context.Context, src string) (*Config, error) {
	config := newDefaultConfig()
	if src != "" {
		b, err := loadURL(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", src, err)
		}
		if err = yaml.Unmarshal(b, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", src, err)
		}
	}
	if config.Light == nil {
		config.Light = &LightConfig{}
	}
	if config.Responder == nil {
		config.Responder = &ResponderConfig{}
	}
	config.Light.setDefaults()
	for i, h := range config.Hooks {
		if h.Name == "" {
			h.Name = fmt.Sprintf("hook%d", i)
		}
		if h.Timeout == 0 {
			h.Timeout = DefaultHookTimeout
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadURL(ctx context.Context, s string) ([]byte, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", s, err)
	}
	switch u.Scheme {
	case "http", "https":
		return loadHTTP(ctx, u)
	case "file", "": // empty scheme is treated as file
		return os.ReadFile(u.Path)
	case "s3":
		return loadS3(ctx, u)
	default:
		return nil, fmt.Errorf("invalid url %s: scheme must be http, https, file, or s3", s)
	}
}

func loadHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http get failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func loadS3(ctx context.Context, u *url.URL) ([]byte, error) {
	awscfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(awscfg)
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	out, err := svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
