package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/concrnt-inscriber"
	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/schemas"
)

const (
	DefaultMusicBrainzEndpoint  = "https://musicbrainz.org/ws/2"
	DefaultMusicBrainzUserAgent = "tealtracker/0.0.1"
	defaultListenAddr           = ":8000"
	defaultLookupTimeout        = 5 * time.Second
	defaultCacheTTL             = 24 * time.Hour
)

type Config struct {
	NodeInfo    NodeInfo    `yaml:"nodeInfo"`
	Server      Server      `yaml:"server"`
	Inscriber   Inscriber   `yaml:"inscriber"`
	MusicBrainz MusicBrainz `yaml:"musicbrainz"`
}

type NodeInfo struct {
	FQDN       string `yaml:"fqdn"`
	PrivateKey string `yaml:"privatekey"`
	Layer      string `yaml:"layer"`

	// ---
	CSID string `yaml:"-"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"` // debug, info, warn, error
}

type Inscriber struct {
	Collection string `yaml:"collection"`
}

type MusicBrainz struct {
	Endpoint  string  `yaml:"endpoint"`
	UserAgent string  `yaml:"userAgent"`
	Timeout   string  `yaml:"timeout"`
	RateLimit float64 `yaml:"rateLimit"` // requests per second, 0 disables limiting
	Burst     int     `yaml:"burst"`
	CacheTTL  string  `yaml:"cacheTTL"`

	// ---
	LookupTimeout time.Duration `yaml:"-"`
	CacheDuration time.Duration `yaml:"-"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Config{
		MusicBrainz: MusicBrainz{
			RateLimit: 1,
			Burst:     5,
		},
	}
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := config.normalize(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) normalize() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Inscriber.Collection == "" {
		c.Inscriber.Collection = schemas.PlayCollection
	}

	mb := &c.MusicBrainz
	mb.Endpoint = strings.TrimSuffix(mb.Endpoint, "/")
	if mb.Endpoint == "" {
		mb.Endpoint = DefaultMusicBrainzEndpoint
	}
	if mb.UserAgent == "" {
		mb.UserAgent = DefaultMusicBrainzUserAgent
	}
	if mb.RateLimit < 0 {
		return fmt.Errorf("musicbrainz.rateLimit must not be negative")
	}
	if mb.Burst <= 0 {
		mb.Burst = 1
	}

	var err error
	mb.LookupTimeout, err = parseDuration(mb.Timeout, defaultLookupTimeout)
	if err != nil {
		return fmt.Errorf("musicbrainz.timeout: %w", err)
	}
	mb.CacheDuration, err = parseDuration(mb.CacheTTL, defaultCacheTTL)
	if err != nil {
		return fmt.Errorf("musicbrainz.cacheTTL: %w", err)
	}

	if c.NodeInfo.PrivateKey != "" {
		csid, err := concrnt.PrivKeyToAddr(c.NodeInfo.PrivateKey, "ccs")
		if err != nil {
			return fmt.Errorf("nodeInfo.privatekey: %w", err)
		}
		c.NodeInfo.CSID = csid
	}

	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		return fmt.Errorf("server.traceEndpoint is required when tracing is enabled")
	}

	return nil
}

// Domain returns the node information used at runtime.
func (c Config) Domain() domain.Config {
	return domain.Config{
		FQDN:       c.NodeInfo.FQDN,
		PrivateKey: c.NodeInfo.PrivateKey,
		Layer:      c.NodeInfo.Layer,
		CSID:       c.NodeInfo.CSID,
	}
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}
	return d, nil
}
