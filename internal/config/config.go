// Package config loads the GoHighLevel integration configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. Environment variables always win, which keeps
// container deployments (Railway, systemd units with Environment=) simple.
//
// The OAuth client credentials are the only required settings. Everything
// else has a sensible default for the hosted GoHighLevel endpoints.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// Default endpoints for the hosted GoHighLevel platform.
const (
	// DefaultAuthURL is the hosted authorization page (location chooser).
	DefaultAuthURL = "https://marketplace.gohighlevel.com/oauth/chooselocation"

	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://services.leadconnectorhq.com/oauth/token"

	// DefaultAPIBaseURL is the REST API base URL.
	DefaultAPIBaseURL = "https://services.leadconnectorhq.com"

	// DefaultTokenFile is where the exchanged credential is persisted.
	DefaultTokenFile = ".token.json"
)

// DefaultScopes is the scope set requested during authorization. It covers
// every resource family the bundled tools touch.
var DefaultScopes = []string{
	"contacts.readonly",
	"contacts.write",
	"conversations.readonly",
	"conversations.write",
	"conversations/message.readonly",
	"conversations/message.write",
	"locations.readonly",
	"opportunities.readonly",
	"opportunities.write",
	"calendars.readonly",
	"calendars.write",
	"calendars/events.readonly",
	"calendars/events.write",
	"forms.readonly",
	"forms.write",
}

// Config holds all settings for the MCP server and the authorization flow.
type Config struct {
	// ClientID is the OAuth2 client ID of the marketplace app. Required.
	ClientID string `yaml:"clientId"`

	// ClientSecret is the OAuth2 client secret. Required.
	ClientSecret string `yaml:"clientSecret"`

	// RedirectURI is the callback URL registered with the marketplace app.
	// It must match the authorization URL byte-for-byte. Required.
	RedirectURI string `yaml:"redirectUri"`

	// Scopes requested during authorization. Defaults to DefaultScopes.
	Scopes []string `yaml:"scopes"`

	// AuthURL is the hosted authorization page.
	AuthURL string `yaml:"authUrl"`

	// TokenURL is the OAuth2 token endpoint.
	TokenURL string `yaml:"tokenUrl"`

	// APIBaseURL is the REST API base URL.
	APIBaseURL string `yaml:"apiBaseUrl"`

	// TokenFile is the path of the persisted credential file.
	TokenFile string `yaml:"tokenFile"`

	// Host is the listen host for both the MCP server and the auth server.
	Host string `yaml:"host"`

	// Port is the listen port for the MCP server.
	Port int `yaml:"port"`

	// AuthPort is the listen port for the authorization web flow.
	AuthPort int `yaml:"authPort"`
}

// Environment variable names understood by Load.
const (
	EnvClientID     = "GHL_CLIENT_ID"
	EnvClientSecret = "GHL_CLIENT_SECRET"
	EnvRedirectURI  = "GHL_REDIRECT_URI"
	EnvScopes       = "GHL_SCOPES"
	EnvAuthURL      = "GHL_AUTH_URL"
	EnvTokenURL     = "GHL_TOKEN_URL"
	EnvAPIBaseURL   = "GHL_API_BASE_URL"
	EnvTokenFile    = "GHL_TOKEN_FILE"
	EnvHost         = "GHL_HOST"
	EnvPort         = "GHL_PORT"
	EnvAuthPort     = "GHL_AUTH_PORT"
)

// Default creates a Config populated with built-in defaults only.
func Default() *Config {
	return &Config{
		Scopes:     append([]string(nil), DefaultScopes...),
		AuthURL:    DefaultAuthURL,
		TokenURL:   DefaultTokenURL,
		APIBaseURL: DefaultAPIBaseURL,
		TokenFile:  DefaultTokenFile,
		Host:       "0.0.0.0",
		Port:       8000,
		AuthPort:   8080,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it. An empty path means "config.yaml if
// it exists"; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; env vars may carry everything.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the process environment.
func (c *Config) applyEnv() {
	setString(&c.ClientID, EnvClientID)
	setString(&c.ClientSecret, EnvClientSecret)
	setString(&c.RedirectURI, EnvRedirectURI)
	setString(&c.AuthURL, EnvAuthURL)
	setString(&c.TokenURL, EnvTokenURL)
	setString(&c.APIBaseURL, EnvAPIBaseURL)
	setString(&c.TokenFile, EnvTokenFile)
	setString(&c.Host, EnvHost)
	setInt(&c.Port, EnvPort)
	setInt(&c.AuthPort, EnvAuthPort)

	if v := os.Getenv(EnvScopes); v != "" {
		c.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
}

// Validate checks that the configuration is complete enough to start.
// Missing OAuth client credentials are the only fatal condition; a missing
// token file just means the interactive flow has not been run yet.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if c.RedirectURI == "" {
		missing = append(missing, EnvRedirectURI)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// OAuth2 returns the x/oauth2 client configuration derived from this config.
// GoHighLevel expects the client credentials in the POST body, not in a
// basic auth header.
func (c *Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       append([]string(nil), c.Scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
