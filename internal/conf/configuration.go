package conf

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultAPIVersion = "v20.0"

// APIConfiguration holds all the HTTP listener settings.
type APIConfiguration struct {
	Host            string
	Port            string `envconfig:"PORT" default:"3000"`
	RequestIDHeader string `envconfig:"REQUEST_ID_HEADER"`

	// PublicURL, when set, is used verbatim as the externally reachable
	// base URL and bypasses tunnel provisioning.
	PublicURL string `json:"public_url" envconfig:"PUBLIC_URL"`

	// StaticDir is the directory served under /static and probed for a
	// landing page.
	StaticDir string `json:"static_dir" split_words:"true" default:"static"`
}

// MetaConfiguration holds the Meta app identity and Graph API settings.
type MetaConfiguration struct {
	ClientID     string `json:"client_id" split_words:"true" required:"true"`
	ClientSecret string `json:"client_secret" split_words:"true" required:"true"`
	APIVersion   string `json:"api_version" envconfig:"API_VERSION"`

	// SignupConfigID identifies the Embedded Signup configuration. Only
	// required for the embedded signup flow, so presence is checked at
	// request time rather than at startup.
	SignupConfigID string `json:"signup_config_id" envconfig:"SIGNUP_CONFIG_ID"`

	// URL overrides the Graph API / dialog hosts. Used in tests.
	URL string `json:"url"`
}

// TunnelConfiguration controls public-URL provisioning through the ngrok
// agent when no fixed public URL is configured.
type TunnelConfiguration struct {
	Enabled   bool   `json:"enabled" default:"true"`
	Authtoken string `json:"authtoken"`
}

// TestConfiguration carries optional credentials used only to prefill the
// message test form. They are never required.
type TestConfiguration struct {
	PhoneNumberID string `json:"phone_number_id" split_words:"true"`
	AccessToken   string `json:"access_token" split_words:"true"`
}

type LoggingConfig struct {
	Level string `default:"info"`
	File  string
}

// GlobalConfiguration holds all the configuration that applies to the whole
// process.
type GlobalConfiguration struct {
	API     APIConfiguration
	Meta    MetaConfiguration
	Tunnel  TunnelConfiguration
	Test    TestConfiguration
	Logging LoggingConfig `envconfig:"LOG"`
}

func loadEnvironment(filename string) error {
	var err error
	if filename != "" {
		err = godotenv.Overload(filename)
	} else {
		err = godotenv.Load()
		// handle if .env file does not exist, this is OK
		if os.IsNotExist(err) {
			return nil
		}
	}
	return err
}

// LoadGlobal loads configuration from file and environment variables.
func LoadGlobal(filename string) (*GlobalConfiguration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, err
	}

	config := new(GlobalConfiguration)
	if err := envconfig.Process("signup", config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	return config, nil
}

// ApplyDefaults sets defaults for a GlobalConfiguration
func (config *GlobalConfiguration) ApplyDefaults() {
	if config.Meta.APIVersion == "" {
		config.Meta.APIVersion = defaultAPIVersion
	}
}
