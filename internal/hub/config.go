package hub

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingCredentials = errors.New("hub credentials not configured")
	ErrInvalidConfig      = errors.New("invalid hub configuration")
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config holds the login credentials and navigation timings.
type Config struct {
	Email    string `env:"FFH_EMAIL"`
	Password string `env:"FFH_PASSWORD"`

	BaseURL         string `env:"HUB_BASE_URL" envDefault:"https://www.fantasyfootballhub.co.uk"`
	TargetPath      string `env:"HUB_TARGET_PATH" envDefault:"/team-reveals/mj6987"`
	LoginURLPattern string `env:"HUB_LOGIN_URL_PATTERN" envDefault:"**/u/login**"`

	Headless      bool   `env:"HUB_HEADLESS" envDefault:"true"`
	BrowserPath   string `env:"HUB_BROWSER_PATH"`
	InstallDriver bool   `env:"HUB_INSTALL_DRIVER" envDefault:"false"`
	Stealth       bool   `env:"HUB_STEALTH" envDefault:"true"`
	UserAgent     string `env:"HUB_USER_AGENT"`

	StepTimeout  time.Duration `env:"HUB_STEP_TIMEOUT" envDefault:"15s"`
	ConsentWait  time.Duration `env:"HUB_CONSENT_WAIT" envDefault:"5s"`
	FormSettle   time.Duration `env:"HUB_FORM_SETTLE" envDefault:"2s"`
	RenderSettle time.Duration `env:"HUB_RENDER_SETTLE" envDefault:"3s"`

	ViewportWidth  int `env:"HUB_VIEWPORT_WIDTH" envDefault:"1920"`
	ViewportHeight int `env:"HUB_VIEWPORT_HEIGHT" envDefault:"1080"`
}

// DefaultConfig returns the settings for the live site, without credentials.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://www.fantasyfootballhub.co.uk",
		TargetPath:      "/team-reveals/mj6987",
		LoginURLPattern: "**/u/login**",
		Headless:        true,
		Stealth:         true,
		StepTimeout:     15 * time.Second,
		ConsentWait:     5 * time.Second,
		FormSettle:      2 * time.Second,
		RenderSettle:    3 * time.Second,
		ViewportWidth:   1920,
		ViewportHeight:  1080,
	}
}

// Validate checks that the fetch can run.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: set FFH_EMAIL and FFH_PASSWORD", ErrMissingCredentials)
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base URL is empty", ErrInvalidConfig)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("%w: step timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// HomeURL is the page the site redirects to after a successful login.
func (c Config) HomeURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/"
}

// TargetURL is the listing page holding the article previews.
func (c Config) TargetURL() string {
	path := c.TargetPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}
