// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	API             API             `yaml:"api"`
	Session         Session         `yaml:"session"`
	CredentialStore CredentialStore `yaml:"credentialStore"`
}

// API locates the back-office REST surface the gateway talks to.
type API struct {
	BaseURL        string        `yaml:"baseURL"`
	RequestTimeout time.Duration `yaml:"requestTimeout" default:"15s"`

	LoginPath   string `yaml:"loginPath" default:"/api/auth/login"`
	ProfilePath string `yaml:"profilePath" default:"/api/auth/profile"`
	LogoutPath  string `yaml:"logoutPath" default:"/api/auth/logout"`

	// ProfileCacheTTL bounds the gateway's local response cache. The
	// cache is flushed on logout regardless.
	ProfileCacheTTL time.Duration `yaml:"profileCacheTTL" default:"30s"`
}

// Session tunes the lifecycle manager.
type Session struct {
	// ValidityWindow is the assumed token lifetime, used only when the
	// token itself carries no readable expiry claim.
	ValidityWindow time.Duration `yaml:"validityWindow" default:"72h"`

	// RefreshSafety is how long before assumed expiry the refresh fires.
	RefreshSafety time.Duration `yaml:"refreshSafety" default:"5m"`

	// BootstrapGrace is how long the route guard shows a loading
	// placeholder while the stored credential is being validated.
	BootstrapGrace time.Duration `yaml:"bootstrapGrace" default:"2s"`

	LoginSurface   string `yaml:"loginSurface" default:"/admin/login"`
	DefaultLanding string `yaml:"defaultLanding" default:"/admin"`
}

// CredentialStore selects where the bearer token and the cached profile
// snapshot are persisted between runs.
type CredentialStore struct {
	// Backend is either "file" or "valkey".
	Backend string `yaml:"backend" default:"file"`

	// Path is the state directory for the file backend. Empty means
	// $HOME/.console-session/state.
	Path string `yaml:"path"`

	ValKey ValKey `yaml:"valkey"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"console-session"`
}
