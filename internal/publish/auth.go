package publish

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	appcfg "github.com/mskaar/nbpress/internal/config"
)

// authMethod maps publish auth configuration to a go-git transport method.
// A nil config means unauthenticated (local remotes, credential helpers).
func authMethod(cfg *appcfg.AuthConfig) (transport.AuthMethod, error) {
	if cfg == nil {
		return nil, nil
	}
	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires a token")
		}
		username := cfg.Username
		if username == "" {
			username = "git" // forges ignore the username for token auth
		}
		return &http.BasicAuth{Username: username, Password: cfg.Token}, nil
	case "basic":
		if cfg.Username == "" || cfg.Password == "" {
			return nil, fmt.Errorf("basic auth requires username and password")
		}
		return &http.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil
	case "ssh":
		if cfg.KeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires key_path")
		}
		keys, err := gitssh.NewPublicKeysFromFile("git", cfg.KeyPath, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key %s: %w", cfg.KeyPath, err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Type)
	}
}
