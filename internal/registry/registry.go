package registry

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/urlmon/urlmon/internal/config"
	"github.com/urlmon/urlmon/internal/domain"
)

// Registry is the fixed set of monitored targets, built once at startup.
// Lookups are by name; iteration preserves configuration order. The set
// never changes while the process runs.
type Registry struct {
	targets []domain.Target
	byName  map[string]domain.Target
}

// Load builds a registry from the configured url entries. Duplicate names
// and malformed URLs are fatal: the caller gets a *domain.ConfigError and
// must not start monitoring.
func Load(urls []config.URLConfig) (*Registry, error) {
	if len(urls) == 0 {
		return nil, &domain.ConfigError{Field: "urls", Reason: "at least one url is required"}
	}

	r := &Registry{byName: make(map[string]domain.Target, len(urls))}
	for i, uc := range urls {
		field := fmt.Sprintf("urls[%d]", i)

		name := strings.TrimSpace(uc.Name)
		if name == "" {
			return nil, domain.NewConfigError(field+".name", "name is required")
		}
		if _, dup := r.byName[name]; dup {
			return nil, domain.NewConfigError(field+".name", "duplicate target name %q", name)
		}
		if err := checkURL(uc.URL); err != nil {
			return nil, domain.NewConfigError(field+".url", "%v", err)
		}

		t := domain.Target{Name: name, URL: uc.URL}
		r.byName[name] = t
		r.targets = append(r.targets, t)
	}
	return r, nil
}

func checkURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// List returns the targets in configuration order. The slice is a copy.
func (r *Registry) List() []domain.Target {
	out := make([]domain.Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Get looks a target up by name. Unknown names return domain.ErrNotFound.
func (r *Registry) Get(name string) (domain.Target, error) {
	t, ok := r.byName[name]
	if !ok {
		return domain.Target{}, domain.ErrNotFound
	}
	return t, nil
}

func (r *Registry) Len() int { return len(r.targets) }
