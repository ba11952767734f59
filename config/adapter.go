package config

import (
	"fmt"
	"strings"

	validator "github.com/asaskevich/govalidator"
	"github.com/blang/semver"
)

type Adapter struct {
	// Endpoint is the exchange's base URL. Scheme-relative endpoints are called over https.
	Endpoint string `mapstructure:"endpoint"`
	// Lib and Version identify the integration to the exchange on every request.
	Lib      string `mapstructure:"lib"`
	Version  string `mapstructure:"version"`
	Disabled bool   `mapstructure:"disabled"`
	// FlashEnabled is the precomputed answer to the client capability probe.
	FlashEnabled bool `mapstructure:"flash_enabled"`
}

// RequestURL returns the endpoint with a scheme, for use by an HTTP client.
func (a Adapter) RequestURL() string {
	if strings.HasPrefix(a.Endpoint, "//") {
		return "https:" + a.Endpoint
	}
	return a.Endpoint
}

func normalizeAdapterKeys(adapters map[string]Adapter) map[string]Adapter {
	normalized := make(map[string]Adapter, len(adapters))
	for name, adapter := range adapters {
		normalized[strings.ToLower(name)] = adapter
	}
	return normalized
}

func validateAdapters(adapterMap map[string]Adapter, errs configErrors) configErrors {
	for adapterName, adapter := range adapterMap {
		if adapter.Disabled {
			continue
		}
		errs = validateAdapterEndpoint(adapter.Endpoint, adapterName, errs)
		if adapter.Lib == "" {
			errs = append(errs, fmt.Errorf("adapters.%s.lib must be set", adapterName))
		}
		if _, err := semver.Parse(adapter.Version); err != nil {
			errs = append(errs, fmt.Errorf("adapters.%s.version %q is not a semantic version: %v", adapterName, adapter.Version, err))
		}
	}
	return errs
}

// validateAdapterEndpoint makes sure that an adapter has a valid endpoint associated with it.
func validateAdapterEndpoint(endpoint string, adapterName string, errs configErrors) configErrors {
	if endpoint == "" {
		return append(errs, fmt.Errorf("There's no default endpoint available for %s. Calls to this bidder/exchange will fail. "+
			"Please set adapters.%s.endpoint in your app config", adapterName, adapterName))
	}

	resolved := strings.TrimSuffix(Adapter{Endpoint: endpoint}.RequestURL(), "?")
	// IsURL allows relative paths, IsRequestURL requires a scheme. Both must hold.
	if !validator.IsURL(resolved) || !validator.IsRequestURL(resolved) {
		errs = append(errs, fmt.Errorf("The endpoint: %s for %s is not a valid URL", endpoint, adapterName))
	}
	return errs
}
