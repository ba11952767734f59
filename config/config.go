package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Configuration specifies the static application config.
type Configuration struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AdminPort int    `mapstructure:"admin_port"`
	// EnableGzip compresses responses of the main server.
	EnableGzip bool `mapstructure:"enable_gzip"`
	// StatusResponse is the body served by /status. An empty value means 204 No Content.
	StatusResponse string `mapstructure:"status_response"`
	// AuctionTimeoutMS bounds each outbound call when the request carries no timeout of its own.
	AuctionTimeoutMS uint64             `mapstructure:"timeout_ms"`
	Client           HTTPClient         `mapstructure:"http_client"`
	Metrics          Metrics            `mapstructure:"metrics"`
	Adapters         map[string]Adapter `mapstructure:"adapters"`
	// BidderParamsDir holds one JSON schema per bidder.
	BidderParamsDir string `mapstructure:"bidder_params_dir"`
}

type HTTPClient struct {
	MaxConnsPerHost int `mapstructure:"max_connections_per_host"`
	MaxIdleConns    int `mapstructure:"max_idle_connections"`
	IdleConnTimeout int `mapstructure:"idle_connection_timeout_seconds"`
}

type Metrics struct {
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
	GoMetrics  GoMetrics         `mapstructure:"go_metrics"`
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

// GoMetrics enables the in-process go-metrics registry, exposed on the admin port.
type GoMetrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// AuctionTimeout is the default deadline for an auction.
func (cfg *Configuration) AuctionTimeout() time.Duration {
	return time.Duration(cfg.AuctionTimeoutMS) * time.Millisecond
}

type configErrors []error

func (c configErrors) Error() string {
	if len(c) == 0 {
		return ""
	}
	buf := &strings.Builder{}
	buf.WriteString("validation errors are:\n\n")
	for _, err := range c {
		buf.WriteString("  ")
		buf.WriteString(err.Error())
		buf.WriteString("\n")
	}
	return buf.String()
}

func (cfg *Configuration) validate() configErrors {
	var errs configErrors
	errs = validatePort("port", cfg.Port, errs)
	errs = validatePort("admin_port", cfg.AdminPort, errs)
	if cfg.Metrics.Prometheus.Port != 0 {
		errs = validatePort("metrics.prometheus.port", cfg.Metrics.Prometheus.Port, errs)
		if cfg.Metrics.Prometheus.TimeoutMillisRaw <= 0 {
			errs = append(errs, errors.New("metrics.prometheus.timeout_ms must be positive"))
		}
	}
	if cfg.Client.MaxConnsPerHost < 0 || cfg.Client.MaxIdleConns < 0 || cfg.Client.IdleConnTimeout < 0 {
		errs = append(errs, errors.New("http_client values must not be negative"))
	}
	if cfg.BidderParamsDir == "" {
		errs = append(errs, errors.New("bidder_params_dir must be set"))
	}
	return validateAdapters(cfg.Adapters, errs)
}

func validatePort(key string, port int, errs configErrors) configErrors {
	if port <= 0 || port > 65535 {
		return append(errs, fmt.Errorf("%s must be between 1 and 65535. Got %d", key, port))
	}
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	c.Adapters = normalizeAdapterKeys(c.Adapters)

	glog.Info("Logging the resolved configuration:")
	logStructWithLogger(reflect.ValueOf(c), "", glog.Infof)
	if errs := c.validate(); len(errs) > 0 {
		return &c, errs
	}
	return &c, nil
}

// SetupViper sets the defaults, the env binding and the config file lookup.
// An empty filename skips reading a config file.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")
	v.SetDefault("timeout_ms", 1000)
	v.SetDefault("bidder_params_dir", "static/bidder-params")
	v.SetDefault("http_client.max_connections_per_host", 0)
	v.SetDefault("http_client.max_idle_connections", 400)
	v.SetDefault("http_client.idle_connection_timeout_seconds", 60)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)
	v.SetDefault("metrics.go_metrics.enabled", false)
	v.SetDefault("metrics.go_metrics.prefix", "tlx.")
	v.SetDefault("adapters.triplelift.endpoint", "//tlx.3lift.com/header/auction?")
	v.SetDefault("adapters.triplelift.lib", "prebid")
	v.SetDefault("adapters.triplelift.version", "1.0.0")
	v.SetDefault("adapters.triplelift.disabled", false)
	v.SetDefault("adapters.triplelift.flash_enabled", false)

	v.SetEnvPrefix("TLX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		if err := v.ReadInConfig(); err != nil {
			glog.Warningf("Could not read config file %s, using defaults and environment: %v", filename, err)
		}
	}
}
