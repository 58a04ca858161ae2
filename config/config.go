package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/b0bbywan/go-mpris-hub/logger"
)

const (
	AppName     = "mpris-hub"
	AppVersion  = "0.1.0"
	serviceType = "_http._tcp"
	domain      = "local."
)

type Config struct {
	Api      *ApiConfig
	MPRIS    *MPRISConfig
	Zeroconf *ZeroConfig
	LogLevel logger.Level
}

type ApiConfig struct {
	Enabled bool
	Port    int
	Listens []string
	SSE     bool
	CORS    *CORSConfig
}

type CORSConfig struct {
	Origins []string
}

// MPRISConfig carries the playback clock tuning. The defaults are fine for
// every player tested; they are exposed for the odd player whose Position
// reporting misbehaves.
type MPRISConfig struct {
	Enabled           bool
	DriftThreshold    time.Duration
	ResyncInterval    time.Duration
	ResumeGuard       time.Duration
	SeekSuppression   time.Duration
	HeartbeatInterval time.Duration
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
	Listen       []net.Interface
}

// parseLogLevel converts a string to a logger.Level
func parseLogLevel(levelStr string) logger.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return logger.DEBUG
	case "INFO":
		return logger.INFO
	case "WARN":
		return logger.WARN
	case "ERROR":
		return logger.ERROR
	case "FATAL":
		return logger.FATAL
	default:
		return logger.WARN // default
	}
}

func interfaceForIP(ip string) (*net.Interface, error) {
	if ip == "127.0.0.1" {
		return nil, nil
	}
	listenIP := net.ParseIP(ip)
	if listenIP == nil {
		return nil, fmt.Errorf("invalid bind: %s", ip)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, _ := iface.Addrs()
		for _, addr := range addrs {
			var ifaceIP net.IP

			switch v := addr.(type) {
			case *net.IPNet:
				ifaceIP = v.IP
			case *net.IPAddr:
				ifaceIP = v.IP
			}

			if ifaceIP != nil && ifaceIP.Equal(listenIP) {
				return &iface, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found for IP %s", ip)
}

// packageLevels reads the optional log_levels map, keyed by the [component]
// prefix used in log messages (mpris, clock, api, sse, discovery, config).
func packageLevels() map[string]logger.Level {
	raw := viper.GetStringMapString("log_levels")
	if len(raw) == 0 {
		return nil
	}
	levels := make(map[string]logger.Level, len(raw))
	for component, levelStr := range raw {
		levels[component] = parseLogLevel(levelStr)
	}
	return levels
}

// durationOr reads a duration key, falling back when unset or nonsensical.
func durationOr(key string, fallback time.Duration) time.Duration {
	d := viper.GetDuration(key)
	if d <= 0 {
		return fallback
	}
	return d
}

func New() (*Config, error) {
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.sse.enabled", true)
	viper.SetDefault("bind", "127.0.0.1")

	viper.SetDefault("mpris.enabled", true)
	viper.SetDefault("mpris.drift_threshold", "2s")
	viper.SetDefault("mpris.resync_interval", "2s")
	viper.SetDefault("mpris.resume_guard", "100ms")
	viper.SetDefault("mpris.seek_suppression", "500ms")
	viper.SetDefault("mpris.heartbeat_interval", "2s")

	viper.SetDefault("zeroconf.enabled", true)

	viper.SetDefault("LogLevel", "WARN")

	// Load from configuration file, environment variables, and CLI flags
	viper.SetConfigName("config")                       // name of config file (without extension)
	viper.SetConfigType("yaml")                         // config file format
	viper.AddConfigPath(filepath.Join("/etc", AppName)) // Global configuration path
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", AppName)) // User config path
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("failed to read config: %v", err)
		}
	}

	port := viper.GetInt("api.port")
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	bind := viper.GetString("bind")
	var interfaces []net.Interface
	inet, err := interfaceForIP(bind)
	if err == nil && inet != nil {
		interfaces = append(interfaces, *inet)
	}

	listens := viper.GetStringSlice("api.listens")
	if len(listens) == 0 {
		listens = []string{fmt.Sprintf("%s:%d", bind, port)}
	}

	var cors *CORSConfig
	if origins := viper.GetStringSlice("api.cors.origins"); len(origins) > 0 {
		cors = &CORSConfig{Origins: origins}
	}

	apiCfg := ApiConfig{
		Enabled: viper.GetBool("api.enabled"),
		Port:    port,
		Listens: listens,
		SSE:     viper.GetBool("api.sse.enabled"),
		CORS:    cors,
	}

	mpriscfg := MPRISConfig{
		Enabled:           viper.GetBool("mpris.enabled"),
		DriftThreshold:    durationOr("mpris.drift_threshold", 2*time.Second),
		ResyncInterval:    durationOr("mpris.resync_interval", 2*time.Second),
		ResumeGuard:       durationOr("mpris.resume_guard", 100*time.Millisecond),
		SeekSuppression:   durationOr("mpris.seek_suppression", 500*time.Millisecond),
		HeartbeatInterval: durationOr("mpris.heartbeat_interval", 2*time.Second),
	}

	zerocfg := ZeroConfig{
		Enabled:      viper.GetBool("zeroconf.enabled"),
		InstanceName: AppName,
		ServiceType:  serviceType,
		Port:         port,
		Domain:       domain,
		TxtRecords:   []string{"version=" + AppVersion},
		Listen:       interfaces,
	}

	cfg := Config{
		Api:      &apiCfg,
		MPRIS:    &mpriscfg,
		Zeroconf: &zerocfg,
		LogLevel: parseLogLevel(viper.GetString("LogLevel")),
	}

	if levels := packageLevels(); levels != nil {
		logger.SetPackageLevels(levels)
	}

	return &cfg, nil
}
