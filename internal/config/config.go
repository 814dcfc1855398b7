package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/directions"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/proto/events"
)

const envPrefix = "ROUTING"

// ServiceConfig holds all configuration for the routing service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	DBConfig    DatabaseConfig
	KafkaConfig KafkaConfig
	RouteConfig RouteConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers       []string
	GroupPrefix   string
	LocationTopic string
	RouteTopic    string
}

// RouteConfig holds the routing credentials and defaults injected into the route service.
type RouteConfig struct {
	APIKey         string
	DefaultBackend route.Backend
	Destination    *route.GeoPoint // nil when no fixed destination is configured
	LegacyURL      string
	RoutesV2URL    string
}

// Load reads configuration from environment variables prefixed with ROUTING_,
// optionally layered over the file named by ROUTING_CONFIG_FILE.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("DEFAULT_BACKEND", string(route.BackendLegacy))
	v.SetDefault("LEGACY_DIRECTIONS_URL", directions.DefaultLegacyURL)
	v.SetDefault("ROUTES_V2_URL", directions.DefaultRoutesV2URL)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "routing_db")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("KAFKA_LOCATION_TOPIC", events.TopicDeviceLocations)
	v.SetDefault("KAFKA_ROUTE_TOPIC", events.TopicRouteEvents)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	backend, err := route.ParseBackend(v.GetString("DEFAULT_BACKEND"))
	if err != nil {
		return nil, err
	}

	var destination *route.GeoPoint
	if v.IsSet("DESTINATION_LAT") || v.IsSet("DESTINATION_LNG") {
		p := route.NewGeoPoint(v.GetFloat64("DESTINATION_LAT"), v.GetFloat64("DESTINATION_LNG"))
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid destination: %w", err)
		}
		destination = &p
	}

	return &ServiceConfig{
		Port:   GetServicePort(v, "SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix:   v.GetString("KAFKA_GROUP_PREFIX"),
			LocationTopic: v.GetString("KAFKA_LOCATION_TOPIC"),
			RouteTopic:    v.GetString("KAFKA_ROUTE_TOPIC"),
		},
		RouteConfig: RouteConfig{
			APIKey:         v.GetString("GOOGLE_API_KEY"),
			DefaultBackend: backend,
			Destination:    destination,
			LegacyURL:      v.GetString("LEGACY_DIRECTIONS_URL"),
			RoutesV2URL:    v.GetString("ROUTES_V2_URL"),
		},
	}, nil
}

// GetServicePort returns the port under key formatted as a listen address.
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
