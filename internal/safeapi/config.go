package safeapi

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config selects the Safe Transaction Service endpoint per network.
type Config struct {
	URLs      Endpoints     `env:"TREASURY_SAFE_API_URLS" envDefault:"mainnet=https://safe-transaction-mainnet.safe.global,sepolia=https://safe-transaction-sepolia.safe.global,hardhat=http://127.0.0.1:8000"`
	Timeout   time.Duration `env:"TREASURY_SAFE_API_TIMEOUT" envDefault:"10s"`
	Attempts  uint          `env:"TREASURY_SAFE_API_ATTEMPTS" envDefault:"3"`
	RateLimit uint64        `env:"TREASURY_SAFE_API_RATE_LIMIT" envDefault:"5"` // requests per second
}

// Endpoints maps a network name to the service base URL.
type Endpoints map[string]string

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(Endpoints{}): func(v string) (interface{}, error) {
			return ParseEndpoints(v)
		}}); err != nil {
		return Config{}, fmt.Errorf("parsing safe api config: %w", err)
	}
	return c, nil
}

// ParseEndpoints parses "network=url,network=url".
func ParseEndpoints(v string) (Endpoints, error) {
	out := Endpoints{}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		network, url, ok := strings.Cut(part, "=")
		if !ok || network == "" || url == "" {
			return nil, fmt.Errorf("endpoint %q is not network=url", part)
		}
		out[strings.TrimSpace(network)] = strings.TrimRight(strings.TrimSpace(url), "/")
	}
	return out, nil
}
