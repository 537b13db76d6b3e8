package db

import (
	"fmt"
	"time"

	"velocity/internal/config"

	client "github.com/influxdata/influxdb1-client/v2"
)

var (
	newInfluxFn  = func(conf client.HTTPConfig) (client.Client, error) { return client.NewHTTPClient(conf) }
	pingInfluxFn = func(c client.Client) error {
		_, _, err := c.Ping(5 * time.Second)
		return err
	}
)

// ConnectInflux returns a nil client when INFLUX_URL is empty.
func ConnectInflux(cfg config.Config) (client.Client, error) {
	if cfg.InfluxURL == "" {
		return nil, nil
	}

	c, err := newInfluxFn(client.HTTPConfig{
		Addr:    cfg.InfluxURL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating influx client: %w", err)
	}
	if err := pingInfluxFn(c); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("error pinging influx: %w", err)
	}
	return c, nil
}
