package weaviate

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// Config describes how to reach the vector index backing tenant knowledge bases.
type Config struct {
	Host    string `split_words:"true" default:"localhost:8080"`
	Scheme  string `split_words:"true" default:"http"`
	APIKey  string `split_words:"true"`
	Timeout int    `split_words:"true" default:"10"`
}

func (c *Config) New() (*weaviate.Client, error) {
	cfg := weaviate.Config{
		Host:   c.Host,
		Scheme: c.Scheme,
	}
	if c.APIKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + c.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Timeout)*time.Second)
	defer cancel()
	if _, err := client.Misc().ReadyChecker().Do(ctx); err != nil {
		return nil, fmt.Errorf("weaviate not ready: %w", err)
	}

	return client, nil
}

func (c *Config) MustNew() *weaviate.Client {
	client, err := c.New()
	if err != nil {
		panic(err)
	}

	return client
}
