package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flowtrack-io/flowtrack/pkg/sharedstore"
)

func NewSharedStore(ctx context.Context, logger *slog.Logger, storeURL string) sharedstore.Store {
	switch {
	case strings.HasPrefix(storeURL, "redis://"), strings.HasPrefix(storeURL, "rediss://"):
		store, err := sharedstore.NewRedisStore(ctx, logger, storeURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis shared store: %w", err))
		}

		return store
	case storeURL == "memory://", storeURL == "memory":
		return sharedstore.NewMemoryStore()
	default:
		panic("Unsupported shared store URL: " + storeURL)
	}
}
