package main

import (
	"fmt"
	"os"

	"github.com/xonecas/jpcore/internal/config"
	"github.com/xonecas/jpcore/internal/provider"
)

// buildRegistry dispatches every configured provider to the Factory matching
// its Kind, generalizing the single-kind (Ollama-only) wiring this is
// grounded on across every provider kind the Provider Pipeline supports.
func buildRegistry(cfg *config.Config, creds *config.Credentials) *provider.Registry {
	registry := provider.NewRegistry()
	for name, providerCfg := range cfg.Providers {
		factory := newFactory(name, providerCfg, creds)
		if factory == nil {
			fmt.Printf("Warning: provider %q has unknown kind %q, skipping\n", name, providerCfg.Kind)
			continue
		}
		registry.RegisterFactory(name, factory)
	}
	return registry
}

func newFactory(name string, providerCfg config.ProviderConfig, creds *config.Credentials) provider.Factory {
	apiKey := creds.GetAPIKey(name)
	switch providerCfg.Kind {
	case "", "ollama":
		return provider.NewOllamaFactory(name, providerCfg.Endpoint)
	case "anthropic":
		return provider.NewAnthropicFactory(name, providerCfg.Endpoint, apiKey)
	case "vllm":
		return provider.NewVLLMFactory(name, providerCfg.Endpoint, apiKey)
	case "opencode":
		return provider.NewOpenCodeFactory(name, providerCfg.Endpoint, apiKey)
	case "zen":
		return provider.NewZenFactory(name, apiKey, providerCfg.Endpoint)
	case "mock":
		return provider.NewMockFactory(name, "")
	default:
		return nil
	}
}

// resolveProvider picks cfg.DefaultProvider, or, when unset, whichever name
// Registry.List returns first (map order, so not fixed from run to run),
// exiting with an error if none is configured or the named one doesn't exist.
func resolveProvider(cfg *config.Config, registry *provider.Registry) (string, config.ProviderConfig) {
	name := cfg.DefaultProvider
	if name == "" {
		providers := registry.List()
		if len(providers) == 0 {
			fmt.Println("Error: No providers configured")
			os.Exit(1)
		}
		name = providers[0]
	}
	pcfg, ok := cfg.Providers[name]
	if !ok {
		fmt.Printf("Error: Provider %q not found\n", name)
		os.Exit(1)
	}
	return name, pcfg
}
