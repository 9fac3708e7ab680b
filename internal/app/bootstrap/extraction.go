package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/whatsapp-scheduler/internal/config"
	"github.com/wolfman30/whatsapp-scheduler/internal/extraction"
	"github.com/wolfman30/whatsapp-scheduler/pkg/logging"
)

// BuildExtractor returns the configured booking extractor and a cleanup
// func to run on shutdown. awsCfg is only read for the bedrock backend.
func BuildExtractor(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, loc *time.Location, logger *logging.Logger) (extraction.Extractor, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() error { return nil }

	switch backend := cfg.Extractor(); backend {
	case "gemini":
		client, err := extraction.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		logger.Info("extractor initialized", "backend", backend, "model", cfg.GeminiModelID)
		return extraction.NewLLMExtractor(client, backend, cfg.GeminiModelID, loc, logger), client.Close, nil
	case "bedrock":
		client := extraction.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		logger.Info("extractor initialized", "backend", backend, "model", cfg.BedrockModelID)
		return extraction.NewLLMExtractor(client, backend, cfg.BedrockModelID, loc, logger), noop, nil
	case "rules":
		logger.Info("extractor initialized", "backend", backend)
		return extraction.NewRuleExtractor(loc), noop, nil
	default:
		return nil, noop, &appconfig.ConfigurationError{Field: "EXTRACTOR_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", backend)}
	}
}

// NeedsAWS reports whether any configured backend talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	return cfg.Extractor() == "bedrock" || (cfg.ForwardEmail != "" && cfg.EmailProvider == "ses")
}
