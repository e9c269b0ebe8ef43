package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ashkaaar/griptape/internal/config"
	"github.com/ashkaaar/griptape/internal/embedding"
	"github.com/ashkaaar/griptape/internal/llm"
	"github.com/ashkaaar/griptape/internal/log"
	"github.com/ashkaaar/griptape/internal/pii"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// Constructors are variables so tests can substitute fakes.
var (
	newEmbeddingDriver = func(cfg config.EmbeddingConfig) (embedding.Driver, error) {
		return embedding.NewOpenAIDriver(cfg)
	}
	newPromptDriver = llm.NewDriverWithOverride
	newPIIProcessor = defaultPIIProcessor
)

// loadConfig loads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if debugFlag {
		cfg.Debug = true
	}
	if err := log.Init(config.LogDir(cfg), cfg.Debug); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, nil
}

// defaultPIIProcessor returns Comprehend redaction when enabled and the
// identity processor otherwise.
func defaultPIIProcessor(ctx context.Context, cfg config.PIIConfig) (pii.Processor, error) {
	if !cfg.Enabled {
		return pii.Noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Debugf("pii redaction enabled: region=%s language=%s", cfg.Region, cfg.LanguageCode)

	return pii.NewComprehendProcessor(awsCfg,
		pii.WithLanguageCode(cfg.LanguageCode),
		pii.WithMinScore(cfg.MinScore),
	), nil
}

// readInput joins args, or reads in when there are none (or the single
// argument is "-"). Piped text is returned as read.
func readInput(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	if in == nil {
		return "", errors.New("no input: pass text as arguments or on stdin")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no input: pass text as arguments or on stdin")
	}
	return text, nil
}
