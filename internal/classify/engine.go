package classify

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goodtune/sitetime/internal/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

const query = "data.sitetime.classify.category"

//go:embed default.rego
var defaultPolicy string

// Config holds classifier engine settings
type Config struct {
	PolicyFile string // empty uses the built-in policy
	CacheSize  int
}

// Engine classifies domains with a rego policy and caches the results.
type Engine struct {
	policyFile string
	logger     zerolog.Logger

	mu    sync.RWMutex
	query rego.PreparedEvalQuery
	cache *lru.Cache[string, Category]
}

// NewEngine creates a new classifier engine
func NewEngine(cfg Config, logger zerolog.Logger) (*Engine, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}

	cache, err := lru.New[string, Category](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification cache: %w", err)
	}

	e := &Engine{
		policyFile: cfg.PolicyFile,
		logger:     logger.With().Str("component", "classifier").Logger(),
		cache:      cache,
	}

	prepared, err := e.prepare()
	if err != nil {
		return nil, err
	}
	e.query = prepared

	e.logger.Info().Str("policy", e.policyName()).Msg("Classifier initialized")

	return e, nil
}

func (e *Engine) policyName() string {
	if e.policyFile == "" {
		return "builtin"
	}
	return e.policyFile
}

// prepare parses the policy and compiles the category query
func (e *Engine) prepare() (rego.PreparedEvalQuery, error) {
	source := defaultPolicy
	if e.policyFile != "" {
		content, err := os.ReadFile(e.policyFile)
		if err != nil {
			return rego.PreparedEvalQuery{}, fmt.Errorf("failed to read policy file %s: %w", e.policyFile, err)
		}
		source = string(content)
	}

	module, err := ast.ParseModule(e.policyName(), source)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("failed to parse policy %s: %w", e.policyName(), err)
	}

	r := rego.New(
		rego.Query(query),
		rego.ParsedModule(module),
	)

	prepared, err := r.PrepareForEval(context.Background())
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("failed to prepare classification query: %w", err)
	}

	e.logger.Debug().Str("package", module.Package.Path.String()).Msg("Classification query prepared")

	return prepared, nil
}

// Classify returns the category for domain. Evaluation failures are
// logged and reported as Neutral.
func (e *Engine) Classify(ctx context.Context, domain string) Category {
	domain = strings.ToLower(strings.TrimSpace(domain))

	e.mu.RLock()
	if category, ok := e.cache.Get(domain); ok {
		e.mu.RUnlock()
		metrics.ClassifierCacheHits.Inc()
		metrics.Classifications.WithLabelValues(string(category)).Inc()
		return category
	}
	prepared := e.query
	e.mu.RUnlock()

	metrics.ClassifierCacheMisses.Inc()

	category, err := e.evaluate(ctx, prepared, domain)
	if err != nil {
		e.logger.Warn().Err(err).Str("domain", domain).Msg("Classification failed, treating as neutral")
		metrics.Classifications.WithLabelValues(string(Neutral)).Inc()
		return Neutral
	}

	e.mu.Lock()
	e.cache.Add(domain, category)
	e.mu.Unlock()

	metrics.Classifications.WithLabelValues(string(category)).Inc()
	return category
}

func (e *Engine) evaluate(ctx context.Context, prepared rego.PreparedEvalQuery, domain string) (Category, error) {
	startTime := time.Now()

	results, err := prepared.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"domain": domain,
	}))
	if err != nil {
		return "", fmt.Errorf("classification query evaluation failed: %w", err)
	}

	e.logger.Debug().Dur("duration_ms", time.Since(startTime)).Str("domain", domain).Msg("Classification evaluated")

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", fmt.Errorf("no results from classification query")
	}

	value, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("category is not a string: %T", results[0].Expressions[0].Value)
	}

	category := Category(value)
	if !category.Valid() {
		return "", fmt.Errorf("unknown category %q", value)
	}

	return category, nil
}

// Reload re-reads the policy and clears cached classifications.
// The previous policy stays active if the new one fails to compile.
func (e *Engine) Reload() error {
	e.logger.Info().Str("policy", e.policyName()).Msg("Reloading classifier policy")

	prepared, err := e.prepare()
	if err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}

	e.mu.Lock()
	e.query = prepared
	e.cache.Purge()
	e.mu.Unlock()

	e.logger.Info().Msg("Classifier policy reloaded successfully")

	return nil
}
