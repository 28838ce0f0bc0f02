package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/infrastructure/rng"
	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/logger"
	"github.com/ahrav/go-configspace/internal/ports"
)

// Study is a loaded declaration: fresh spaces and a fresh tuner ready for
// an ask/tell loop. Studies never share mutable state, so each may be
// driven from its own goroutine.
type Study struct {
	Config             *StudyConfig
	ConfigurationSpace *space.ConfigurationSpace
	ObjectiveSpace     *space.ObjectiveSpace
	Tuner              ports.Tuner
}

// StudyLoader provides YAML parsing, validation and caching for study
// declarations, transforming them into configuration spaces, objective
// spaces and tuners.
//
// Validated declarations are cached by the SHA256 hash of their
// normalized form. Spaces and tuners carry mutable sampling state, so the
// cache holds declarations only and every load builds new objects.
type StudyLoader struct {
	// validator performs struct field validation and the custom rules
	// registered by RegisterStudyValidators.
	validator *validator.Validate
	// tunerRegistry creates the declared tuner.
	tunerRegistry ports.TunerRegistry
	// cache maps the SHA256 hash of a normalized declaration to the
	// validated declaration. Cached declarations MUST NOT be mutated.
	cache map[string]*StudyConfig
	// cacheMu guards cache.
	cacheMu sync.RWMutex
	// sf prevents duplicate validation when several goroutines load the
	// same declaration simultaneously.
	sf singleflight.Group
}

// NewStudyLoader creates a loader. A nil registry selects
// NewDefaultTunerRegistry.
func NewStudyLoader(tunerRegistry ports.TunerRegistry) (*StudyLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	if tunerRegistry == nil {
		tunerRegistry = NewDefaultTunerRegistry()
	}

	return &StudyLoader{
		validator:     v,
		tunerRegistry: tunerRegistry,
		cache:         make(map[string]*StudyConfig),
	}, nil
}

// load parses, validates and builds a study from YAML bytes.
func (sl *StudyLoader) load(ctx context.Context, data []byte) (*Study, error) {
	config, err := sl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	normalize(config)

	hash, err := sl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, shared := sl.sf.Do(hash, func() (any, error) {
		if cached, ok := sl.getCachedConfig(hash); ok {
			return cached, nil
		}

		if err := sl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		sl.cacheConfig(hash, config)
		return config, nil
	})
	if err != nil {
		return nil, err
	}
	config = v.(*StudyConfig)

	study, err := sl.buildStudy(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build study: %w", err)
	}

	logger.FromContext(ctx).Debug("study loaded",
		zap.String("study", config.Name),
		zap.String("hash", hash[:12]),
		zap.Bool("shared", shared),
		zap.Int("hyperparameters", study.ConfigurationSpace.NumHyperparameters()),
		zap.Int("objectives", study.ObjectiveSpace.NumObjectives()),
		zap.String("tuner", study.Tuner.Name()),
	)
	return study, nil
}

// LoadFromFile loads a study from a YAML file.
func (sl *StudyLoader) LoadFromFile(ctx context.Context, path string) (*Study, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	study, err := sl.load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return study, nil
}

// LoadFromReader loads a study from any io.Reader.
func (sl *StudyLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Study, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return sl.load(ctx, data)
}

// LoadFiles loads several declarations concurrently. Results are in the
// order of paths; the first failure cancels the remaining loads.
func (sl *StudyLoader) LoadFiles(ctx context.Context, paths ...string) ([]*Study, error) {
	studies := make([]*Study, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			study, err := sl.LoadFromFile(ctx, path)
			if err != nil {
				return err
			}
			studies[i] = study
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return studies, nil
}

// parseYAML decodes a single document strictly: unknown fields are
// errors so that typos are never silently ignored.
func (sl *StudyLoader) parseYAML(data []byte) (*StudyConfig, error) {
	var config StudyConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// normalize case folds every enum word so that struct validation and the
// cache key see one spelling.
func normalize(config *StudyConfig) {
	hps := func(hs []HyperparameterConfig) {
		for i := range hs {
			hs[i].Type = fold(hs[i].Type)
			hs[i].DataType = fold(hs[i].DataType)
			if d := hs[i].Distribution; d != nil {
				d.Type = fold(d.Type)
				d.Scale = fold(d.Scale)
			}
		}
	}
	hps(config.Hyperparameters)
	hps(config.ObjectiveSpace.Hyperparameters)
	for i := range config.ObjectiveSpace.Objectives {
		config.ObjectiveSpace.Objectives[i].Type = fold(config.ObjectiveSpace.Objectives[i].Type)
	}
	config.Tuner.Type = fold(config.Tuner.Type)
}

// validateConfig runs struct validation, then the semantic checks struct
// tags cannot express, then a trial build so that cached declarations are
// known to compile.
func (sl *StudyLoader) validateConfig(config *StudyConfig) error {
	if err := sl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := sl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	study, err := sl.buildStudy(config)
	if err != nil {
		return err
	}
	return study.Tuner.Close()
}

// validateSemantics checks name uniqueness, that every reference resolves
// within the right space, and that the tuner type is registered. Every
// failure is collected into one *domain.ValidationError.
func (sl *StudyLoader) validateSemantics(config *StudyConfig) error {
	verr := domain.NewValidationError("study " + config.Name)

	csNames := uniqueNames(verr, "hyperparameters", config.Hyperparameters)
	osNames := uniqueNames(verr, "objective_space.hyperparameters", config.ObjectiveSpace.Hyperparameters)

	conditioned := make(map[string]struct{}, len(config.Conditions))
	for i, c := range config.Conditions {
		if err := checkReference(csNames, c.Hyperparameter); err != nil {
			verr.Add(fmt.Errorf("conditions[%d]: %w", i, err))
		}
		if _, dup := conditioned[c.Hyperparameter]; dup {
			verr.Add(fmt.Errorf("conditions[%d]: hyperparameter %s already has a condition: %w",
				i, c.Hyperparameter, domain.ErrInvalidHyperparameter))
		}
		conditioned[c.Hyperparameter] = struct{}{}
		for _, err := range checkReferences(csNames, c.Expression) {
			verr.Add(fmt.Errorf("conditions[%d]: %w", i, err))
		}
	}

	for i, f := range config.Forbidden {
		for _, err := range checkReferences(csNames, f) {
			verr.Add(fmt.Errorf("forbidden[%d]: %w", i, err))
		}
	}

	for i, o := range config.ObjectiveSpace.Objectives {
		for _, err := range checkReferences(osNames, o.Expression) {
			verr.Add(fmt.Errorf("objective_space.objectives[%d]: %w", i, err))
		}
	}

	if !slices.Contains(sl.tunerRegistry.SupportedTypes(), config.Tuner.Type) {
		verr.Add(fmt.Errorf("tuner type %q not in %v: %w",
			config.Tuner.Type, sl.tunerRegistry.SupportedTypes(), ports.ErrUnknownTuner))
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// uniqueNames returns the declared names, recording duplicates in verr.
func uniqueNames(verr *domain.ValidationError, field string, hs []HyperparameterConfig) []string {
	names := make([]string, 0, len(hs))
	for i, h := range hs {
		if slices.Contains(names, h.Name) {
			verr.Add(fmt.Errorf("%s[%d]: duplicate name %q: %w", field, i, h.Name, domain.ErrInvalidName))
			continue
		}
		names = append(names, h.Name)
	}
	return names
}

// checkReferences walks an expression tree and reports every variable
// that does not resolve.
func checkReferences(names []string, e ExpressionConfig) []error {
	var errs []error
	if e.Var != "" {
		if err := checkReference(names, e.Var); err != nil {
			errs = append(errs, err)
		}
	}
	for _, arg := range e.Args {
		errs = append(errs, checkReferences(names, arg)...)
	}
	return errs
}

func checkReference(names []string, name string) error {
	if slices.Contains(names, name) {
		return nil
	}
	best, bestDist := "", 3
	for _, n := range names {
		if d := levenshtein.ComputeDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	if best != "" {
		return fmt.Errorf("unknown hyperparameter %q (did you mean %q?): %w", name, best, domain.ErrInvalidName)
	}
	return fmt.Errorf("unknown hyperparameter %q: %w", name, domain.ErrInvalidName)
}

// buildStudy constructs fresh spaces and a fresh tuner from a validated
// declaration.
func (sl *StudyLoader) buildStudy(config *StudyConfig) (*Study, error) {
	var r domain.RNG
	if config.Seed != nil {
		r = rng.New(*config.Seed)
	} else {
		r = rng.NewRandom()
	}

	cs, err := buildConfigurationSpace(config, r)
	if err != nil {
		return nil, err
	}
	objectives, err := buildObjectiveSpace(config)
	if err != nil {
		return nil, err
	}
	tuner, err := sl.tunerRegistry.CreateTuner(config.Tuner.Type, config.Tuner.Name, cs, objectives)
	if err != nil {
		return nil, fmt.Errorf("tuner: %w", err)
	}
	return &Study{Config: config, ConfigurationSpace: cs, ObjectiveSpace: objectives, Tuner: tuner}, nil
}

// calculateConfigHash computes the SHA256 hash of a normalized
// declaration so that semantically identical documents share a cache
// entry regardless of whitespace or key order.
func (sl *StudyLoader) calculateConfigHash(config *StudyConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedConfig is safe for concurrent use.
func (sl *StudyLoader) getCachedConfig(hash string) (*StudyConfig, bool) {
	sl.cacheMu.RLock()
	defer sl.cacheMu.RUnlock()

	config, ok := sl.cache[hash]
	return config, ok
}

// cacheConfig is safe for concurrent use.
func (sl *StudyLoader) cacheConfig(hash string, config *StudyConfig) {
	sl.cacheMu.Lock()
	defer sl.cacheMu.Unlock()

	sl.cache[hash] = config
}

// CacheSize returns the number of cached declarations.
func (sl *StudyLoader) CacheSize() int {
	sl.cacheMu.RLock()
	defer sl.cacheMu.RUnlock()

	return len(sl.cache)
}

// ClearCache removes all cached declarations, forcing later loads to
// validate again.
func (sl *StudyLoader) ClearCache() {
	sl.cacheMu.Lock()
	defer sl.cacheMu.Unlock()

	sl.cache = make(map[string]*StudyConfig)
}
