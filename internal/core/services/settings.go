package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyChunkMinChars    = "chunking.min_chars"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedConcurrency = "embedding.concurrency"
	keyEmbedCooldownMS  = "embedding.cooldown_ms"
	keyEmbedTimeoutSecs = "embedding.timeout_seconds"
	keyEmbedMaxAttempts = "embedding.max_attempts"
	keyEmbedRPS         = "embedding.requests_per_second"
	keySearchMinScore   = "search.min_similarity"
	keySearchMaxResults = "search.max_results"
	keySearchFallback   = "search.keyword_fallback"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

func (k valueKind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindFloat:
		return "number"
	case kindBool:
		return "boolean"
	default:
		return "string"
	}
}

// setting binds one config key to a field of domain.RAGSettings.
type setting struct {
	key  string
	kind valueKind
	get  func(*domain.RAGSettings) any
	set  func(*domain.RAGSettings, any)
}

// settingsTable is in display order.
var settingsTable = []setting{
	{keyChunkSize, kindInt,
		func(s *domain.RAGSettings) any { return s.Chunking.Size },
		func(s *domain.RAGSettings, v any) { s.Chunking.Size = v.(int) }},
	{keyChunkOverlap, kindInt,
		func(s *domain.RAGSettings) any { return s.Chunking.Overlap },
		func(s *domain.RAGSettings, v any) { s.Chunking.Overlap = v.(int) }},
	{keyChunkMinChars, kindInt,
		func(s *domain.RAGSettings) any { return s.Chunking.MinChars },
		func(s *domain.RAGSettings, v any) { s.Chunking.MinChars = v.(int) }},
	{keyEmbedProvider, kindString,
		func(s *domain.RAGSettings) any { return s.Embedding.Provider.String() },
		func(s *domain.RAGSettings, v any) { s.Embedding.Provider = domain.AIProvider(v.(string)) }},
	{keyEmbedModel, kindString,
		func(s *domain.RAGSettings) any { return s.Embedding.Model },
		func(s *domain.RAGSettings, v any) { s.Embedding.Model = v.(string) }},
	{keyEmbedBaseURL, kindString,
		func(s *domain.RAGSettings) any { return s.Embedding.BaseURL },
		func(s *domain.RAGSettings, v any) { s.Embedding.BaseURL = v.(string) }},
	{keyEmbedAPIKey, kindString,
		func(s *domain.RAGSettings) any { return s.Embedding.APIKey },
		func(s *domain.RAGSettings, v any) { s.Embedding.APIKey = v.(string) }},
	{keyEmbedDimensions, kindInt,
		func(s *domain.RAGSettings) any { return s.Embedding.Dimensions },
		func(s *domain.RAGSettings, v any) { s.Embedding.Dimensions = v.(int) }},
	{keyEmbedConcurrency, kindInt,
		func(s *domain.RAGSettings) any { return s.Embedding.Concurrency },
		func(s *domain.RAGSettings, v any) { s.Embedding.Concurrency = v.(int) }},
	{keyEmbedCooldownMS, kindInt,
		func(s *domain.RAGSettings) any { return int(s.Embedding.Cooldown / time.Millisecond) },
		func(s *domain.RAGSettings, v any) { s.Embedding.Cooldown = time.Duration(v.(int)) * time.Millisecond }},
	{keyEmbedTimeoutSecs, kindInt,
		func(s *domain.RAGSettings) any { return int(s.Embedding.Timeout / time.Second) },
		func(s *domain.RAGSettings, v any) { s.Embedding.Timeout = time.Duration(v.(int)) * time.Second }},
	{keyEmbedMaxAttempts, kindInt,
		func(s *domain.RAGSettings) any { return s.Embedding.MaxAttempts },
		func(s *domain.RAGSettings, v any) { s.Embedding.MaxAttempts = v.(int) }},
	{keyEmbedRPS, kindFloat,
		func(s *domain.RAGSettings) any { return s.Embedding.RequestsPerSecond },
		func(s *domain.RAGSettings, v any) { s.Embedding.RequestsPerSecond = v.(float64) }},
	{keySearchMinScore, kindFloat,
		func(s *domain.RAGSettings) any { return s.Search.MinSimilarity },
		func(s *domain.RAGSettings, v any) { s.Search.MinSimilarity = v.(float64) }},
	{keySearchMaxResults, kindInt,
		func(s *domain.RAGSettings) any { return s.Search.MaxResults },
		func(s *domain.RAGSettings, v any) { s.Search.MaxResults = v.(int) }},
	{keySearchFallback, kindBool,
		func(s *domain.RAGSettings) any { return s.Search.KeywordFallback },
		func(s *domain.RAGSettings, v any) { s.Search.KeywordFallback = v.(bool) }},
}

func lookupSetting(key string) (setting, bool) {
	for _, st := range settingsTable {
		if st.key == key {
			return st, true
		}
	}
	return setting{}, false
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// aiValidator may be nil, in which case ValidateEmbedding is a no-op.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current settings. Keys absent from the store keep their
// default; an unrecognised provider falls back to the default provider.
func (s *SettingsService) Get() (*domain.RAGSettings, error) {
	defaults := domain.DefaultRAGSettings()
	settings := defaults

	for _, st := range settingsTable {
		if _, exists := s.configStore.Get(st.key); !exists {
			continue
		}
		st.set(&settings, s.read(st))
	}

	if !settings.Embedding.Provider.IsValid() {
		settings.Embedding.Provider = defaults.Embedding.Provider
	}

	return &settings, nil
}

func (s *SettingsService) read(st setting) any {
	switch st.kind {
	case kindInt:
		return s.configStore.GetInt(st.key)
	case kindFloat:
		return s.configStore.GetFloat(st.key)
	case kindBool:
		return s.configStore.GetBool(st.key)
	default:
		return s.configStore.GetString(st.key)
	}
}

// Save validates and persists settings. An empty API key is not written,
// so a stored key survives saves that do not carry it.
func (s *SettingsService) Save(settings *domain.RAGSettings) error {
	if settings == nil {
		return domain.NewValidationError("settings", "must not be nil")
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	for _, st := range settingsTable {
		val := st.get(settings)
		if st.key == keyEmbedAPIKey && val == "" {
			continue
		}
		if err := s.configStore.Set(st.key, val); err != nil {
			return fmt.Errorf("save %s: %w", st.key, err)
		}
	}

	return nil
}

// Set parses value for a single key, validates the resulting settings
// and persists only that key.
func (s *SettingsService) Set(key, value string) error {
	st, ok := lookupSetting(key)
	if !ok {
		return domain.NewValidationError("key", "unknown setting %q (known: %s)", key, strings.Join(s.Keys(), ", "))
	}

	parsed, err := parseValue(st.kind, strings.TrimSpace(value))
	if err != nil {
		return domain.NewValidationError(key, "expected %s, got %q", st.kind, value)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	st.set(settings, parsed)
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, st.get(settings)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseValue(kind valueKind, raw string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// Keys lists the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, st := range settingsTable {
		keys[i] = st.key
	}
	return keys
}

// Values returns every setting rendered as a string, keyed like Keys.
// The API key is masked.
func (s *SettingsService) Values() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(settingsTable))
	for _, st := range settingsTable {
		val := fmt.Sprint(st.get(settings))
		if st.key == keyEmbedAPIKey {
			val = MaskSecret(val)
		}
		out[st.key] = val
	}
	return out, nil
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.RAGSettings {
	return domain.DefaultRAGSettings()
}

// ValidateEmbedding pings the configured embedding provider.
func (s *SettingsService) ValidateEmbedding(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}
