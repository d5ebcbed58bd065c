package config

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 60 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultEnvironment        = "local"
	defaultStoreBackend       = BackendFirestore
	defaultDocumentKey        = "data"
	defaultFirestoreColl      = "store"
	defaultPostgresTable      = "store_data"
	defaultRedisKey           = "storefront:document"
	defaultSQLitePath         = "storefront.db"
	defaultMaxDimension       = 1024
	defaultJPEGQuality        = 80
	defaultMaxUploadBytes     = 10 << 20
	defaultMaxDocumentBytes   = 1 << 20
	defaultMediaConcurrency   = 4
	defaultMediaMode          = MediaModeInline
	defaultTextModel          = "gemini-2.5-flash"
	defaultImageModel         = "gemini-2.5-flash-image"
	defaultChatNumber         = "573001234567"
	defaultCurrencyLocale     = "es-CO"
	defaultRateLimitPublic    = 120
	defaultRateLimitEditor    = 240
	defaultRateLimitAI        = 10
	defaultSecretFallbackFile = ".secrets.local"
)

// Supported document store backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Supported media modes.
const (
	MediaModeInline = "inline"
	MediaModeBucket = "bucket"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	Firestore   FirestoreConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	SQLite      SQLiteConfig
	Media       MediaConfig
	Storage     StorageConfig
	AI          AIConfig
	Checkout    CheckoutConfig
	Events      EventsConfig
	RateLimits  RateLimitConfig
	Secrets     SecretsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the document store backend and the single key the document lives under.
type StoreConfig struct {
	Backend     string
	DocumentKey string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// PostgresConfig configures the row backend (a table with a JSON column).
type PostgresConfig struct {
	URL   string
	Table string
}

// RedisConfig configures the single-key Redis backend.
type RedisConfig struct {
	URL string
	Key string
}

// SQLiteConfig configures the local file backend.
type SQLiteConfig struct {
	Path string
}

// MediaConfig bounds uploaded images.
type MediaConfig struct {
	MaxDimension     int
	JPEGQuality      int
	MaxUploadBytes   int64
	MaxDocumentBytes int
	Concurrency      int
	Mode             string
}

// StorageConfig configures bucket offload for normalised images.
type StorageConfig struct {
	MediaBucket   string
	PublicBaseURL string
}

// AIConfig configures the generative text and image helpers.
type AIConfig struct {
	Enabled    bool
	APIKey     string
	TextModel  string
	ImageModel string
}

// CheckoutConfig controls chat-based checkout links.
type CheckoutConfig struct {
	ChatNumber     string
	CurrencyLocale string
}

// EventsConfig configures save notifications on Pub/Sub.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// RateLimitConfig controls request throttling.
type RateLimitConfig struct {
	PublicPerMinute int
	EditorPerMinute int
	AIPerMinute     int
}

// SecretsConfig configures how secret:// references are resolved.
type SecretsConfig struct {
	ProjectID    string
	FallbackFile string
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

// MissingSecretsError indicates that one or more required secrets failed to resolve.
type MissingSecretsError struct {
	names []string
}

// Error implements the error interface.
func (e *MissingSecretsError) Error() string {
	if e == nil || len(e.names) == 0 {
		return "missing required secrets"
	}
	return fmt.Sprintf("missing required secrets [%s]", strings.Join(e.RedactedNames(), ", "))
}

// RedactedNames returns hashed secret identifiers safe for logs.
func (e *MissingSecretsError) RedactedNames() []string {
	if e == nil || len(e.names) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, redactSecretName(name))
	}
	sort.Strings(out)
	return out
}

// Names returns the underlying secret identifiers.
func (e *MissingSecretsError) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.names))
	copy(out, e.names)
	sort.Strings(out)
	return out
}

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile         string
	envMap          map[string]string
	useSystemEnv    bool
	secret          SecretResolver
	requiredSecrets []string
}

// EnvironmentValues returns the effective key/value environment map after applying the same precedence
// rules as Load (dotenv < OS env < explicit env map). Callers use it to build dependencies such as the
// secret fetcher before invoking Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for key, value := range dotEnvValues {
		values[key] = value
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	for key, value := range options.envMap {
		values[key] = value
	}
	return values, nil
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// WithRequiredSecrets marks the provided secret identifiers as mandatory (e.g. "AI.APIKey").
func WithRequiredSecrets(names ...string) Option {
	return func(o *loaderOptions) {
		o.requiredSecrets = append(o.requiredSecrets, names...)
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "STORE_ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STORE_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "STORE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STORE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STORE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(stringWithDefault(lookup, "STORE_BACKEND", defaultStoreBackend)),
			DocumentKey: stringWithDefault(lookup, "STORE_DOCUMENT_KEY", defaultDocumentKey),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "STORE_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "STORE_FIRESTORE_EMULATOR_HOST", ""),
			Collection:   stringWithDefault(lookup, "STORE_FIRESTORE_COLLECTION", defaultFirestoreColl),
		},
		Postgres: PostgresConfig{
			URL:   stringWithDefault(lookup, "STORE_POSTGRES_URL", ""),
			Table: stringWithDefault(lookup, "STORE_POSTGRES_TABLE", defaultPostgresTable),
		},
		Redis: RedisConfig{
			URL: stringWithDefault(lookup, "STORE_REDIS_URL", ""),
			Key: stringWithDefault(lookup, "STORE_REDIS_KEY", defaultRedisKey),
		},
		SQLite: SQLiteConfig{
			Path: stringWithDefault(lookup, "STORE_SQLITE_PATH", defaultSQLitePath),
		},
		Media: MediaConfig{
			MaxDimension:     intWithDefault(lookup, "STORE_MEDIA_MAX_DIMENSION", defaultMaxDimension),
			JPEGQuality:      intWithDefault(lookup, "STORE_MEDIA_JPEG_QUALITY", defaultJPEGQuality),
			MaxUploadBytes:   int64(intWithDefault(lookup, "STORE_MEDIA_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
			MaxDocumentBytes: intWithDefault(lookup, "STORE_MEDIA_MAX_DOCUMENT_BYTES", defaultMaxDocumentBytes),
			Concurrency:      intWithDefault(lookup, "STORE_MEDIA_CONCURRENCY", defaultMediaConcurrency),
			Mode:             strings.ToLower(stringWithDefault(lookup, "STORE_MEDIA_MODE", defaultMediaMode)),
		},
		Storage: StorageConfig{
			MediaBucket:   stringWithDefault(lookup, "STORE_STORAGE_MEDIA_BUCKET", ""),
			PublicBaseURL: stringWithDefault(lookup, "STORE_STORAGE_PUBLIC_BASE_URL", ""),
		},
		AI: AIConfig{
			Enabled:    boolWithDefault(lookup, "STORE_AI_ENABLED", true),
			APIKey:     stringWithDefault(lookup, "STORE_AI_API_KEY", ""),
			TextModel:  stringWithDefault(lookup, "STORE_AI_TEXT_MODEL", defaultTextModel),
			ImageModel: stringWithDefault(lookup, "STORE_AI_IMAGE_MODEL", defaultImageModel),
		},
		Checkout: CheckoutConfig{
			ChatNumber:     stringWithDefault(lookup, "STORE_CHECKOUT_CHAT_NUMBER", defaultChatNumber),
			CurrencyLocale: stringWithDefault(lookup, "STORE_CHECKOUT_CURRENCY_LOCALE", defaultCurrencyLocale),
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(lookup, "STORE_EVENTS_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "STORE_EVENTS_TOPIC", ""),
		},
		RateLimits: RateLimitConfig{
			PublicPerMinute: intWithDefault(lookup, "STORE_RATELIMIT_PUBLIC_PER_MIN", defaultRateLimitPublic),
			EditorPerMinute: intWithDefault(lookup, "STORE_RATELIMIT_EDITOR_PER_MIN", defaultRateLimitEditor),
			AIPerMinute:     intWithDefault(lookup, "STORE_RATELIMIT_AI_PER_MIN", defaultRateLimitAI),
		},
		Secrets: SecretsConfig{
			ProjectID:    stringWithDefault(lookup, "STORE_SECRETS_PROJECT_ID", ""),
			FallbackFile: stringWithDefault(lookup, "STORE_SECRETS_FALLBACK_FILE", defaultSecretFallbackFile),
		},
	}

	// Events and secrets default to the Firestore project when unspecified.
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firestore.ProjectID
	}
	if cfg.Secrets.ProjectID == "" {
		cfg.Secrets.ProjectID = cfg.Firestore.ProjectID
	}

	resolvedSecrets := make(map[string]string)
	secretFields := []struct {
		name  string
		field *string
	}{
		{"AI.APIKey", &cfg.AI.APIKey},
		{"Postgres.URL", &cfg.Postgres.URL},
		{"Redis.URL", &cfg.Redis.URL},
	}
	for _, target := range secretFields {
		resolved, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = resolved
		resolvedSecrets[target.name] = strings.TrimSpace(resolved)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	if missing := findMissingSecrets(options.requiredSecrets, resolvedSecrets); missing != nil {
		return Config{}, missing
	}

	return cfg, nil
}

// Configured reports whether the generative helpers can be used.
func (c AIConfig) Configured() bool {
	return c.Enabled && strings.TrimSpace(c.APIKey) != ""
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	normalized := normalizeSecretReference(value)
	if resolver == nil {
		return "", &SecretError{Ref: normalized, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, normalized)
	if err != nil {
		return "", &SecretError{Ref: normalized, Err: err}
	}
	return secret, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Store.DocumentKey) == "" {
		missing = append(missing, "Store.DocumentKey")
	}

	switch cfg.Store.Backend {
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" && cfg.Firestore.EmulatorHost == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
		if strings.TrimSpace(cfg.Firestore.Collection) == "" {
			missing = append(missing, "Firestore.Collection")
		}
	case BackendPostgres:
		if cfg.Postgres.URL == "" {
			missing = append(missing, "Postgres.URL")
		}
		if !validIdentifier(cfg.Postgres.Table) {
			missing = append(missing, "Postgres.Table")
		}
	case BackendRedis:
		if cfg.Redis.URL == "" {
			missing = append(missing, "Redis.URL")
		}
		if strings.TrimSpace(cfg.Redis.Key) == "" {
			missing = append(missing, "Redis.Key")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLite.Path) == "" {
			missing = append(missing, "SQLite.Path")
		}
	case BackendMemory:
	default:
		missing = append(missing, "Store.Backend")
	}

	if cfg.Media.MaxDimension <= 0 {
		missing = append(missing, "Media.MaxDimension")
	}
	if cfg.Media.JPEGQuality < 1 || cfg.Media.JPEGQuality > 100 {
		missing = append(missing, "Media.JPEGQuality")
	}
	if cfg.Media.MaxUploadBytes <= 0 {
		missing = append(missing, "Media.MaxUploadBytes")
	}
	if cfg.Media.MaxDocumentBytes <= 0 {
		missing = append(missing, "Media.MaxDocumentBytes")
	}
	switch cfg.Media.Mode {
	case MediaModeInline:
	case MediaModeBucket:
		if cfg.Storage.MediaBucket == "" {
			missing = append(missing, "Storage.MediaBucket")
		}
	default:
		missing = append(missing, "Media.Mode")
	}
	if strings.TrimSpace(cfg.Checkout.ChatNumber) == "" {
		missing = append(missing, "Checkout.ChatNumber")
	}
	if cfg.Events.Topic != "" && cfg.Events.ProjectID == "" {
		missing = append(missing, "Events.ProjectID")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func findMissingSecrets(required []string, resolved map[string]string) *MissingSecretsError {
	if len(required) == 0 {
		return nil
	}
	var missing []string
	seen := make(map[string]struct{})
	for _, name := range required {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		if strings.TrimSpace(resolved[trimmed]) != "" {
			continue
		}
		missing = append(missing, trimmed)
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingSecretsError{names: missing}
}

func isSecretReference(value string) bool {
	trimmed := strings.TrimSpace(value)
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func normalizeSecretReference(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "sm://") {
		return "secret://" + strings.TrimPrefix(trimmed, "sm://")
	}
	return trimmed
}

func redactSecretName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
