package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/envutil"
)

// Logger wraps a sugared zap logger and scrubs sensitive values before they
// reach a sink. Credentials and upload URLs are replaced outright; stable
// account identifiers are hashed so related lines still correlate.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if raw := envutil.String("LOG_LEVEL", ""); raw != "" {
		if lvl, err := zap.ParseAtomicLevel(raw); err == nil {
			cfg.Level = lvl
		}
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Test helper.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, scrub(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, scrub(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, scrub(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, scrub(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, scrub(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(scrub(keysAndValues)...)}
}

// Key fragments matched case-insensitively against log keys. Redacted values
// disappear; hashed values keep a stable 12-hex-digit handle.
var (
	redactFragments = []string{
		"token", "secret", "authorization", "cookie",
		"api_key", "apikey", "email", "upload_key", "upload_url",
	}
	hashFragments = []string{"subject_id", "owner_id", "identity_id"}
)

const redactedPlaceholder = "[REDACTED]"

func scrub(kv []interface{}) []interface{} {
	if len(kv) == 0 || !scrubbing() {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := strings.ToLower(strings.TrimSpace(stringify(out[i])))
		switch {
		case matchesAny(key, redactFragments):
			out[i+1] = redactedPlaceholder
		case matchesAny(key, hashFragments):
			out[i+1] = hashed(stringify(out[i+1]))
		default:
			if s, ok := out[i+1].(string); ok && looksLikeJWT(s) {
				out[i+1] = redactedPlaceholder
			}
		}
	}
	return out
}

func matchesAny(key string, fragments []string) bool {
	if key == "" {
		return false
	}
	for _, frag := range fragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

func hashed(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(hashSalt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

// looksLikeJWT flags three dot-separated segments long enough to be a signed
// token that slipped into a value position under a benign key.
func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

var (
	scrubOnce sync.Once
	scrubOn   bool
	hashSalt  string
)

func scrubbing() bool {
	scrubOnce.Do(func() {
		scrubOn = envutil.Bool("LOG_REDACTION_ENABLED", true)
		hashSalt = envutil.String("LOG_HASH_SALT", "")
	})
	return scrubOn
}
