package config

import (
	"fmt"
	"strings"
)

// StorageBackend selects where the credential pair persists.
type StorageBackend string

const (
	// StorageBackendFile keeps credentials in a file under the user config dir.
	StorageBackendFile StorageBackend = "file"
	// StorageBackendRedis keeps credentials in Redis for shared/headless environments.
	StorageBackendRedis StorageBackend = "redis"
	// StorageBackendMemory keeps credentials in process memory only (tests, one-shot scripts).
	StorageBackendMemory StorageBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis", "memory":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: file, redis, memory)", v)
	}
}

// StorageConfig selects and configures the credential store.
type StorageConfig struct {
	// Backend determines which token store adapter to use.
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`

	// Path overrides the credentials file location for the file backend.
	// Empty means the conventional path under the user config dir.
	Path string `env:"PATH"`

	// RedisKey is the key holding the credential pair for the redis backend.
	RedisKey string `env:"REDIS_KEY" envDefault:"synthea:credentials"`
}

// RedisConfig contains Redis connection configuration for the redis storage backend.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
