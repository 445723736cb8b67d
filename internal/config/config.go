package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

const (
	sqliteDb = "sqlite"
	badgerDb = "badger"

	envPrefix = "SENTINEL"
)

type Config struct {
	Datadir          string `mapstructure:"DATADIR" envDefault:"sentinel" envInfo:"Data directory for Sentinel state"`
	DbType           string `mapstructure:"DB_TYPE" envDefault:"badger" envInfo:"Database backend: badger | sqlite"`
	GRPCPort         uint32 `mapstructure:"GRPC_PORT" envDefault:"7000" envInfo:"gRPC health server port"`
	HTTPPort         uint32 `mapstructure:"HTTP_PORT" envDefault:"7001" envInfo:"HTTP server port"`
	LogLevel         uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`
	DisableTelemetry bool   `mapstructure:"DISABLE_TELEMETRY" envDefault:"false" envInfo:"Disable error reporting"`
	SentryDSN        string `mapstructure:"SENTRY_DSN" envDefault:"" envInfo:"Sentry DSN, error reporting is off when empty"`

	RpcURL            string        `mapstructure:"RPC_URL" envDefault:"https://api.mainnet-beta.solana.com" envInfo:"Solana JSON-RPC endpoint"`
	RpcCommitment     string        `mapstructure:"RPC_COMMITMENT" envDefault:"confirmed" envInfo:"Commitment level: processed | confirmed | finalized"`
	RpcRps            float64       `mapstructure:"RPC_RPS" envDefault:"10" envInfo:"Max RPC requests per second, 0 disables the limit"`
	RpcMaxInflight    int           `mapstructure:"RPC_MAX_INFLIGHT" envDefault:"8" envInfo:"Max concurrent RPC requests"`
	RpcMaxAttempts    int           `mapstructure:"RPC_MAX_ATTEMPTS" envDefault:"5" envInfo:"Max attempts per RPC request"`
	RpcBaseDelay      time.Duration `mapstructure:"RPC_BASE_DELAY" envDefault:"500ms" envInfo:"Initial retry backoff"`
	RpcMaxDelay       time.Duration `mapstructure:"RPC_MAX_DELAY" envDefault:"10s" envInfo:"Max retry backoff"`
	RpcRequestTimeout time.Duration `mapstructure:"RPC_REQUEST_TIMEOUT" envDefault:"30s" envInfo:"Timeout of a single RPC attempt"`

	ProgramID           string `mapstructure:"PROGRAM_ID" envDefault:"" envInfo:"Capsule program id (required)"`
	DelegationProgramID string `mapstructure:"DELEGATION_PROGRAM_ID" envDefault:"DELeGGvXpWV2fqJUhqcF5ZSYMS4JTLjteaAMARRSaeSh" envInfo:"Delegation program id"`

	HeliusURL    string `mapstructure:"HELIUS_URL" envDefault:"https://api.helius.xyz" envInfo:"Enhanced transaction history endpoint"`
	HeliusApiKey string `mapstructure:"HELIUS_API_KEY" envDefault:"" envInfo:"Enhanced history api key, the provider is off when empty"`

	ScanPageSize     int `mapstructure:"SCAN_PAGE_SIZE" envDefault:"100" envInfo:"Signatures per history page"`
	ScanMaxPages     int `mapstructure:"SCAN_MAX_PAGES" envDefault:"50" envInfo:"Max signature history pages per scan"`
	FetchConcurrency int `mapstructure:"FETCH_CONCURRENCY" envDefault:"8" envInfo:"Concurrent transaction fetches"`

	CrankSecret      string        `mapstructure:"CRANK_SECRET" envDefault:"" envInfo:"Bearer secret of the crank endpoint"`
	CrankSignerKey   string        `mapstructure:"CRANK_SIGNER_KEY" envDefault:"" envInfo:"Crank signer key: JSON byte array, base58 or base64"`
	CrankInterval    time.Duration `mapstructure:"CRANK_INTERVAL" envDefault:"0s" envInfo:"In-process crank interval, 0 disables it"`
	CrankConcurrency int           `mapstructure:"CRANK_CONCURRENCY" envDefault:"4" envInfo:"Concurrent capsule executions"`

	programID         solana.PublicKey
	delegationProgram solana.PublicKey
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	if err := config.initPrograms(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) ProgramKey() solana.PublicKey {
	return c.programID
}

func (c *Config) DelegationProgramKey() solana.PublicKey {
	return c.delegationProgram
}

// Signer parses the crank signer key on every call, so that a missing or
// invalid key is reported by each crank invocation rather than at startup.
func (c *Config) Signer() (solana.PrivateKey, error) {
	return ParseSignerKey(c.CrankSignerKey)
}

func (c *Config) initPrograms() error {
	if c.ProgramID == "" {
		return fmt.Errorf("%w: %s_%s is required", domain.ErrConfiguration, envPrefix, ProgramID)
	}
	programID, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return fmt.Errorf("%w: invalid program id: %s", domain.ErrConfiguration, err)
	}
	delegation, err := solana.PublicKeyFromBase58(c.DelegationProgramID)
	if err != nil {
		return fmt.Errorf("%w: invalid delegation program id: %s", domain.ErrConfiguration, err)
	}
	c.programID = programID
	c.delegationProgram = delegation
	return nil
}

func (c *Config) initDb() error {
	supportedDbType := map[string]struct{}{
		sqliteDb: {},
		badgerDb: {},
	}

	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	if c.Datadir == DefaultDatadir {
		c.Datadir = appDatadir(DefaultDatadir, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.Datadir)
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDatadir returns an operating system specific directory to be used for
// storing application data for an application.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows XP and before didn't have a LOCALAPPDATA.
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "."
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: os.ExpandEnv doesn't expand Windows-style %VARIABLE%.
	return filepath.Clean(os.ExpandEnv(path))
}
