package config

import "fmt"

// Env variable names under the SENTINEL_ prefix.
const (
	Datadir             = "DATADIR"
	DbType              = "DB_TYPE"
	GRPCPort            = "GRPC_PORT"
	HTTPPort            = "HTTP_PORT"
	LogLevel            = "LOG_LEVEL"
	DisableTelemetry    = "DISABLE_TELEMETRY"
	SentryDSN           = "SENTRY_DSN"
	RpcURL              = "RPC_URL"
	RpcCommitment       = "RPC_COMMITMENT"
	RpcRps              = "RPC_RPS"
	RpcMaxInflight      = "RPC_MAX_INFLIGHT"
	RpcMaxAttempts      = "RPC_MAX_ATTEMPTS"
	RpcBaseDelay        = "RPC_BASE_DELAY"
	RpcMaxDelay         = "RPC_MAX_DELAY"
	RpcRequestTimeout   = "RPC_REQUEST_TIMEOUT"
	ProgramID           = "PROGRAM_ID"
	DelegationProgramID = "DELEGATION_PROGRAM_ID"
	HeliusURL           = "HELIUS_URL"
	HeliusApiKey        = "HELIUS_API_KEY"
	ScanPageSize        = "SCAN_PAGE_SIZE"
	ScanMaxPages        = "SCAN_MAX_PAGES"
	FetchConcurrency    = "FETCH_CONCURRENCY"
	CrankSecret         = "CRANK_SECRET"
	CrankSignerKey      = "CRANK_SIGNER_KEY"
	CrankInterval       = "CRANK_INTERVAL"
	CrankConcurrency    = "CRANK_CONCURRENCY"
)

const (
	DefaultDatadir             = "sentinel"
	DefaultDbType              = badgerDb
	DefaultGRPCPort            = uint32(7000)
	DefaultHTTPPort            = uint32(7001)
	DefaultLogLevel            = uint32(4)
	DefaultDisableTelemetry    = false
	DefaultRpcURL              = "https://api.mainnet-beta.solana.com"
	DefaultRpcCommitment       = "confirmed"
	DefaultRpcRps              = 10
	DefaultRpcMaxInflight      = 8
	DefaultRpcMaxAttempts      = 5
	DefaultRpcBaseDelay        = "500ms"
	DefaultRpcMaxDelay         = "10s"
	DefaultRpcRequestTimeout   = "30s"
	DefaultDelegationProgramID = "DELeGGvXpWV2fqJUhqcF5ZSYMS4JTLjteaAMARRSaeSh"
	DefaultHeliusURL           = "https://api.helius.xyz"
	DefaultScanPageSize        = 100
	DefaultScanMaxPages        = 50
	DefaultFetchConcurrency    = 8
	DefaultCrankInterval       = "0s"
	DefaultCrankConcurrency    = 4
)

type EnvVar struct {
	Name        string // short name under the SENTINEL_ prefix (e.g., "DATADIR")
	FullName    string // e.g., "SENTINEL_DATADIR"
	Type        string // human-readable type
	Default     string // default value as a string ("" if none)
	Description string // one-liner for docs
	Notes       string // optional: constraints or accepted formats
	Group       string // section of the generated docs
}

func EnvSpecs() []EnvVar {
	const P = "SENTINEL_"

	specs := []EnvVar{
		{
			Name:        Datadir,
			Group:       "Server",
			Type:        "string (path)",
			Default:     DefaultDatadir,
			Description: "Data directory for Sentinel state",
		},
		{
			Name:        DbType,
			Group:       "Server",
			Type:        "string",
			Default:     DefaultDbType,
			Description: "Database backend: badger | sqlite",
		},
		{
			Name:        GRPCPort,
			Group:       "Server",
			Type:        "uint32 (port)",
			Default:     fmt.Sprintf("%d", DefaultGRPCPort),
			Description: "gRPC health server port",
		},
		{
			Name:        HTTPPort,
			Group:       "Server",
			Type:        "uint32 (port)",
			Default:     fmt.Sprintf("%d", DefaultHTTPPort),
			Description: "HTTP server port",
		},
		{
			Name:        LogLevel,
			Group:       "Server",
			Type:        "uint32 (0–6)",
			Default:     fmt.Sprintf("%d", DefaultLogLevel),
			Description: "Log verbosity (higher = more verbose)",
		},
		{
			Name:        DisableTelemetry,
			Group:       "Server",
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultDisableTelemetry),
			Description: "Disable error reporting",
		},
		{
			Name:        SentryDSN,
			Group:       "Server",
			Type:        "string (DSN)",
			Description: "Sentry DSN, error reporting is off when empty",
		},
		{
			Name:        RpcURL,
			Group:       "Ledger RPC",
			Type:        "string (URL)",
			Default:     DefaultRpcURL,
			Description: "Solana JSON-RPC endpoint",
		},
		{
			Name:        RpcCommitment,
			Group:       "Ledger RPC",
			Type:        "string",
			Default:     DefaultRpcCommitment,
			Description: "Commitment level: processed | confirmed | finalized",
		},
		{
			Name:        RpcRps,
			Group:       "Ledger RPC",
			Type:        "float",
			Default:     fmt.Sprintf("%d", DefaultRpcRps),
			Description: "Max RPC requests per second, 0 disables the limit",
		},
		{
			Name:        RpcMaxInflight,
			Group:       "Ledger RPC",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultRpcMaxInflight),
			Description: "Max concurrent RPC requests",
			Notes:       "Also the burst size of the rate limiter.",
		},
		{
			Name:        RpcMaxAttempts,
			Group:       "Ledger RPC",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultRpcMaxAttempts),
			Description: "Max attempts per RPC request",
		},
		{
			Name:        RpcBaseDelay,
			Group:       "Ledger RPC",
			Type:        "duration",
			Default:     DefaultRpcBaseDelay,
			Description: "Initial retry backoff",
		},
		{
			Name:        RpcMaxDelay,
			Group:       "Ledger RPC",
			Type:        "duration",
			Default:     DefaultRpcMaxDelay,
			Description: "Max retry backoff",
		},
		{
			Name:        RpcRequestTimeout,
			Group:       "Ledger RPC",
			Type:        "duration",
			Default:     DefaultRpcRequestTimeout,
			Description: "Timeout of a single RPC attempt",
		},
		{
			Name:        ProgramID,
			Group:       "Programs",
			Type:        "string (base58)",
			Description: "Capsule program id",
			Notes:       "Required.",
		},
		{
			Name:        DelegationProgramID,
			Group:       "Programs",
			Type:        "string (base58)",
			Default:     DefaultDelegationProgramID,
			Description: "Delegation program id",
			Notes:       "Capsules owned by this program are skipped by the crank.",
		},
		{
			Name:        HeliusURL,
			Group:       "Indexer",
			Type:        "string (URL)",
			Default:     DefaultHeliusURL,
			Description: "Enhanced transaction history endpoint",
		},
		{
			Name:        HeliusApiKey,
			Group:       "Indexer",
			Type:        "string",
			Description: "Enhanced history api key",
			Notes:       "The enhanced history provider is off when empty.",
		},
		{
			Name:        ScanPageSize,
			Group:       "Indexer",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultScanPageSize),
			Description: "Signatures per history page",
		},
		{
			Name:        ScanMaxPages,
			Group:       "Indexer",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultScanMaxPages),
			Description: "Max signature history pages per scan",
		},
		{
			Name:        FetchConcurrency,
			Group:       "Indexer",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultFetchConcurrency),
			Description: "Concurrent transaction fetches",
		},
		{
			Name:        CrankSecret,
			Group:       "Crank",
			Type:        "string",
			Description: "Bearer secret of the crank endpoint",
			Notes:       "When empty the crank endpoint accepts every caller.",
		},
		{
			Name:        CrankSignerKey,
			Group:       "Crank",
			Type:        "string",
			Description: "Crank signer key: JSON byte array, base58 or base64",
			Notes:       "Missing or invalid keys fail every crank run with a configuration error.",
		},
		{
			Name:        CrankInterval,
			Group:       "Crank",
			Type:        "duration",
			Default:     DefaultCrankInterval,
			Description: "In-process crank interval, 0 disables it",
		},
		{
			Name:        CrankConcurrency,
			Group:       "Crank",
			Type:        "int",
			Default:     fmt.Sprintf("%d", DefaultCrankConcurrency),
			Description: "Concurrent capsule executions",
		},
	}

	for i := range specs {
		specs[i].FullName = P + specs[i].Name
	}
	return specs
}

//go:generate go run ../../tools/gen-env-doc/main.go -out ../../docs/environment.md
