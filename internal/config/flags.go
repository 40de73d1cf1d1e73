package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

type NetAddress struct {
	Host string
	Port int
}

// FlagValues holds the destinations of the command-line flags registered by
// [RegisterFlags]. Call [FlagValues.Config] after the flag set was parsed.
type FlagValues struct {
	serverAddress  NetAddress
	adapterAddress string
	databaseDSN    string
	storageDriver  string
	redisAddress   string
	configPath     string
	tokenSignKey   string
	tokenIssuer    string
	tokenDuration  time.Duration
	requestTimeout time.Duration
	adapterToken   string
	syncInterval   time.Duration
	probeInterval  time.Duration
	maxRetries     int
	conflictPolicy string
	drainOrder     string
	logFile        string
}

// RegisterFlags registers every configuration flag on fs.
func RegisterFlags(fs *flag.FlagSet) *FlagValues {
	v := &FlagValues{}

	fs.Var(&v.serverAddress, "a", "Net address host:port")
	fs.StringVar(&v.adapterAddress, "server-url", "", "Sync server URL")
	fs.StringVar(&v.databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&v.storageDriver, "storage-driver", "", "Client store driver (sqlite|redis)")
	fs.StringVar(&v.redisAddress, "redis-address", "", "Redis address host:port")
	fs.StringVar(&v.configPath, "c", "", "JSON or YAML config file path")
	fs.StringVar(&v.configPath, "config", "", "JSON or YAML config file path (alias)")
	fs.StringVar(&v.tokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&v.tokenIssuer, "token-issuer", "", "Token issuer")
	fs.DurationVar(&v.tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	fs.DurationVar(&v.requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&v.adapterToken, "token", "", "Bearer token for the sync server")
	fs.DurationVar(&v.syncInterval, "sync-interval", 0, "Background sync interval")
	fs.DurationVar(&v.probeInterval, "probe-interval", 0, "Connectivity probe interval, negative disables")
	fs.IntVar(&v.maxRetries, "max-retries", 0, "Failed attempts before a task is dropped")
	fs.StringVar(&v.conflictPolicy, "conflict-policy", "", "client-wins|server-wins|merge")
	fs.StringVar(&v.drainOrder, "drain-order", "", "oldest-first|newest-first")
	fs.StringVar(&v.logFile, "log-file", "", "Client log file")

	return v
}

// Config converts the parsed flag values into a [StructuredConfig].
// A nil receiver yields nil.
func (v *FlagValues) Config() *StructuredConfig {
	if v == nil {
		return nil
	}

	return &StructuredConfig{
		App: App{
			TokenSignKey:  v.tokenSignKey,
			TokenIssuer:   v.tokenIssuer,
			TokenDuration: v.tokenDuration,
		},
		Storage: Storage{
			Driver: v.storageDriver,
			DB:     DB{DSN: v.databaseDSN},
			Redis:  Redis{Address: v.redisAddress},
		},
		Server: Server{
			HTTPAddress:    v.serverAddress.String(),
			RequestTimeout: v.requestTimeout,
		},
		Adapter: Adapter{
			HTTPAddress:    v.adapterAddress,
			RequestTimeout: v.requestTimeout,
			Token:          v.adapterToken,
		},
		Workers: Workers{
			SyncInterval:   v.syncInterval,
			ProbeInterval:  v.probeInterval,
			MaxRetries:     v.maxRetries,
			ConflictPolicy: v.conflictPolicy,
			DrainOrder:     v.drainOrder,
		},
		Log:      Log{File: v.logFile},
		FilePath: v.configPath,
	}
}

// ParseFlags parses args with a fresh flag set.
func ParseFlags(name string, args []string) (*StructuredConfig, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	values := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return values.Config(), nil
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
