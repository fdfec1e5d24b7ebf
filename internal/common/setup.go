package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"teo-client-go/internal/agent"
	"teo-client-go/internal/api"
	"teo-client-go/internal/auth"
	"teo-client-go/internal/backend"
	"teo-client-go/internal/challenge"
	"teo-client-go/internal/database"
	"teo-client-go/internal/discount"
	"teo-client-go/internal/events"
	"teo-client-go/internal/models"
	"teo-client-go/internal/retry"
	"teo-client-go/internal/token"
	"teo-client-go/internal/wallet"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("Loaded environment variables from .env file")
	}
}

// Services is the client-side object graph shared by the commands.
type Services struct {
	Backend  *backend.Client
	Tokens   *auth.Source
	Network  models.Network
	Agent    agent.Adapter
	Keystore *agent.KeystoreAgent
	Bus      *events.Bus
	Retry    retry.Policy

	rpcAgent  *agent.RPCAgent
	ethClient *ethclient.Client
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices builds the backend client, the signing agent and the
// event bus. prompt is handed to the keystore agent and may be nil.
func InitializeServices(ctx context.Context, cfg *models.Config, prompt agent.Prompter) (*Services, error) {
	networks, err := LoadNetworks(cfg.API.NetworksFile)
	if err != nil {
		return nil, err
	}
	network, err := FindNetwork(networks, cfg.API.Network)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Using network",
		zap.String("name", network.Name),
		zap.Uint64("chain_id", network.ChainID))

	tokens := TokenSource(cfg)
	client, err := backend.New(cfg.API.BaseURL,
		backend.WithTokenSource(tokens),
		backend.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	services := &Services{
		Backend: client,
		Tokens:  tokens,
		Network: *network,
		Bus:     events.NewBus(),
		Retry:   RetryPolicy(cfg),
	}

	switch {
	case cfg.Agent.RPCURL != "":
		zap.L().Info("Using JSON-RPC signing agent", zap.String("url", cfg.Agent.RPCURL))
		services.rpcAgent = agent.NewRPCAgent(cfg.Agent.RPCURL)
		services.Agent = services.rpcAgent
	case cfg.Agent.KeyHex != "":
		opts := []agent.KeystoreOption{agent.WithKnownChains(networks...)}
		if prompt != nil {
			opts = append(opts, agent.WithPrompter(prompt))
		}
		ks, err := agent.NewKeystoreAgent(cfg.Agent.KeyHex, opts...)
		if err != nil {
			return nil, err
		}
		zap.L().Info("Using keystore signing agent", zap.String("address", ks.Address()))
		services.Keystore = ks
		services.Agent = ks
	default:
		zap.L().Warn("No signing agent configured (set TEO_AGENT_RPC_URL or TEO_AGENT_KEY)")
	}

	return services, nil
}

// InitializeDatabase opens the reference backend's store.
func InitializeDatabase(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// TokenSource prefers TEO_TOKEN over the token file.
func TokenSource(cfg *models.Config) *auth.Source {
	if cfg.API.Token != "" {
		return auth.NewStatic(cfg.API.Token)
	}
	return auth.NewFile(cfg.API.TokenFile)
}

func RetryPolicy(cfg *models.Config) retry.Policy {
	return retry.Policy{MaxRetries: cfg.Retry.MaxRetries, Base: cfg.Retry.Base}
}

// NewSession wires a wallet session; it fails when no agent is configured.
func (s *Services) NewSession() (*wallet.Session, error) {
	if s.Agent == nil {
		return nil, fmt.Errorf("no signing agent configured")
	}
	return wallet.NewSession(wallet.SessionConfig{
		Agent:      s.Agent,
		Challenges: challenge.NewClient(s.Backend),
		Backend:    s.Backend,
		Network:    s.Network,
		Events:     s.Bus,
		Retry:      s.Retry,
	}), nil
}

func (s *Services) NewSnapshotStore() *discount.SnapshotStore {
	return discount.NewSnapshotStore(s.Backend, s.Retry)
}

func (s *Services) NewReconciler() *discount.Reconciler {
	return discount.NewReconciler(s.Backend, s.Retry)
}

func (s *Services) NewGateway(n discount.Notifier) *discount.Gateway {
	return discount.NewGateway(s.Backend, s.Retry, n, s.Bus)
}

// NewBalanceService dials the network's TEO token when one is configured.
// Without it only backend-side operations are available.
func (s *Services) NewBalanceService(ctx context.Context) (*api.BalanceService, error) {
	if s.Network.TokenAddress == "" || s.Network.RPCURL == "" {
		return api.NewBalanceService(s.Backend, nil, s.Bus, s.Retry), nil
	}

	contract, ethClient, err := token.Dial(ctx, s.Network.RPCURL, s.Network.TokenAddress)
	if err != nil {
		return nil, err
	}
	if _, err := contract.LoadDecimals(ctx); err != nil {
		zap.L().Warn("Failed to load token decimals, assuming default",
			zap.Int32("decimals", token.DefaultDecimals),
			zap.Error(err))
	}
	s.ethClient = ethClient
	return api.NewBalanceService(s.Backend, contract, s.Bus, s.Retry), nil
}

func (s *Services) Close() {
	if s.rpcAgent != nil {
		s.rpcAgent.Close()
	}
	if s.ethClient != nil {
		s.ethClient.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
