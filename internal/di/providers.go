package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"SignalScan/internal/domain/repository"
	"SignalScan/internal/handler/api"
	"SignalScan/internal/handler/ws"
	internalrepo "SignalScan/internal/repository"
	"SignalScan/internal/service/marketdata"
	"SignalScan/internal/service/ratelimit"
	"SignalScan/internal/services/dedup"
	"SignalScan/internal/services/indicators"
	"SignalScan/internal/usecase"
	"SignalScan/pkg/cache"
	pkgch "SignalScan/pkg/clickhouse"
	"SignalScan/pkg/config"
	xhttp "SignalScan/pkg/http"
	pkgkafka "SignalScan/pkg/kafka"
	applogger "SignalScan/pkg/logger"
	"SignalScan/pkg/metrics"
	"SignalScan/pkg/server"

	"github.com/redis/go-redis/v9"
)

const userAgent = "Mozilla/5.0 (compatible; signalscan/1.0)"

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLocation resolves the timezone used for persisted timestamps.
func ProvideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

// ProvideLedger creates the in-memory dedup ledger.
func ProvideLedger(cfg *config.Config) *dedup.Ledger {
	return dedup.NewLedger(cfg.Dedup.Window)
}

// ProvideIndicatorEngine creates the talib-backed indicator engine.
func ProvideIndicatorEngine() repository.IndicatorEngine {
	return indicators.NewEngine(indicators.DefaultWindows)
}

// ProvideHTTPClient creates the outbound HTTP client shared by Yahoo and Firebase.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.MarketData.Timeout),
		xhttp.WithUserAgent(userAgent),
	)
}

// ProvideRedisClient connects to Redis when the store or the bar cache needs
// it. Returns nil otherwise.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Store.Backend != "redis" && cfg.MarketData.Cache.Backend != "redis" {
		return nil, nil
	}
	client, err := cache.NewRedisClient(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Scan.Workers*2, 2, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}
	return client, nil
}

// ProvideStore creates the persistence backend selected by store.backend.
func ProvideStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, hc *xhttp.Client) (repository.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return internalrepo.NewRedisStore(rdb, cfg.Redis.Prefix), nil
	case "firebase":
		return internalrepo.NewFirebaseStore(hc, cfg.Store.Firebase.DatabaseURL, cfg.Store.Firebase.AuthToken), nil
	case "clickhouse":
		return provideClickHouseStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func provideClickHouseStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewClickHouseStore(client)
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Init(initCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideBarCache creates the bar cache selected by market_data.cache.backend.
// Returns nil for "none".
func ProvideBarCache(cfg *config.Config, rdb *redis.Client) cache.BytesCache {
	switch cfg.MarketData.Cache.Backend {
	case "memory":
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(len(cfg.Scan.Symbols)*2),
			cache.WithMemoryCleanup(cfg.MarketData.Cache.TTL),
		)
	case "redis":
		return cache.NewRedisCache(rdb, cfg.Redis.Prefix)
	default:
		return nil
	}
}

// ProvideMarketData builds the provider chain: base provider, rate limit,
// then cache.
func ProvideMarketData(
	cfg *config.Config,
	hc *xhttp.Client,
	barCache cache.BytesCache,
	log *applogger.Logger,
) (repository.MarketData, error) {
	var base repository.MarketData
	switch cfg.MarketData.Provider {
	case "yahoo":
		base = marketdata.NewYahoo(hc,
			marketdata.WithBaseURL(cfg.MarketData.Yahoo.BaseURL),
			marketdata.WithSymbolSuffix(cfg.MarketData.SymbolSuffix),
		)
	case "polygon":
		p, err := marketdata.NewPolygon(cfg.MarketData.Polygon.APIKey)
		if err != nil {
			return nil, fmt.Errorf("polygon: %w", err)
		}
		base = p
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.MarketData.Provider)
	}

	var md repository.MarketData = marketdata.NewThrottled(base, ratelimit.New(),
		cfg.MarketData.Provider,
		cfg.MarketData.RateLimit.Capacity,
		cfg.MarketData.RateLimit.RefillPerSec,
	)
	if barCache != nil {
		md = marketdata.NewCached(md, barCache, cfg.MarketData.Cache.TTL, log)
	}
	return md, nil
}

// ProvideHub creates the websocket alert hub.
func ProvideHub(log *applogger.Logger, loc *time.Location) *ws.Hub {
	return ws.NewHub(log, loc)
}

// ProvideNotifier fans published signals out to websocket clients and, when
// enabled, Kafka.
func ProvideNotifier(cfg *config.Config, hub *ws.Hub, loc *time.Location) (repository.Notifier, error) {
	ns := internalrepo.Notifiers{hub}
	if !cfg.Kafka.Enabled {
		return ns, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.KafkaAcks()),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return append(ns, internalrepo.NewKafkaNotifier(producer, loc)), nil
}

// ProvidePublisher creates the store publisher.
func ProvidePublisher(
	cfg *config.Config,
	store repository.Store,
	ledger *dedup.Ledger,
	notifier repository.Notifier,
	m repository.Metrics,
	log *applogger.Logger,
	loc *time.Location,
) *usecase.Publisher {
	return usecase.NewPublisher(store, ledger, m, log,
		usecase.WithStoreTimeout(cfg.Store.Timeout),
		usecase.WithLocation(loc),
		usecase.WithNotifier(notifier),
	)
}

// ProvideScanner creates the per-pass scanner.
func ProvideScanner(
	cfg *config.Config,
	md repository.MarketData,
	engine repository.IndicatorEngine,
	publisher *usecase.Publisher,
	ledger *dedup.Ledger,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	return usecase.NewScanner(md, engine, publisher, ledger, m, log,
		usecase.WithWorkers(cfg.Scan.Workers),
		usecase.WithSymbolTimeout(cfg.Scan.SymbolTimeout),
		usecase.WithLookback(cfg.MarketData.Lookback, repository.Interval(cfg.MarketData.Interval)),
	)
}

// ProvideScanService creates the service shared by the scheduler and the API.
func ProvideScanService(
	cfg *config.Config,
	scanner *usecase.Scanner,
	ledger *dedup.Ledger,
	store repository.Store,
	log *applogger.Logger,
) *usecase.ScanService {
	return usecase.NewScanService(scanner, ledger, store, cfg.Scan.Symbols, log)
}

// ProvideHTTPServer mounts the REST and websocket handlers.
func ProvideHTTPServer(cfg *config.Config, log *applogger.Logger, scans *usecase.ScanService, hub *ws.Hub) *xhttp.Server {
	handlers := []xhttp.Handler{
		api.NewScanEchoHandler(log, scans),
		hub,
	}
	return xhttp.NewServer(log, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideApp creates the application. Resources close in dependency order:
// notifiers first, then the store, the bar cache and finally Redis.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	scans *usecase.ScanService,
	httpServer *xhttp.Server,
	publisher *usecase.Publisher,
	store repository.Store,
	barCache cache.BytesCache,
	rdb *redis.Client,
) *server.App {
	closers := []io.Closer{publisher, store}
	if barCache != nil {
		closers = append(closers, barCache)
	}
	if rdb != nil {
		closers = append(closers, rdb)
	}
	return server.New(cfg, log, scans, httpServer, closers...)
}
