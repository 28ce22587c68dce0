package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendNATS   = "nats"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Dir is the directory for the file backend.
	Dir string
	// NATSURL and Bucket configure the nats backend. An empty NATSURL
	// starts an embedded JetStream server persisting under Dir.
	NATSURL string
	Bucket  string
	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string
	RedisPrefix string
}

// Open connects the configured backend. The returned close function releases
// any connection and is never nil.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), noop, nil

	case BackendFile:
		fs, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("Using file storage", "dir", opts.Dir)
		return fs, noop, nil

	case BackendNATS:
		url, stop := opts.NATSURL, noop
		if url == "" {
			ns, err := startEmbeddedNATS(opts.Dir)
			if err != nil {
				return nil, noop, err
			}
			url, stop = ns.ClientURL(), ns.Shutdown
			logger.Debug("Started embedded NATS server", "url", url)
		}
		nc, err := nats.Connect(url, nats.Name("nightlife"))
		if err != nil {
			stop()
			return nil, noop, fmt.Errorf("connect to NATS at %s: %w", url, err)
		}
		closeAll := func() {
			nc.Close()
			stop()
		}
		js, err := jetstream.New(nc)
		if err != nil {
			closeAll()
			return nil, noop, fmt.Errorf("create jetstream context: %w", err)
		}
		kv, err := NewKVStore(ctx, js, opts.Bucket)
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		logger.Debug("Using NATS KV storage", "url", url, "bucket", opts.Bucket)
		return kv, closeAll, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}
		logger.Debug("Using redis storage", "addr", opts.RedisAddr)
		return NewRedisStore(client, opts.RedisPrefix), func() { _ = client.Close() }, nil
	}

	return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// startEmbeddedNATS runs an in-process JetStream server on a random port.
// JetStream state lives under dir when set, else in a temp directory.
func startEmbeddedNATS(dir string) (*server.Server, error) {
	opts := &server.Options{
		Port:      -1, // Random available port
		JetStream: true,
		NoLog:     true,
		NoSigs:    true,
	}
	if dir != "" {
		opts.StoreDir = filepath.Join(dir, "jetstream")
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start")
	}
	return ns, nil
}
