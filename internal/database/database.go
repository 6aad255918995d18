package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
)

const (
	DefaultDatabase = "windowcalculator"
	connectTimeout  = 10 * time.Second
)

// Connections regroupe les clients ouverts au démarrage. Un champ nil = store indisponible.
type Connections struct {
	Mongo    *mongo.Client
	Database *mongo.Database
	Redis    *redis.Client
}

// =============================================
// MONGODB
// =============================================

// DatabaseName extrait le nom de base du chemin de l'URI (mongodb://host/<db>).
func DatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultDatabase
	}
	return name
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(DatabaseName(uri)), nil
}

// =============================================
// REDIS
// =============================================

func ConnectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("REDIS_HOST is not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Connect ouvre MongoDB puis Redis. Un échec est loggé et laisse le champ à nil :
// l'appelant bascule alors sur les stores en mémoire.
func Connect(ctx context.Context, mongoURI, redisAddr, redisPassword string, log *logger.Logger) *Connections {
	conns := &Connections{}

	client, db, err := ConnectMongo(ctx, mongoURI)
	if err != nil {
		log.Error("❌ MongoDB connection error, calculations kept in memory", zap.Error(err))
	} else {
		conns.Mongo, conns.Database = client, db
		log.Info("✅ Connected to MongoDB", zap.String("database", db.Name()))
	}

	rdb, err := ConnectRedis(ctx, redisAddr, redisPassword)
	if err != nil {
		log.Error("❌ Redis connection error, carts kept in memory", zap.Error(err))
	} else {
		conns.Redis = rdb
		log.Info("✅ Connected to Redis", zap.String("addr", redisAddr))
	}

	return conns
}

// PingMongo et PingRedis servent au /healthz.
func (c *Connections) PingMongo(ctx context.Context) error {
	if c.Mongo == nil {
		return errors.New("not connected (in-memory fallback)")
	}
	return c.Mongo.Ping(ctx, readpref.Primary())
}

func (c *Connections) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return errors.New("not connected (in-memory fallback)")
	}
	return c.Redis.Ping(ctx).Err()
}

func (c *Connections) Close(ctx context.Context) error {
	var errs []error
	if c.Mongo != nil {
		errs = append(errs, c.Mongo.Disconnect(ctx))
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
