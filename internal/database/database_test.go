package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window_calculator/internal/logger"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "windowcalculator", DatabaseName("mongodb://localhost:27017/windowcalculator"))
	assert.Equal(t, "shop", DatabaseName("mongodb://localhost:27017/shop?retryWrites=true"))
	assert.Equal(t, DefaultDatabase, DatabaseName("mongodb://localhost:27017"))
	assert.Equal(t, DefaultDatabase, DatabaseName("mongodb://localhost:27017/"))
	assert.Equal(t, DefaultDatabase, DatabaseName("::not a uri"))
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "", "")
	assert.Error(t, err)
}

func TestConnections_Unconnected(t *testing.T) {
	conns := &Connections{}
	assert.Error(t, conns.PingMongo(context.Background()))
	assert.Error(t, conns.PingRedis(context.Background()))
	assert.NoError(t, conns.Close(context.Background()))
}

func TestConnect_RedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)

	// port fermé : Mongo échoue, Redis répond
	conns := Connect(context.Background(), "mongodb://127.0.0.1:1/x?serverSelectionTimeoutMS=200&connectTimeoutMS=200", mr.Addr(), "", logger.Nop())
	defer conns.Close(context.Background())

	assert.Nil(t, conns.Mongo)
	assert.NotNil(t, conns.Redis)
	assert.NoError(t, conns.PingRedis(context.Background()))
}
