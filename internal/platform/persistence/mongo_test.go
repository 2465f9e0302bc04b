package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoDB_Database(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns database", func(mt *mtest.T) {
		mdb := &MongoDB{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), client: mt.Client, database: mt.DB}
		assert.Equal(mt, mt.DB, mdb.Database(), "Database() should return the initialized database instance")
		assert.Equal(mt, "ledger_archive", mdb.Collection("ledger_archive").Name())
	})
}

func TestMongoDB_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mt.Run("creates indexes", func(mt *mtest.T) {
		mdb := &MongoDB{logger: logger, client: mt.Client, database: mt.DB}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := mdb.EnsureIndexes(context.Background(), "ledger_archive",
			mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: 1}}})
		assert.NoError(mt, err)
	})

	mt.Run("no models is a no-op", func(mt *mtest.T) {
		mdb := &MongoDB{logger: logger, client: mt.Client, database: mt.DB}

		assert.NoError(mt, mdb.EnsureIndexes(context.Background(), "ledger_archive"))
	})

	mt.Run("command error", func(mt *mtest.T) {
		mdb := &MongoDB{logger: logger, client: mt.Client, database: mt.DB}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Message: "index conflict"}))

		err := mdb.EnsureIndexes(context.Background(), "ledger_archive",
			mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: 1}}})
		assert.ErrorContains(mt, err, "failed to create indexes on ledger_archive")
	})
}
