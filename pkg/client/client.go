package client

import (
	"context"
	"time"

	"salonbliss/pkg/logger"
)

// Client bundles the external clients the process owns. Lifecycle belongs to
// startup/shutdown; components receive it by injection, never as a package
// global.
type Client struct {
	Mongo *MongoClient

	log *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.log = log
	c.Mongo = NewMongoClient(log, mongoURI, mongoConnTimeout)
}

func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := c.Mongo.Client.Disconnect(ctx); err != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
			return
		}
		c.log.Info("Disconnected from MongoDB")
	}
}
