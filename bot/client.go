package bot

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// RequestTimeout is how long a client waits for the bot's reply.
const RequestTimeout = 10 * time.Second

type Client struct {
	// NATS connection
	nc      *nats.Conn
	subject string
}

func NewClient(natsURL, subject string) (*Client, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Client{nc: nc, subject: subject}, nil
}

func (c *Client) Close() {
	c.nc.Close()
}

// Solve sends a puzzle to the bot and waits for the worked solution.
func (c *Client) Solve(target int, sources []int) (*SolveResponse, error) {
	data, err := json.Marshal(SolveRequest{Target: target, Sources: sources})
	if err != nil {
		return nil, err
	}
	res, err := c.nc.Request(c.subject, data, RequestTimeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))

	resp := &SolveResponse{}
	if err := json.Unmarshal(res.Data, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("bot returned: " + resp.Error)
	}
	return resp, nil
}
