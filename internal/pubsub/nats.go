package pubsub

import (
	"encoding/json"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"poker-room/internal/game"
	"poker-room/internal/table"
)

const LobbySubject = "poker.lobby"

func TableSubject(tableID int) string {
	return "poker.tables." + strconv.Itoa(tableID)
}

// ResultSubject carries settled hands, one message per hand.
func ResultSubject(tableID int) string {
	return TableSubject(tableID) + ".results"
}

// Publisher mirrors public table state onto NATS. It implements
// lobby.Notifier and never sees private hole cards.
type Publisher struct {
	conn *nats.Conn
}

func Connect(url, token string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("poker-room"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats_disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats_reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	log.Info().Str("url", conn.ConnectedUrl()).Msg("nats_connected")
	return NewPublisher(conn), nil
}

func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) publish(subject string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("nats_encode_failed")
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		metricPublishErrors.Add(1)
		log.Warn().Err(err).Str("subject", subject).Msg("nats_publish_failed")
		return
	}
	metricPublished.Add(1)
}

func (p *Publisher) TableUpdated(u table.Update) {
	p.publish(TableSubject(u.TableID), u.Public)
	if u.Result != nil {
		p.publish(ResultSubject(u.TableID), u.Result)
	}
}

func (p *Publisher) LobbyUpdated(tables []game.LobbyInfo) {
	p.publish(LobbySubject, tables)
}

// Close flushes pending messages before closing the connection.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
