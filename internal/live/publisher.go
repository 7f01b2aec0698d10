package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/votacao"
)

// Channel devolve o canal Redis da câmara: <prefixo>:camara:<id>.
func Channel(prefix string, camaraID uuid.UUID) string {
	return fmt.Sprintf("%s:camara:%s", prefix, camaraID)
}

// RedisPublisher publica eventos no canal da câmara.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "votacao"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev votacao.Evento) error {
	if p == nil || p.client == nil {
		return errors.New("redis publisher not configured")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, Channel(p.prefix, ev.CamaraID), payload).Err()
}

// Fanout entrega o evento a todos os destinos e agrega as falhas.
type Fanout []votacao.Publisher

func (f Fanout) Publish(ctx context.Context, ev votacao.Evento) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
