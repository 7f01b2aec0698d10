package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/votacao"
)

// WebhookNotifier avisa o backend dos tablets por POST a cada evento.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier devolve nil quando a URL não está configurada.
func NewWebhookNotifier(url string) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WebhookNotifier) Publish(ctx context.Context, ev votacao.Evento) error {
	if n == nil || n.url == "" {
		return errors.New("webhook notifier not configured")
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Votacao-Evento", ev.Tipo)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	return nil
}
