package live

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/access"
	"github.com/Jonsrn/PDSI-LegislaNet-MVP-sub001/internal/votacao"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisPublisherUsesCamaraChannel(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	camara := uuid.New()

	sub := client.Subscribe(ctx, Channel("votacao", camara))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev := votacao.Evento{Tipo: votacao.EventoStatus, PautaID: uuid.New(), CamaraID: camara, Status: votacao.StatusEmVotacao}
	if err := NewRedisPublisher(client, "").Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got votacao.Evento
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if got.PautaID != ev.PautaID || got.Status != votacao.StatusEmVotacao {
			t.Fatalf("evento inesperado: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("evento não recebido")
	}
}

func TestWebhookNotifier(t *testing.T) {
	if NewWebhookNotifier("") != nil {
		t.Fatalf("sem URL o notifier deve ser nil")
	}

	var (
		gotTipo string
		gotBody votacao.Evento
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTipo = r.Header.Get("X-Votacao-Evento")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := votacao.Evento{Tipo: votacao.EventoVoto, PautaID: uuid.New(), CamaraID: uuid.New()}
	if err := NewWebhookNotifier(srv.URL).Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotTipo != votacao.EventoVoto || gotBody.PautaID != ev.PautaID {
		t.Fatalf("webhook recebeu %q %+v", gotTipo, gotBody)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	if err := NewWebhookNotifier(failing.URL).Publish(context.Background(), ev); err == nil {
		t.Fatalf("resposta 502 deve falhar")
	}
}

type stubPublisher struct {
	calls int
	err   error
}

func (s *stubPublisher) Publish(context.Context, votacao.Evento) error {
	s.calls++
	return s.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	boom := errors.New("boom")
	ok := &stubPublisher{}
	bad := &stubPublisher{err: boom}

	err := Fanout{bad, nil, ok}.Publish(context.Background(), votacao.Evento{})
	if !errors.Is(err, boom) {
		t.Fatalf("erro agregado: %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("entregas: ok=%d bad=%d", ok.calls, bad.calls)
	}
}

func withRole(rc *access.RoleContext, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rc != nil {
			r = r.WithContext(access.WithRoleContext(r.Context(), *rc))
		}
		next.ServeHTTP(w, r)
	})
}

func TestStreamHandlerAccess(t *testing.T) {
	_, client := newRedis(t)
	h := NewStreamHandler(client, "votacao")
	camara := uuid.New()

	tests := []struct {
		name string
		rc   *access.RoleContext
		path string
		want int
	}{
		{"anônimo", nil, "/", http.StatusUnauthorized},
		{"super sem camara", &access.RoleContext{UserID: uuid.New(), Role: access.RoleSuperAdmin}, "/", http.StatusBadRequest},
		{"camara malformada", &access.RoleContext{UserID: uuid.New(), Role: access.RoleSuperAdmin}, "/?camara_id=x", http.StatusBadRequest},
		{"tv de outra camara", &access.RoleContext{UserID: uuid.New(), Role: access.RoleTV, CamaraID: &camara}, "/?camara_id=" + uuid.NewString(), http.StatusForbidden},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		withRole(tc.rc, h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != tc.want {
			t.Errorf("%s: esperado %d, obtido %d", tc.name, tc.want, rr.Code)
		}
	}
}

func TestStreamHandlerRelaysEvents(t *testing.T) {
	_, client := newRedis(t)
	camara := uuid.New()
	tv := &access.RoleContext{UserID: uuid.New(), Role: access.RoleTV, CamaraID: &camara}

	srv := httptest.NewServer(withRole(tv, NewStreamHandler(client, "votacao")))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if line, err := reader.ReadString('\n'); err != nil || !strings.HasPrefix(line, ": conectado") {
		t.Fatalf("saudação: %q %v", line, err)
	}

	ev := votacao.Evento{Tipo: votacao.EventoResultado, PautaID: uuid.New(), CamaraID: camara}
	if err := NewRedisPublisher(client, "votacao").Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("stream encerrado: %v", err)
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	if event != votacao.EventoResultado || !strings.Contains(data, ev.PautaID.String()) {
		t.Fatalf("evento retransmitido: %s %s", event, data)
	}
}
