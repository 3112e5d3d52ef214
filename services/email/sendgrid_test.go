package emailsvc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matkerbino/murim/core"
	testutil "github.com/matkerbino/murim/tests"
)

type sendgridStub struct {
	mu       sync.Mutex
	statuses []int
	bodies   []map[string]interface{}
	auth     []string
}

func (s *sendgridStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	s.auth = append(s.auth, r.Header.Get("Authorization"))

	status := http.StatusAccepted
	if len(s.statuses) > 0 {
		status, s.statuses = s.statuses[0], s.statuses[1:]
	}
	w.WriteHeader(status)
}

func newTestSendgrid(t *testing.T, statuses ...int) (*SendgridService, *sendgridStub) {
	stub := &sendgridStub{statuses: statuses}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig("http://localhost")
	conf.SendgridApiKey = "sg-key"
	svc := NewSendgridService(conf, &testutil.Logger{})
	svc.host = srv.URL
	svc.backoff = 0
	return svc, stub
}

func TestSendgridService_send(t *testing.T) {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: "Academia", Address: "contato@murim.com"}},
		ReplyTo:     &mail.Address{Name: "Ana", Address: "ana@murim.com"},
		Subject:     "Novo contato",
		TextContent: "Quero saber dos horários.",
	}

	t.Run("payload", func(t *testing.T) {
		svc, stub := newTestSendgrid(t)
		require.NoError(t, svc.send(svc.mailV3(msg)))

		require.Len(t, stub.bodies, 1)
		body := stub.bodies[0]
		assert.Equal(t, "Bearer sg-key", stub.auth[0])
		assert.Equal(t, "ana@murim.com", body["reply_to"].(map[string]interface{})["email"])
		p := body["personalizations"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "[Academia Murim] Novo contato", p["subject"])
		assert.Equal(t, "contato@murim.com", p["to"].([]interface{})[0].(map[string]interface{})["email"])
		assert.Nil(t, p["cc"])
		assert.Len(t, body["content"], 1)
	})

	t.Run("retries throttled and server errors", func(t *testing.T) {
		svc, stub := newTestSendgrid(t, http.StatusTooManyRequests, http.StatusServiceUnavailable)
		require.NoError(t, svc.send(svc.mailV3(msg)))
		assert.Len(t, stub.bodies, 3)
	})

	t.Run("gives up", func(t *testing.T) {
		svc, stub := newTestSendgrid(t, 500, 500, 500)
		err := svc.send(svc.mailV3(msg))
		assert.ErrorContains(t, err, "giving up after 3 attempts")
		assert.Len(t, stub.bodies, 3)
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		svc, stub := newTestSendgrid(t, http.StatusBadRequest)
		assert.ErrorContains(t, svc.send(svc.mailV3(msg)), "status 400")
		assert.Len(t, stub.bodies, 1)
	})
}
