package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/fx"

	"github.com/polkiloo/grocerymart/internal/adapter/publisher"
	"github.com/polkiloo/grocerymart/internal/config"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/metrics"
	testhelpers "github.com/polkiloo/grocerymart/internal/test"
	"github.com/polkiloo/grocerymart/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRelay() *worker.OutboxRelay {
	return worker.NewOutboxRelay(&testhelpers.OutboxRepositoryStub{}, publisher.NewLogPublisher(discardLogger()), metrics.New(), 10*time.Millisecond, 1, 1, discardLogger())
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewOutboxRelayPublishesClaimedEvents(t *testing.T) {
	claimed := false
	outbox := &testhelpers.OutboxRepositoryStub{ClaimFn: func(context.Context, int) ([]model.OutboxEvent, error) {
		if claimed {
			return nil, nil
		}
		claimed = true
		return []model.OutboxEvent{{ID: 1, EventID: "e-1", Topic: "grocerymart.orders"}}, nil
	}}
	m := metrics.New()
	relay := newOutboxRelay(relayParams{
		Outbox:    outbox,
		Publisher: publisher.NewLogPublisher(discardLogger()),
		Metrics:   m,
		Config:    &config.Config{OutboxPollInterval: 5 * time.Millisecond, OutboxBatchSize: 10, OutboxWorkers: 1},
		Logger:    discardLogger(),
	})

	relay.Start(context.Background())
	deadline := time.After(time.Second)
	for len(outbox.SentIDs()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for relay")
		case <-time.After(5 * time.Millisecond):
		}
	}
	relay.Stop()

	if got := testutil.ToFloat64(m.Outbox.WithLabelValues("sent")); got != 1 {
		t.Fatalf("expected one sent event counted, got %v", got)
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     server,
		Relay:      newTestRelay(),
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     discardLogger(),
		Server:     &http.Server{Addr: "bad addr"},
		Relay:      newTestRelay(),
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	hook := recorder.Hooks[0]
	if err := hook.OnStart(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = hook.OnStop(context.Background())
}

func TestLifecycleRecorderReplaysHooks(t *testing.T) {
	var calls []string
	recorder := &testhelpers.LifecycleRecorder{}
	for _, name := range []string{"storage", "relay"} {
		recorder.Append(fx.Hook{
			OnStart: func(context.Context) error {
				calls = append(calls, "start "+name)
				return nil
			},
			OnStop: func(context.Context) error {
				calls = append(calls, "stop "+name)
				return nil
			},
		})
	}
	recorder.Append(fx.Hook{})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := recorder.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	want := []string{"start storage", "start relay", "stop relay", "stop storage"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected hook order %v", calls)
	}
}
