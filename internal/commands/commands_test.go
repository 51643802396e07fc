package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clinia/topicbridge/bridge"
	"github.com/clinia/topicbridge/configx"
	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/internal/config"
	loggerxtest "github.com/clinia/topicbridge/loggerx/test"
	"github.com/clinia/topicbridge/otelx"
	inmemorypubsub "github.com/clinia/topicbridge/pubsubx/inmemory"
	"github.com/clinia/topicbridge/topicapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTopicServer(t *testing.T) (*inmemorypubsub.AdminClient, string) {
	t.Helper()
	client := inmemorypubsub.NewAdminClient(nil)
	b, err := bridge.New(client, bridge.WithDefaultTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	h, err := topicapi.NewHandler(b)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return client, srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	app := New()
	app.Writer = out
	app.ErrWriter = out
	err := app.Run(context.Background(), append([]string{"topicbridge"}, args...))
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestTopicsCommands(t *testing.T) {
	client, endpoint := newTopicServer(t)

	t.Run("should create a topic", func(t *testing.T) {
		out, err := run(t, "topics", "--endpoint", endpoint, "create", "--partitions", "3", "--topic-config", "cleanup.policy=compact", "orders")
		require.NoError(t, err)
		assert.Equal(t, "topic orders created\n", out)

		configs, ok := client.TopicConfigs("orders")
		require.True(t, ok)
		assert.Equal(t, "compact", *configs["cleanup.policy"])
	})

	t.Run("should report the server error", func(t *testing.T) {
		_, err := run(t, "topics", "--endpoint", endpoint, "create", "orders")
		assert.True(t, errorx.IsAlreadyExistsError(err))
	})

	t.Run("should list topics as json", func(t *testing.T) {
		out, err := run(t, "topics", "--endpoint", endpoint, "list", "--output", "json")
		require.NoError(t, err)

		var topics bridge.Topics
		require.NoError(t, json.Unmarshal([]byte(out), &topics))
		assert.Equal(t, []string{"orders"}, topics.Names())
		assert.Equal(t, 3, topics["orders"].Partitions)
	})

	t.Run("should list topics as a table", func(t *testing.T) {
		out, err := run(t, "topics", "--endpoint", endpoint, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "orders")
	})

	t.Run("should delete a topic", func(t *testing.T) {
		out, err := run(t, "topics", "--endpoint", endpoint, "delete", "orders")
		require.NoError(t, err)
		assert.Equal(t, "topic orders deleted\n", out)
		assert.Empty(t, client.Topics())
	})

	t.Run("should require a topic name", func(t *testing.T) {
		_, err := run(t, "topics", "--endpoint", endpoint, "delete")
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should reject malformed topic configs", func(t *testing.T) {
		_, err := run(t, "topics", "--endpoint", endpoint, "create", "--topic-config", "compact", "orders")
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should reject counts that overflow the wire types", func(t *testing.T) {
		for _, args := range [][]string{
			{"--partitions", "4294967297"},
			{"--replication-factor", "65537"},
			{"--partitions", "0"},
		} {
			argv := append([]string{"topics", "--endpoint", endpoint, "create"}, args...)
			_, err := run(t, append(argv, "huge")...)
			assert.True(t, errorx.IsInvalidArgumentError(err), "args %v: %v", args, err)
		}
		assert.NotContains(t, client.Topics(), "huge")
	})
}

func TestNewService(t *testing.T) {
	ctx := context.Background()
	l := loggerxtest.NewTestLogger(t)

	conf, err := config.New(ctx,
		configx.DisableFileWatching(),
		configx.WithValue(config.KeyPubSubProvider, "inmemory"),
		configx.WithValue(config.KeyTopicDefaultPartitions, 2),
		configx.WithValue(config.KeyTopicDefaultMaxMessageSize, "1MB"),
	)
	require.NoError(t, err)

	svc, err := newService(ctx, conf, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.close(context.Background()) })

	svc.awaitBroker(ctx, time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, topicapi.TopicsPath, bytes.NewBufferString(`{"name":"orders"}`))
	svc.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	topics, err := svc.bridge.ListTopics(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, topics["orders"].Partitions)

	rec = httptest.NewRecorder()
	svc.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, topicapi.MetricsPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "topicbridge_operations")

	rec = httptest.NewRecorder()
	svc.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, topicapi.ReadyPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type stalledHealthClient struct {
	*inmemorypubsub.AdminClient
}

func (c stalledHealthClient) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestServe_UnreachableBrokerDoesNotDelayLiveness(t *testing.T) {
	l := loggerxtest.NewTestLogger(t)
	tel, err := otelx.New(context.Background(), l)
	require.NoError(t, err)

	b, err := bridge.New(stalledHealthClient{inmemorypubsub.NewAdminClient(nil)}, bridge.WithDefaultTimeout(100*time.Millisecond))
	require.NoError(t, err)
	h, err := topicapi.NewHandler(b)
	require.NoError(t, err)
	svc := &service{l: l, otel: tel, bridge: b, handler: h.Routes()}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- svc.serve(ctx, &http.Server{Handler: svc.handler, ReadHeaderTimeout: time.Second}, ln, 10*time.Second)
	}()

	start := time.Now()
	require.EventuallyWithT(t, func(c *assert.CollectT) {
		res, err := http.Get(base + topicapi.AlivePath)
		if !assert.NoError(c, err) {
			return
		}
		_ = res.Body.Close()
		assert.Equal(c, http.StatusOK, res.StatusCode)
	}, 2*time.Second, 20*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second)

	res, err := http.Get(base + topicapi.ReadyPath)
	require.NoError(t, err)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}
