package notify

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakePubSub(t *testing.T, topicID string) (*pstest.Server, []option.ClientOption) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	opts := []option.ClientOption{option.WithGRPCConn(conn)}
	if topicID != "" {
		admin, err := pubsub.NewClient(ctx, "project-id", opts...)
		require.NoError(t, err)
		_, err = admin.CreateTopic(ctx, topicID)
		require.NoError(t, err)
		require.NoError(t, admin.Close())
	}
	return srv, opts
}

func TestPubSubPublisherPublishesHits(t *testing.T) {
	ctx := context.Background()
	srv, opts := newFakePubSub(t, "hits")

	pub, err := NewPubSubPublisher(ctx, "project-id", "hits", nil, opts...)
	require.NoError(t, err)

	require.NoError(t, pub.PublishHit(ctx, "run-1", "https://example.com/"))
	require.NoError(t, pub.PublishHit(ctx, "run-1", "https://example.com/form"))
	require.NoError(t, pub.Close())

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	got := map[string]string{}
	for _, m := range msgs {
		got[string(m.Data)] = m.Attributes[RunIDAttribute]
	}
	assert.Equal(t, map[string]string{
		"https://example.com/":     "run-1",
		"https://example.com/form": "run-1",
	}, got)
}

func TestNewPubSubPublisherMissingTopic(t *testing.T) {
	_, opts := newFakePubSub(t, "")

	_, err := NewPubSubPublisher(context.Background(), "project-id", "absent", nil, opts...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestPubSubPublisherWithoutTopic(t *testing.T) {
	t.Parallel()

	err := (&PubSubPublisher{}).PublishHit(context.Background(), "run", "https://example.com/")
	require.Error(t, err)
}

func TestMemoryPublisher(t *testing.T) {
	t.Parallel()

	var p Publisher = NewMemory()
	require.NoError(t, p.PublishHit(context.Background(), "run-1", "https://a.test/"))
	require.NoError(t, p.PublishHit(context.Background(), "run-1", "https://a.test/b"))
	require.NoError(t, p.Close())

	m := p.(*Memory)
	assert.Equal(t, []Hit{{RunID: "run-1", URL: "https://a.test/"}, {RunID: "run-1", URL: "https://a.test/b"}}, m.Hits())
	assert.True(t, m.Closed())
}

func TestNoOp(t *testing.T) {
	t.Parallel()

	var p Publisher = NoOp{}
	assert.NoError(t, p.PublishHit(context.Background(), "run", "https://a.test/"))
	assert.NoError(t, p.Close())
}
