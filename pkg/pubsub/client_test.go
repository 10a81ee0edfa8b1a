package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/pkg/config"
)

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	names := subscriptionNames(config.PubSubConfig{
		OrdersSubscription:    " orders-notifications ",
		AnalyticsSubscription: "",
	})
	require.Equal(t, []string{"orders-notifications"}, names)
}

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "vivaflower-prod"}

	require.Equal(t, "projects/vivaflower-prod/subscriptions/orders", c.subscriptionResourceName("orders"))
	require.Equal(t, "projects/other/subscriptions/x", c.subscriptionResourceName("projects/other/subscriptions/x"))
	require.Equal(t, "", c.subscriptionResourceName("  "))

	require.Equal(t, "projects/vivaflower-prod/topics/order-events", c.topicResourceName("order-events"))
	require.Equal(t, "projects/other/topics/t", c.topicResourceName("projects/other/topics/t"))

	var nilClient *Client
	require.Equal(t, "", nilClient.topicResourceName("t"))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.OrdersPublisher())
	require.Nil(t, c.OrdersSubscription())
	require.NoError(t, c.Close())
	require.Error(t, c.Ping(context.Background()))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, false, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}
