package setup

import (
	"context"

	"github.com/clinia/topicbridge/loggerx"
	"github.com/clinia/topicbridge/pubsubx"
	inmemorypubsub "github.com/clinia/topicbridge/pubsubx/inmemory"
	"github.com/clinia/topicbridge/pubsubx/kgox"
	"github.com/clinia/topicbridge/stringsx"
)

// NewAdminClient returns the admin client of the configured provider.
func NewAdminClient(l *loggerx.Logger, c *pubsubx.Config, opts ...pubsubx.PubSubOption) (pubsubx.PubSubAdminClient, error) {
	o := pubsubx.NewPubSubOptions(opts...)

	switch f := stringsx.SwitchExact(c.Provider); {
	case f.AddCase("kafka"):
		cl, err := kgox.NewAdminClient(l, c, o)
		if err != nil {
			return nil, err
		}
		return cl, nil
	case f.AddCase("inmemory"):
		l.Info(context.Background(), "InMemory admin client configured! Topics are kept in memory")
		return inmemorypubsub.NewAdminClient(o), nil
	default:
		return nil, f.ToUnknownCaseErr()
	}
}
