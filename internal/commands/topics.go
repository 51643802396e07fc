package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/clinia/topicbridge/errorx"
	"github.com/clinia/topicbridge/httpx"
	"github.com/clinia/topicbridge/internal/config"
	"github.com/clinia/topicbridge/topicapi"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

const (
	flagEndpoint          = "endpoint"
	flagTimeout           = "timeout"
	flagPartitions        = "partitions"
	flagReplicationFactor = "replication-factor"
	flagTopicConfig       = "topic-config"
	flagOutput            = "output"
	flagIncludeInternal   = "include-internal"
)

func Topics() *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "Manage topics through a running topic bridge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagEndpoint,
				Usage:   "Base URL of the topic bridge",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars(config.EnvPrefix + "ENDPOINT"),
			},
			&cli.DurationFlag{
				Name:  flagTimeout,
				Usage: "Timeout of the broker operation, the server default when unset",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a topic",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagPartitions,
						Usage: "Number of partitions, the server default when unset",
					},
					&cli.IntFlag{
						Name:  flagReplicationFactor,
						Usage: "Replication factor, the server default when unset",
					},
					&cli.StringSliceFlag{
						Name:  flagTopicConfig,
						Usage: "Topic config entry as key=value, repeatable",
					},
				},
				Action: runCreateTopic,
			},
			{
				Name:   "list",
				Usage:  "List the topics",
				Action: runListTopics,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagOutput,
						Usage: "Output format (table or json)",
						Value: "table",
					},
					&cli.BoolFlag{
						Name:  flagIncludeInternal,
						Usage: "Include the broker's internal topics",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a topic",
				ArgsUsage: "NAME",
				Action:    runDeleteTopic,
			},
		},
	}
}

func newTopicClient(c *cli.Command) (*topicapi.Client, error) {
	return topicapi.NewClient(c.String(flagEndpoint), httpx.WithHeader("User-Agent", config.ServiceName+"/"+Version))
}

func topicName(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", errorx.InvalidArgumentErrorf("expected exactly one topic name, got %d arguments", c.Args().Len())
	}
	return c.Args().First(), nil
}

func parseTopicConfigs(entries []string) (map[string]*string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	configs := make(map[string]*string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, errorx.InvalidArgumentErrorf("invalid topic config %q, expected key=value", e)
		}
		configs[k] = lo.ToPtr(v)
	}
	return configs, nil
}

// intFlagInRange reads an int flag that must fit in [1, limit].
func intFlagInRange(c *cli.Command, name string, limit int) (int, error) {
	n := c.Int(name)
	if n < 1 || n > limit {
		return 0, errorx.InvalidArgumentErrorf("--%s must be between 1 and %d, got %d", name, limit, n)
	}
	return n, nil
}

func runCreateTopic(ctx context.Context, c *cli.Command) error {
	name, err := topicName(c)
	if err != nil {
		return err
	}
	configs, err := parseTopicConfigs(c.StringSlice(flagTopicConfig))
	if err != nil {
		return err
	}

	body := topicapi.CreateTopicBody{Name: name, Configs: configs}
	if c.IsSet(flagPartitions) {
		n, err := intFlagInRange(c, flagPartitions, math.MaxInt32)
		if err != nil {
			return err
		}
		body.Partitions = lo.ToPtr(int32(n))
	}
	if c.IsSet(flagReplicationFactor) {
		n, err := intFlagInRange(c, flagReplicationFactor, math.MaxInt16)
		if err != nil {
			return err
		}
		body.ReplicationFactor = lo.ToPtr(int16(n))
	}

	client, err := newTopicClient(c)
	if err != nil {
		return err
	}
	if err := client.CreateTopic(ctx, body, c.Duration(flagTimeout)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "topic %s created\n", name)
	return err
}

func runListTopics(ctx context.Context, c *cli.Command) error {
	client, err := newTopicClient(c)
	if err != nil {
		return err
	}
	topics, err := client.ListTopics(ctx, c.Duration(flagTimeout), c.Bool(flagIncludeInternal))
	if err != nil {
		return err
	}

	w := c.Root().Writer
	switch c.String(flagOutput) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(topics)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPARTITIONS\tREPLICATION\tINTERNAL\tID")
		for _, name := range topics.Names() {
			t := topics[name]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%s\n", t.Name, t.Partitions, t.ReplicationFactor, t.Internal, t.ID)
		}
		return tw.Flush()
	default:
		return errorx.InvalidArgumentErrorf("unknown output format %q", c.String(flagOutput))
	}
}

func runDeleteTopic(ctx context.Context, c *cli.Command) error {
	name, err := topicName(c)
	if err != nil {
		return err
	}
	client, err := newTopicClient(c)
	if err != nil {
		return err
	}
	if err := client.DeleteTopic(ctx, name, c.Duration(flagTimeout)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "topic %s deleted\n", name)
	return err
}
