package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/persistorai/conceptmap/client"
)

// entityKind describes one of the two searchable graph entities.
type entityKind struct {
	name    string
	plural  string
	service func() *client.EntityService
}

var (
	entityConcept = entityKind{"concept", "concepts", func() *client.EntityService { return apiClient.Concepts }}
	entityField   = entityKind{"field", "fields of study", func() *client.EntityService { return apiClient.Fields }}
)

func newEntityCmd(k entityKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.name,
		Short: "Look up " + k.plural,
	}
	cmd.AddCommand(entitySearchCmd(k))
	cmd.AddCommand(entityGetCmd(k))
	cmd.AddCommand(entityArticlesCmd(k))
	return cmd
}

func parseEntityID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

func entitySearchCmd(k entityKind) *cobra.Command {
	var similar bool
	var limit int
	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search " + k.plural + " by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := client.SearchExact
			if similar {
				mode = client.SearchSimilar
			}
			refs, err := k.service().Search(cmd.Context(), args[0], mode, limit)
			if err != nil {
				return fmt.Errorf("search %s: %w", k.plural, err)
			}
			l := refList(refs)
			return output(cmd.OutOrStdout(), l, l.ids()...)
		},
	}
	cmd.Flags().BoolVar(&similar, "similar", false, "Case-insensitive substring match")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results for --similar")
	return cmd
}

func entityGetCmd(k entityKind) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a " + k.name + " by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			ref, err := k.service().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get %s: %w", k.name, err)
			}
			return output(cmd.OutOrStdout(), refView{ref}, ref.Name)
		},
	}
}

func entityArticlesCmd(k entityKind) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "articles <id>",
		Short: "List articles linked to a " + k.name,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntityID(args[0])
			if err != nil {
				return err
			}
			ids, err := k.service().Articles(cmd.Context(), id, limit)
			if err != nil {
				return fmt.Errorf("list articles: %w", err)
			}
			return output(cmd.OutOrStdout(), ids, ids...)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum articles to list")
	return cmd
}
