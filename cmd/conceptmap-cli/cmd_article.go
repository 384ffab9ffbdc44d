package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newArticleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Fetch articles, ingesting them on first request",
	}
	cmd.AddCommand(articleGetCmd())
	cmd.AddCommand(articleMapCmd())
	return cmd
}

func articleGetCmd() *cobra.Command {
	var withContent bool
	cmd := &cobra.Command{
		Use:   "get <article-id>",
		Short: "Get an article with its concepts and fields of study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := apiClient.Articles.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get article: %w", err)
			}
			if !withContent {
				a.Content = ""
			}
			return output(cmd.OutOrStdout(), articleView{a}, a.ArticleID)
		},
	}
	cmd.Flags().BoolVar(&withContent, "content", false, "Include the article body")
	return cmd
}

func articleMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <article-id>",
		Short: "Print the article's concept map diagram source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := apiClient.Articles.ConceptMap(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get concept map: %w", err)
			}
			if flagFmt == "json" {
				return output(cmd.OutOrStdout(), cm)
			}
			// The raw diagram pipes straight into a renderer.
			fmt.Fprintln(cmd.OutOrStdout(), cm.DiagramSource)
			return nil
		},
	}
}
