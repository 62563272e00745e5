package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/epochgraph/epochgraph/client"
)

func newTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage entity types",
	}
	cmd.AddCommand(typeCreateCmd())
	cmd.AddCommand(typeGetCmd())
	cmd.AddCommand(typeArchiveCmd())
	cmd.AddCommand(typeQueryCmd())
	return cmd
}

func typeCreateCmd() *cobra.Command {
	var (
		webID      string
		schemaJSON string
		inherits   []string
	)
	cmd := &cobra.Command{
		Use:   "create <versioned-url>",
		Short: "Register an entity type version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateEntityTypeRequest{
				WebID:        webID,
				URL:          args[0],
				InheritsFrom: inherits,
			}
			if err := json.Unmarshal([]byte(schemaJSON), &req.Schema); err != nil {
				fatal("parse schema", err)
			}
			entityType, err := apiClient.EntityTypes.Create(context.Background(), req)
			if err != nil {
				fatal("create entity type", err)
			}
			output(entityType, entityType.Metadata.URL)
		},
	}
	cmd.Flags().StringVar(&webID, "web", "", "Web UUID the type belongs to")
	cmd.Flags().StringVar(&schemaJSON, "schema", "", "Type schema as JSON")
	cmd.Flags().StringArrayVar(&inherits, "inherits", nil, "Parent type URL (repeatable)")
	cmd.MarkFlagRequired("web")    //nolint:errcheck
	cmd.MarkFlagRequired("schema") //nolint:errcheck
	return cmd
}

func typeGetCmd() *cobra.Command {
	var atTransaction string
	cmd := &cobra.Command{
		Use:   "get <versioned-url>",
		Short: "Get an entity type version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.GetEntityTypeOptions{
				TransactionTime: parseTimeFlag("at-transaction", atTransaction),
			}
			entityType, err := apiClient.EntityTypes.Get(context.Background(), args[0], opts)
			if err != nil {
				fatal("get entity type", err)
			}
			output(entityType, entityType.Metadata.URL)
		},
	}
	cmd.Flags().StringVar(&atTransaction, "at-transaction", "", "Transaction-time instant (RFC3339, default now)")
	return cmd
}

func typeArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <versioned-url>",
		Short: "Archive an entity type version",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.EntityTypes.Archive(context.Background(), args[0]); err != nil {
				fatal("archive entity type", err)
			}
			fmt.Println("archived")
		},
	}
}

func typeQueryCmd() *cobra.Command {
	var (
		filterJSON    string
		inheritsDepth uint8
		limit         int
		includeCount  bool
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a structural entity type query",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.QueryEntityTypesRequest{
				InheritsFromDepth: inheritsDepth,
				Limit:             limit,
				IncludeCount:      includeCount,
			}
			if filterJSON != "" {
				req.Filter = json.RawMessage(filterJSON)
			}
			sub, err := apiClient.EntityTypes.Query(context.Background(), req)
			if err != nil {
				fatal("query entity types", err)
			}
			if flagFmt == "table" {
				printTypeTable(sub)
				return
			}
			if flagFmt == "quiet" {
				for _, root := range sub.Roots.EntityTypes {
					fmt.Println(root)
				}
				return
			}
			output(sub, "")
		},
	}
	cmd.Flags().StringVar(&filterJSON, "filter", "", "Filter document as JSON")
	cmd.Flags().Uint8Var(&inheritsDepth, "inherits-depth", 0, "Inheritance traversal depth")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max root types per page")
	cmd.Flags().BoolVar(&includeCount, "count", false, "Include the total match count")
	return cmd
}

func printTypeTable(sub *client.Subgraph) {
	headers := []string{"URL", "WEB"}
	var rows [][]string
	keys := make([]string, 0, len(sub.EntityTypes))
	for key := range sub.EntityTypes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entityType := sub.EntityTypes[key]
		rows = append(rows, []string{entityType.Metadata.URL, entityType.Metadata.WebID})
	}
	formatTable(headers, rows)
}
