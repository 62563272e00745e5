package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/epochgraph/epochgraph/client"
)

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Manage entities",
	}
	cmd.AddCommand(entityCreateCmd())
	cmd.AddCommand(entityGetCmd())
	cmd.AddCommand(entityUpdateCmd())
	cmd.AddCommand(entityPromoteCmd())
	cmd.AddCommand(entityQueryCmd())
	return cmd
}

// parseTimeFlag parses an RFC3339 flag value; an empty value yields nil.
func parseTimeFlag(name, value string) *time.Time {
	if value == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		fatal(fmt.Sprintf("parse --%s", name), err)
	}
	return &ts
}

func entityCreateCmd() *cobra.Command {
	var (
		webID        string
		typeURLs     []string
		propsJSON    string
		draft        bool
		linkLeft     string
		linkRight    string
		decisionTime string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.CreateEntityRequest{
				WebID:         webID,
				EntityTypeIDs: typeURLs,
				Draft:         draft,
				DecisionTime:  parseTimeFlag("decision-time", decisionTime),
			}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			if linkLeft != "" || linkRight != "" {
				req.LinkData = &client.LinkData{LeftEntityID: linkLeft, RightEntityID: linkRight}
			}
			entity, err := apiClient.Entities.Create(context.Background(), req)
			if err != nil {
				fatal("create entity", err)
			}
			output(entity, entity.ID)
		},
	}
	cmd.Flags().StringVar(&webID, "web", "", "Web UUID the entity belongs to")
	cmd.Flags().StringArrayVar(&typeURLs, "type", nil, "Entity type URL (repeatable)")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create as a draft")
	cmd.Flags().StringVar(&linkLeft, "link-left", "", "Left endpoint entity ID (link entities)")
	cmd.Flags().StringVar(&linkRight, "link-right", "", "Right endpoint entity ID (link entities)")
	cmd.Flags().StringVar(&decisionTime, "decision-time", "", "Decision instant (RFC3339, default now)")
	cmd.MarkFlagRequired("web")  //nolint:errcheck
	cmd.MarkFlagRequired("type") //nolint:errcheck
	return cmd
}

func entityGetCmd() *cobra.Command {
	var atTransaction, atDecision string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get the entity edition visible at the requested instants",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.GetEntityOptions{
				TransactionTime: parseTimeFlag("at-transaction", atTransaction),
				DecisionTime:    parseTimeFlag("at-decision", atDecision),
			}
			entity, err := apiClient.Entities.Get(context.Background(), args[0], opts)
			if err != nil {
				fatal("get entity", err)
			}
			output(entity, entity.ID)
		},
	}
	cmd.Flags().StringVar(&atTransaction, "at-transaction", "", "Transaction-time instant (RFC3339, default now)")
	cmd.Flags().StringVar(&atDecision, "at-decision", "", "Decision-time instant (RFC3339, default now)")
	return cmd
}

func entityUpdateCmd() *cobra.Command {
	var (
		typeURLs     []string
		propsJSON    string
		archived     bool
		decisionTime string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Append a new edition to an entity",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpdateEntityRequest{
				EntityID:      args[0],
				EntityTypeIDs: typeURLs,
				DecisionTime:  parseTimeFlag("decision-time", decisionTime),
			}
			if propsJSON != "" {
				if err := json.Unmarshal([]byte(propsJSON), &req.Properties); err != nil {
					fatal("parse props", err)
				}
			}
			if cmd.Flags().Changed("archived") {
				req.Archived = &archived
			}
			entity, err := apiClient.Entities.Update(context.Background(), req)
			if err != nil {
				fatal("update entity", err)
			}
			output(entity, entity.ID)
		},
	}
	cmd.Flags().StringArrayVar(&typeURLs, "type", nil, "Replacement entity type URL (repeatable)")
	cmd.Flags().StringVar(&propsJSON, "props", "", "Properties as JSON")
	cmd.Flags().BoolVar(&archived, "archived", false, "Set the archived flag")
	cmd.Flags().StringVar(&decisionTime, "decision-time", "", "Decision instant (RFC3339, default now)")
	return cmd
}

func entityPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <draft-id>",
		Short: "Promote a draft entity to a live one",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entity, err := apiClient.Entities.PromoteDraft(context.Background(), args[0])
			if err != nil {
				fatal("promote draft", err)
			}
			output(entity, entity.ID)
		},
	}
}

func entityQueryCmd() *cobra.Command {
	var (
		filterJSON      string
		linkDepth       uint8
		typeDepth       uint8
		includeDrafts   bool
		includeCount    bool
		limit           int
		cursor          string
		decisionTime    string
		transactionTime string
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a structural entity query",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.QueryEntitiesRequest{
				GraphResolveDepths: client.GraphResolveDepths{
					IsOfType:       client.OutgoingDepth{Outgoing: typeDepth},
					HasLeftEntity:  client.EdgeDepths{Incoming: linkDepth, Outgoing: linkDepth},
					HasRightEntity: client.EdgeDepths{Incoming: linkDepth, Outgoing: linkDepth},
				},
				IncludeDrafts: includeDrafts,
				IncludeCount:  includeCount,
				Limit:         limit,
				Cursor:        cursor,
			}
			if filterJSON != "" {
				req.Filter = json.RawMessage(filterJSON)
			}
			req.TemporalAxes = queryAxes(decisionTime, transactionTime)

			sub, err := apiClient.Entities.Query(context.Background(), req)
			if err != nil {
				fatal("query entities", err)
			}
			if flagFmt == "table" {
				printEntityTable(sub)
				return
			}
			if flagFmt == "quiet" {
				for _, root := range sub.Roots.Entities {
					fmt.Println(root)
				}
				return
			}
			output(sub, "")
		},
	}
	cmd.Flags().StringVar(&filterJSON, "filter", "", "Filter document as JSON")
	cmd.Flags().Uint8Var(&linkDepth, "link-depth", 0, "Link edge traversal depth")
	cmd.Flags().Uint8Var(&typeDepth, "type-depth", 0, "Is-of-type traversal depth")
	cmd.Flags().BoolVar(&includeDrafts, "drafts", false, "Include draft entities")
	cmd.Flags().BoolVar(&includeCount, "count", false, "Include the total match count")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max root entities per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from a previous page")
	cmd.Flags().StringVar(&decisionTime, "at-decision", "", "Decision-time instant (RFC3339)")
	cmd.Flags().StringVar(&transactionTime, "at-transaction", "", "Transaction-time instant (RFC3339)")
	return cmd
}

// queryAxes builds the temporal axes for a query from optional instant
// flags. Both empty means server defaults.
func queryAxes(decisionTime, transactionTime string) *client.TemporalAxes {
	decision := parseTimeFlag("at-decision", decisionTime)
	transaction := parseTimeFlag("at-transaction", transactionTime)
	if decision == nil && transaction == nil {
		return nil
	}

	axes := &client.TemporalAxes{
		Pinned:   client.PinnedAxis{Axis: client.AxisTransactionTime, Timestamp: transaction},
		Variable: client.VariableAxis{Axis: client.AxisDecisionTime},
	}
	if decision != nil {
		bound := &client.Bound{Kind: "inclusive", Limit: decision}
		axes.Variable.Start = bound
		axes.Variable.End = bound
	}
	return axes
}

func printEntityTable(sub *client.Subgraph) {
	headers := []string{"ID", "TYPES", "ARCHIVED"}
	var rows [][]string
	keys := make([]string, 0, len(sub.Entities))
	for key := range sub.Entities {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entity := sub.Entities[key]
		rows = append(rows, []string{
			entity.ID,
			strings.Join(entity.EntityTypeIDs, ","),
			fmt.Sprintf("%t", entity.Archived),
		})
	}
	formatTable(headers, rows)
}
