package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/epochgraph/epochgraph/client"
)

func newEmbeddingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embedding",
		Short: "Store externally computed embeddings",
	}
	cmd.AddCommand(embeddingEntityCmd())
	cmd.AddCommand(embeddingTypeCmd())
	return cmd
}

// parseVector decodes a JSON array flag value into a float32 vector.
func parseVector(value string) []float32 {
	if value == "" {
		return nil
	}
	var vector []float32
	if err := json.Unmarshal([]byte(value), &vector); err != nil {
		fatal("parse --vector", err)
	}
	return vector
}

// embeddingInstant resolves an updated-at flag, defaulting to now.
func embeddingInstant(name, value string) time.Time {
	if ts := parseTimeFlag(name, value); ts != nil {
		return *ts
	}
	return time.Now().UTC()
}

func embeddingEntityCmd() *cobra.Command {
	var (
		vectorJSON      string
		property        string
		reset           bool
		transactionTime string
		decisionTime    string
	)
	cmd := &cobra.Command{
		Use:   "entity <id>",
		Short: "Upsert an entity embedding",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpsertEntityEmbeddingRequest{
				EntityID:             args[0],
				Embedding:            parseVector(vectorJSON),
				UpdatedAtTransaction: embeddingInstant("at-transaction", transactionTime),
				UpdatedAtDecision:    embeddingInstant("at-decision", decisionTime),
				Reset:                reset,
			}
			if property != "" {
				req.Property = &property
			}
			if err := apiClient.Embeddings.UpsertEntity(context.Background(), req); err != nil {
				fatal("upsert entity embedding", err)
			}
			fmt.Println("stored")
		},
	}
	cmd.Flags().StringVar(&vectorJSON, "vector", "", "Embedding vector as a JSON array")
	cmd.Flags().StringVar(&property, "property", "", "Scope the vector to one property")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear stored vectors instead of writing one")
	cmd.Flags().StringVar(&transactionTime, "at-transaction", "", "Source edition transaction instant (RFC3339, default now)")
	cmd.Flags().StringVar(&decisionTime, "at-decision", "", "Source edition decision instant (RFC3339, default now)")
	return cmd
}

func embeddingTypeCmd() *cobra.Command {
	var (
		vectorJSON      string
		reset           bool
		transactionTime string
	)
	cmd := &cobra.Command{
		Use:   "type <versioned-url>",
		Short: "Upsert an entity-type embedding",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req := &client.UpsertEntityTypeEmbeddingRequest{
				URL:                  args[0],
				Embedding:            parseVector(vectorJSON),
				UpdatedAtTransaction: embeddingInstant("at-transaction", transactionTime),
				Reset:                reset,
			}
			if err := apiClient.Embeddings.UpsertEntityType(context.Background(), req); err != nil {
				fatal("upsert entity type embedding", err)
			}
			fmt.Println("stored")
		},
	}
	cmd.Flags().StringVar(&vectorJSON, "vector", "", "Embedding vector as a JSON array")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the stored vector instead of writing one")
	cmd.Flags().StringVar(&transactionTime, "at-transaction", "", "Source version transaction instant (RFC3339, default now)")
	return cmd
}
