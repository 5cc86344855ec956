package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kairos-gateway/internal/form"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/table"
)

var schemaSID string

var schemaCmd = &cobra.Command{
	Use:   "schema <doctype>",
	Short: "Fetch a doctype schema and print its form sections and list columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := frappe.New(cfg.Backend, logger)
		ctx := cmd.Context()
		if schemaSID != "" {
			ctx = frappe.WithSession(ctx, schemaSID)
		}
		s, err := client.GetSchema(ctx, args[0])
		if err != nil {
			return fmt.Errorf("fetch schema %s: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"schema":   s,
			"sections": form.Group(s),
			"columns":  table.Columns(s, table.Options{Selectable: true}),
		})
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaSID, "sid", os.Getenv("KAIROS_SID"), "backend session id used for the request")
}
