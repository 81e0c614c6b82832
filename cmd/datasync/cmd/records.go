package main

import (
	"github.com/redbco/redb-datasync/cmd/datasync/internal/session"
	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/spf13/cobra"
)

var whereFilter string

// queryCmd prints the records matching --where
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query records from the configured datasource",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := session.ParseCriterion(whereFilter)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDataSource(ctx)
		if err != nil {
			return err
		}
		defer ds.Close()

		records, err := ds.Query(ctx, query, nil).Wait(ctx)
		if err != nil {
			return err
		}
		return session.WriteJSON(cmd.OutOrStdout(), records)
	},
}

// insertCmd inserts a JSON object or array of objects
var insertCmd = &cobra.Command{
	Use:   "insert <json>",
	Short: "Insert a record or an array of records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := session.ParsePayload(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDataSource(ctx)
		if err != nil {
			return err
		}
		defer ds.Close()

		res, err := ds.Insert(ctx, payload, nil).Wait(ctx)
		if err != nil {
			return err
		}
		return session.WriteJSON(cmd.OutOrStdout(), res)
	},
}

// updateCmd merges a JSON object into the records matching --where
var updateCmd = &cobra.Command{
	Use:   "update <json>",
	Short: "Update the records matching --where",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := session.ParseCriterion(whereFilter)
		if err != nil {
			return err
		}
		payload, err := session.ParsePayload(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDataSource(ctx)
		if err != nil {
			return err
		}
		defer ds.Close()

		if _, err := ds.Update(ctx, query, payload, nil).Wait(ctx); err != nil {
			return err
		}
		log.Info("updated records in %s", ds.Collection())
		return nil
	},
}

// removeCmd deletes the records matching --where
var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the records matching --where",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := session.ParseCriterion(whereFilter)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, err := openDataSource(ctx)
		if err != nil {
			return err
		}
		defer ds.Close()

		removed, err := ds.Remove(ctx, query, nil).Wait(ctx)
		if err != nil {
			return err
		}
		return session.WriteJSON(cmd.OutOrStdout(), datasource.Record{"removed": removed})
	},
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, updateCmd, removeCmd} {
		c.Flags().StringVar(&whereFilter, "where", "", "JSON object of field values to match")
	}
}
