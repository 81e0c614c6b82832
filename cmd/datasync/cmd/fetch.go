package main

import (
	"fmt"

	"github.com/redbco/redb-datasync/cmd/datasync/internal/session"
	"github.com/redbco/redb-datasync/pkg/config"
	"github.com/redbco/redb-datasync/pkg/resource"
	"github.com/spf13/cobra"
)

var fetchSecure bool

// fetchCmd reads a REST resource and prints its attributes
var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch a REST resource and print its attributes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := cfg.Get(config.KeyResourceURL)
		if len(args) == 1 {
			url = args[0]
		}
		if url == "" {
			return resource.ErrNoURL
		}

		secure := cfg.GetBool(config.KeyResourceSecure, false)
		if cmd.Flags().Changed("secure") {
			secure = fetchSecure
		}

		ctx := cmd.Context()
		var fetchErr error
		r := resource.New(url, resource.WithSecure(secure), resource.WithLogger(log))
		res, err := r.Fetch(ctx, resource.Options{
			Error: func(status int, err error) {
				fetchErr = fmt.Errorf("fetch %s failed with status %d: %w", r.URL(), status, err)
			},
		}).Wait(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		if err != nil {
			return err
		}

		log.Debug("fetched %s: %d %s", r.URL(), res.Status, res.Message)
		return session.WriteJSON(cmd.OutOrStdout(), r.Attributes())
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchSecure, "secure", false, "Force https for the resource URL")
}
