package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/TomasB/geolocation/internal/config"
	"github.com/TomasB/geolocation/internal/data"
	"github.com/TomasB/geolocation/internal/geo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errLookupFailed makes the command exit non-zero without printing usage.
var errLookupFailed = errors.New("one or more addresses could not be geolocated")

func newLookupCmd(vip *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <ip>...",
		Short: "Geolocate addresses against the local database and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(vip, *configFile)
			if err != nil {
				return err
			}
			setupLogger(cmd.ErrOrStderr(), cfg.SlogLevel())

			lookup, err := data.OpenFile(cfg.Engine, cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer lookup.Close()

			svc := geo.NewService(lookup, nil)
			orchestrator := geo.NewOrchestrator(svc, nil, cfg.BatchConcurrency)
			return runLookup(cmd.OutOrStdout(), orchestrator, args)
		},
	}
}

// runLookup prints the batch response for addresses. Any status other than
// 200 yields errLookupFailed after the body is written.
func runLookup(w io.Writer, orchestrator *geo.Orchestrator, addresses []string) error {
	resp := geo.ClassifyBatch(orchestrator.RunBatch(addresses), "lookup")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp.Body); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if resp.Status != http.StatusOK {
		return errLookupFailed
	}
	return nil
}
