package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/sanitize"
	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
)

var (
	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "List stored events",
		Long: `List the events in the persisted JSON document.

By default only upcoming events are shown, sorted by start date.

Examples:
  # List upcoming events
  events-server events

  # Include past events
  events-server events --all

  # Machine-readable output
  events-server events --json`,
		RunE: runEvents,
	}

	// Flags
	eventsAll  bool
	eventsJSON bool
)

func init() {
	eventsCmd.Flags().BoolVar(&eventsAll, "all", false, "include past events")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "output as JSON")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	store, err := jsonfile.New(cfg.Storage.EventsFile, cfg.Storage.LockTimeout)
	if err != nil {
		return err
	}
	service := events.NewService(store, nil, cfg.Location())

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	var collection []events.Event
	if eventsAll {
		collection, err = service.List(ctx)
	} else {
		collection, err = service.Upcoming(ctx, time.Now())
	}
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	out := cmd.OutOrStdout()

	if eventsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(collection)
	}

	if len(collection) == 0 {
		fmt.Fprintln(out, "No events found.")
		return nil
	}

	loc := cfg.Location()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tTITLE\tLOCATION")
	for _, e := range collection {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID,
			e.Start.In(loc).Format("02.01.2006 15:04"),
			sanitize.Text(e.Title),
			sanitize.Text(eventLocation(e)),
		)
	}
	return w.Flush()
}

func eventLocation(e events.Event) string {
	if e.Location == nil {
		return ""
	}
	return *e.Location
}
