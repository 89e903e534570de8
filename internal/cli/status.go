package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/version"
)

func newStatusCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running router's backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("unirouter %s (commit %s)\n\n", version.Version, version.Commit)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			base := serverURL
			if base == "" {
				base = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
			}

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.Get(base + "/health")
			if err != nil {
				fmt.Printf("Server:  unreachable at %s (%v)\n", base, err)
				return nil
			}
			defer resp.Body.Close()

			var snap domain.HealthSnapshot
			if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
				return fmt.Errorf("parsing health response: %w", err)
			}

			fmt.Printf("Server:  %s (HTTP %d)\n", base, resp.StatusCode)
			fmt.Printf("Overall: %s (%s)\n\n", snap.Aggregate(), snap.Message)

			labels := make([]string, 0, len(snap.Status))
			for label := range snap.Status {
				labels = append(labels, label.String())
			}
			sort.Strings(labels)
			for _, label := range labels {
				fmt.Printf("%-12s %s\n", label, snap.Status[domain.Backend(label)])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "router base URL (default from config port)")
	return cmd
}
