package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
)

func newChatCmd() *cobra.Command {
	var (
		serverURL string
		sessionID string
		filePath  string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a chat message to a running router",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			base := serverURL
			if base == "" {
				base = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
			}

			var buf bytes.Buffer
			w := multipart.NewWriter(&buf)
			if err := w.WriteField("message", message); err != nil {
				return err
			}
			if sessionID != "" {
				if err := w.WriteField("session_id", sessionID); err != nil {
					return err
				}
			}
			if filePath != "" {
				f, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("opening file: %w", err)
				}
				defer f.Close()
				fw, err := w.CreateFormFile("file", filepath.Base(filePath))
				if err != nil {
					return err
				}
				if _, err := io.Copy(fw, f); err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
			}
			if err := w.Close(); err != nil {
				return err
			}

			client := &http.Client{Timeout: 5 * time.Minute}
			resp, err := client.Post(base+"/chat", w.FormDataContentType(), &buf)
			if err != nil {
				return fmt.Errorf("sending chat: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}

			var out domain.UnifiedResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}

			fmt.Printf("[%s] %s\n", out.Backend, out.Answer)
			if out.SQLQuery != "" {
				fmt.Printf("sql: %s\n", out.SQLQuery)
			}
			if len(out.Tags) > 0 {
				fmt.Printf("tags: %s\n", strings.Join(out.Tags, ", "))
			}
			if out.Error != "" {
				fmt.Printf("error: %s\n", out.Error)
			}
			fmt.Printf("session: %s\n", out.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "router base URL (default from config port)")
	cmd.Flags().StringVar(&sessionID, "session", "", "continue an existing session")
	cmd.Flags().StringVar(&filePath, "file", "", "attach a PDF document")
	return cmd
}
