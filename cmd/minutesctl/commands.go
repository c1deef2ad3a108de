package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minutesapp/minutes-server/internal/service"
	"github.com/minutesapp/minutes-server/internal/store"
	"github.com/minutesapp/minutes-server/internal/summary"
)

const previewRunes = 60

func newSummarizeCommand() *cobra.Command {
	var maxSentences, maxChars int

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Print the MoM pre-fill generated for a text",
		Long:  "Reads the text from the given file, or from stdin when no file is given, and prints the summary a new MoM would start with.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			text, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			g := summary.NewGenerator(summary.Options{MaxSentences: maxSentences, MaxChars: maxChars})
			fmt.Fprintln(cmd.OutOrStdout(), g.Summarize(string(text)))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSentences, "sentences", summary.DefaultMaxSentences, "Maximum leading sentences")
	cmd.Flags().IntVar(&maxChars, "chars", summary.DefaultMaxChars, "Maximum characters")
	return cmd
}

func newMigrateCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.acquire(); err != nil {
				return err
			}
			// Opening the store applies every pending migration.
			if _, err := env.openStore(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}
			states, err := st.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(states))
			for _, s := range states {
				applied := "pending"
				if s.Applied {
					applied = s.AppliedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{strconv.FormatInt(s.Version, 10), applied})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Version", "Applied"}, rows, []columnAlignment{alignRight, alignLeft}))
			return nil
		},
	})
	return cmd
}

func newUsersCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registered users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}
			users, err := st.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.Username, u.Email, u.CreatedAt.Local().Format(time.DateTime)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Username", "Email", "Registered"}, rows, nil))
			return nil
		},
	})
	return cmd
}

func newTranscriptionsCommand(env *commandEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcriptions",
		Short: "Inspect saved transcriptions",
	}

	var username string
	var page, pageSize int
	list := &cobra.Command{
		Use:   "list --user <username>",
		Short: "List a user's transcriptions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}
			user, err := st.GetUserByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}

			result, err := st.ListTranscriptionsForUser(cmd.Context(), user.ID, store.PageParams{Page: page, PageSize: pageSize})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(result.Items))
			for _, t := range result.Items {
				action := service.ActionGenerateMoM
				if t.HasMoM() {
					action = service.ActionEditMoM
				}
				rows = append(rows, []string{
					strconv.FormatInt(t.ID, 10),
					t.CreatedAt.Local().Format(time.DateTime),
					preview(t.Body),
					action,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"ID", "Created", "Transcription", "MoM"}, rows, []columnAlignment{alignRight}))
			fmt.Fprintf(out, "Page %d, %d of %d transcriptions\n", result.Page, len(result.Items), result.Total)
			return nil
		},
	}
	list.Flags().StringVar(&username, "user", "", "Username whose transcriptions are listed")
	_ = list.MarkFlagRequired("user")
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&pageSize, "page-size", store.DefaultPageSize, "Rows per page")

	cmd.AddCommand(list)
	return cmd
}

func newReindexCommand(env *commandEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := env.services()
			if err != nil {
				return err
			}
			start := time.Now()
			count, err := svc.search.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents in %s\n", count, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// seedTranscripts are sample meeting texts for local development.
var seedTranscripts = []string{
	"Welcome everyone to the weekly sync. We reviewed the release checklist. Deployment is planned for Thursday. Alice will update the runbook.",
	"The budget review started late. Marketing asked for more time on the campaign numbers. Finance will circulate a revised sheet by Monday.",
	"Quick stand-up. The login bug is fixed. Search indexing is slower than expected and needs profiling. No blockers otherwise.",
}

func newSeedCommand(env *commandEnv) *cobra.Command {
	var username string
	var withMoM bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user with sample transcriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := env.services()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			password := "secret-" + username
			user, err := svc.identity.Register(ctx, service.RegisterRequest{
				Username:        username,
				Email:           username + "@example.com",
				Password:        password,
				ConfirmPassword: password,
			})
			if err != nil {
				return fmt.Errorf("register %q: %w", username, err)
			}
			p := user.Principal()

			for _, body := range seedTranscripts {
				t, err := svc.transcriptions.Save(ctx, p, body)
				if err != nil {
					return err
				}
				if !withMoM {
					continue
				}
				prefill, err := svc.moms.Prefill(ctx, p, t.ID)
				if err != nil {
					return err
				}
				if _, err := svc.moms.Upsert(ctx, p, t.ID, prefill); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (password %q) with %d transcriptions\n", username, password, len(seedTranscripts))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "demo", "Username of the demo account")
	cmd.Flags().BoolVar(&withMoM, "with-mom", false, "Also write minutes for every transcription")
	return cmd
}

func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= previewRunes {
		return body
	}
	return string(runes[:previewRunes-3]) + "..."
}
