package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"yabe/app/fixtures"
	"yabe/app/models"
	"yabe/app/services"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return errors.Wrap(err, "failed to initialize database")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized successfully")
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "reset",
		Aliases: []string{"clean"},
		Short:   "Delete every user, post and comment",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Are you sure you want to clean the database? This cannot be undone. [y/N] ")
				var response string
				fmt.Fscanln(cmd.InOrStdin(), &response)
				if response != "y" && response != "Y" {
					fmt.Fprintln(cmd.OutOrStdout(), "Operation cancelled")
					return nil
				}
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			if err := fixtures.Reset(store); err != nil {
				return errors.Wrap(err, "failed to clean database")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "load [data set or file]",
		Short: "Load a fixture data set (default: the embedded data.yml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			if reset {
				if err := fixtures.Reset(store); err != nil {
					return err
				}
			}

			loader := fixtures.NewLoader(store)
			switch {
			case len(args) == 0:
				err = loader.LoadNamed("data.yml")
			case fileExists(args[0]):
				err = loader.LoadFile(args[0])
			default:
				err = loader.LoadNamed(args[0])
			}
			if err != nil {
				return err
			}
			return printStats(cmd, a)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "wipe the database before loading")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count users, posts and comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStats(cmd, a)
		},
	}
}

func printStats(cmd *cobra.Command, a *app) error {
	store, err := a.open()
	if err != nil {
		return err
	}
	for _, kind := range []models.Kind{models.KindUser, models.KindPost, models.KindComment} {
		n, err := store.Count(kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", kind, n)
	}
	return nil
}

func newFindCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "find <user|post|comment> <expression> [args...]",
		Short: "Run a query and print matching entities as JSON lines",
		Example: `  yabe find user byEmail bob@gmail.com
  yabe find post "author.email" bob@gmail.com
  yabe find post "order by postedAt desc" --limit 1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			store, err := a.open()
			if err != nil {
				return err
			}

			queryArgs := make([]any, 0, len(args)-2)
			for _, s := range args[2:] {
				queryArgs = append(queryArgs, parseArg(s))
			}

			result := store.Find(kind, args[1], queryArgs...)
			var found []models.Entity
			if limit > 0 {
				found, err = result.FetchN(limit)
			} else {
				found, err = result.Fetch()
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range found {
				if u, ok := e.(*models.User); ok {
					redacted := *u
					redacted.PasswordHash = ""
					e = &redacted
				}
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results")
	return cmd
}

func newConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <email> <password>",
		Short: "Check a user's credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			user, err := services.NewUserService(store.Users()).Connect(args[0], args[1])
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("invalid email or password")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected as %s (id %d)\n", user.Fullname, user.ID)
			return nil
		},
	}
}

func newBackupCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				if err := os.MkdirAll(a.cfg.BackupDir, 0755); err != nil {
					return errors.Wrap(err, "failed to create backup directory")
				}
				output = filepath.Join(a.cfg.BackupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrap(err, "failed to create backup file")
			}
			defer f.Close()

			if _, err := store.Backup(f); err != nil {
				return errors.Wrap(err, "failed to backup database")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "backup file (default: <backup_dir>/backup_<unix time>.db)")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the database from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to open backup file")
			}
			defer f.Close()

			store, err := a.open()
			if err != nil {
				return err
			}
			if err := store.Restore(f); err != nil {
				return errors.Wrap(err, "failed to restore database")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database restored successfully from %s\n", args[0])
			return nil
		},
	}
}

func parseKind(s string) (models.Kind, error) {
	switch kind := models.Kind(strings.TrimSuffix(strings.ToLower(s), "s")); kind {
	case models.KindUser, models.KindPost, models.KindComment:
		return kind, nil
	}
	return "", errors.Errorf("unknown entity type %q", s)
}

// parseArg turns a command line argument into the type a query compares
// against: integers are IDs, true/false are booleans.
func parseArg(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
