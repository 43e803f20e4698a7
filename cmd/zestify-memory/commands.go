package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/mike-meow/zestify/pkg/memory"
	"github.com/mike-meow/zestify/pkg/patch"
	"github.com/mike-meow/zestify/pkg/record"
)

func (a *app) migrateCmd() *cobra.Command {
	var (
		users        string
		removeSource bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import legacy workouts.json files",
		Long: `Fold each user's legacy workouts.json into workout_memory.json.

Workouts already present (same id or start time) are skipped, so the command
can be re-run safely.

Example:
  zestify-memory migrate
  zestify-memory migrate --users 'beta-*' --remove-source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMigrate(cmd, users, removeSource)
		},
	}
	cmd.Flags().StringVar(&users, "users", "*", "Glob selecting which user ids to migrate")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "Delete workouts.json after a successful import")
	return cmd
}

func (a *app) runMigrate(cmd *cobra.Command, pattern string, removeSource bool) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid --users pattern %q: %w", pattern, err)
	}
	ids, err := a.store.ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed []error
	for _, id := range ids {
		if !g.Match(id) {
			continue
		}
		n, err := a.store.ImportLegacyWorkouts(cmd.Context(), id, removeSource)
		if err != nil {
			a.log.Errorf("migrate %s: %v", id, err)
			failed = append(failed, fmt.Errorf("%s: %w", id, err))
			continue
		}
		a.log.Infof("migrate %s: imported %d workouts", id, n)
		fmt.Fprintf(out, "%s: imported %d workouts\n", id, n)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d users failed to migrate: %w", len(failed), errors.Join(failed...))
	}
	return nil
}

func (a *app) patchCmd() *cobra.Command {
	var (
		user  string
		file  string
		merge bool
	)
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply a patch to one user",
		Long: `Apply an RFC 6902 JSON patch (an array of operations) or, with --merge,
an RFC 7386 merge patch keyed by component name. The whole patch is rejected
if any operation fails or the result does not validate.

Example:
  zestify-memory patch --user u1 --file goals.json
  echo '{"user_profile":{"name":"Sam"}}' | zestify-memory patch --user u1 --merge --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			var res *memory.Result
			if merge {
				var p map[string]any
				if err := json.Unmarshal(raw, &p); err != nil {
					return fmt.Errorf("%w: %v", patch.ErrInvalidPatch, err)
				}
				res, err = a.manager.ApplyMergePatch(cmd.Context(), user, p)
			} else {
				ops, derr := patch.DecodeOperations(raw)
				if derr != nil {
					return derr
				}
				res, err = a.manager.ApplyJSONPatch(cmd.Context(), user, ops)
			}
			if res != nil {
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id")
	cmd.Flags().StringVar(&file, "file", "-", "Patch file, - for stdin")
	cmd.Flags().BoolVar(&merge, "merge", false, "Treat the input as a merge patch")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return raw, nil
}

func (a *app) viewCmd() *cobra.Command {
	var user, at string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a user's history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				ts, err := record.ParseTimestamp(at)
				if err != nil {
					return fmt.Errorf("invalid --now %q: %w", at, err)
				}
				now = ts.Time
			}
			text, err := a.manager.View(cmd.Context(), user, now)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id")
	cmd.Flags().StringVar(&at, "now", "", "Render as of this date or RFC 3339 time (default: current time)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) compactCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Print the compact record for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.manager.Compact(cmd.Context(), user)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
