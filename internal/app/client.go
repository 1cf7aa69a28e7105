package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gamelibrary/pkg/client"
)

var (
	errNotLoggedIn = errors.New("not logged in, run gamelib client login first")

	clientSettings = viper.New()
)

func init() { //nolint: gochecknoinits
	flags := clientCmd.PersistentFlags()
	flags.String("server", "http://localhost:3000", "API base URL")
	flags.String("session", defaultSessionPath(), "session file")
	flags.Duration("timeout", 15*time.Second, "request timeout")

	clientSettings.SetEnvPrefix("GAMELIB_CLIENT")
	clientSettings.AutomaticEnv()
	for _, name := range []string{"server", "session", "timeout"} {
		_ = clientSettings.BindPFlag(name, flags.Lookup(name))
	}

	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password")
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	libraryAddCmd.Flags().Uint("game-id", 0, "catalog game id")
	libraryAddCmd.Flags().String("title", "", "game title")
	libraryAddCmd.Flags().String("image", "", "cover image URL")
	libraryAddCmd.Flags().String("platform", "", "platform names")

	searchCmd.Flags().Int("page", 1, "result page")

	libraryCmd.AddCommand(libraryListCmd, libraryAddCmd, libraryStatusCmd, libraryRateCmd, libraryRemoveCmd)
	clientCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd, libraryCmd, searchCmd, reviewCmd)
	rootCmd.AddCommand(clientCmd)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gamelib", "session.json")
}

// clientEnv bundles what every client command needs.
type clientEnv struct {
	api     *client.Client
	session *client.Session
	ctx     context.Context
}

func newClientEnv(cmd *cobra.Command) (*clientEnv, error) {
	session, err := client.LoadSession(clientSettings.GetString("session"))
	if err != nil {
		return nil, err
	}

	return &clientEnv{
		api:     client.New(clientSettings.GetString("server"), clientSettings.GetDuration("timeout")),
		session: session,
		ctx:     client.WithSession(cmd.Context(), session),
	}, nil
}

func (e *clientEnv) requireLogin() error {
	if !e.session.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (e *clientEnv) saveAuth(res *client.AuthResult) error {
	e.session.Token = res.Token
	e.session.User = res.User
	return e.session.Save()
}

// libraryView loads the caller's library for an optimistic change.
func (e *clientEnv) libraryView() (*client.LibraryView, error) {
	if err := e.requireLogin(); err != nil {
		return nil, err
	}
	entries, err := e.api.Library(e.ctx, e.session.User.ID)
	if err != nil {
		return nil, err
	}
	return client.NewLibraryView(e.api, entries), nil
}

func parseEntryID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Errorf("invalid entry id %q", s)
	}
	return uint(id), nil
}

func printEntries(cmd *cobra.Command, entries []client.Entry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGAME\tTITLE\tSTATUS\tRATING")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\n", e.ID, e.GameID, e.Title, e.Status, e.Rating)
	}
	return w.Flush()
}

var (
	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Talk to a running game library API",
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			res, err := env.api.Register(env.ctx, name, email, password)
			if err != nil {
				return err
			}
			if err := env.saveAuth(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", res.User.Email, res.User.Role)
			return nil
		},
	}

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			res, err := env.api.Login(env.ctx, email, password)
			if err != nil {
				return err
			}
			if err := env.saveAuth(res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s, session valid until %s\n",
				res.User.Email, res.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			return env.session.Clear()
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and its permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireLogin(); err != nil {
				return err
			}

			me, err := env.api.Me(env.ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s <%s> role=%s\npermissions: %s\n",
				me.ID, me.Name, me.Email, me.Role, strings.Join(me.Permissions, ", "))
			return nil
		},
	}

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search the game catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			raw, err := env.api.SearchGames(env.ctx, query, page)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		},
	}

	reviewCmd = &cobra.Command{
		Use:   "review <entry-id> <rating> [comment]",
		Short: "Review a game in your library",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireLogin(); err != nil {
				return err
			}
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Errorf("invalid rating %q", args[1])
			}
			comment := ""
			if len(args) == 3 {
				comment = args[2]
			}

			review, err := env.api.CreateReview(env.ctx, id, rating, comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "review %d saved\n", review.ID)
			return nil
		},
	}

	libraryCmd = &cobra.Command{
		Use:   "library",
		Short: "Manage your game library",
	}

	libraryListCmd = &cobra.Command{
		Use:   "list",
		Short: "List your library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireLogin(); err != nil {
				return err
			}
			entries, err := env.api.Library(env.ctx, env.session.User.ID)
			if err != nil {
				return err
			}
			return printEntries(cmd, entries)
		},
	}

	libraryAddCmd = &cobra.Command{
		Use:   "add",
		Short: "Add a catalog game to your library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newClientEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireLogin(); err != nil {
				return err
			}
			gameID, _ := cmd.Flags().GetUint("game-id")
			title, _ := cmd.Flags().GetString("title")
			image, _ := cmd.Flags().GetString("image")
			platform, _ := cmd.Flags().GetString("platform")

			entry, err := env.api.AddToLibrary(env.ctx, client.NewEntry{
				UserID:   env.session.User.ID,
				GameID:   gameID,
				Title:    title,
				ImageURL: image,
				Platform: platform,
			})
			if err != nil {
				return err
			}
			return printEntries(cmd, []client.Entry{*entry})
		},
	}

	libraryStatusCmd = &cobra.Command{
		Use:   "status <entry-id> <pending|playing|completed|dropped>",
		Short: "Change the status of a library entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return changeLibrary(cmd, func(ctx context.Context, v *client.LibraryView) error {
				return v.SetStatus(ctx, id, args[1])
			})
		},
	}

	libraryRateCmd = &cobra.Command{
		Use:   "rate <entry-id> <0-5>",
		Short: "Rate a library entry, 0 clears the rating",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Errorf("invalid rating %q", args[1])
			}
			return changeLibrary(cmd, func(ctx context.Context, v *client.LibraryView) error {
				return v.SetRating(ctx, id, rating)
			})
		},
	}

	libraryRemoveCmd = &cobra.Command{
		Use:   "remove <entry-id>",
		Short: "Remove a game and its reviews from your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return changeLibrary(cmd, func(ctx context.Context, v *client.LibraryView) error {
				return v.Remove(ctx, id)
			})
		},
	}
)

// changeLibrary applies change to the caller's library and prints the result.
// On failure the printed library is the restored one.
func changeLibrary(cmd *cobra.Command, change func(context.Context, *client.LibraryView) error) error {
	env, err := newClientEnv(cmd)
	if err != nil {
		return err
	}
	view, err := env.libraryView()
	if err != nil {
		return err
	}

	changeErr := change(env.ctx, view)
	if err := printEntries(cmd, view.Entries()); err != nil {
		return err
	}
	return changeErr
}
