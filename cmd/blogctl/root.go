package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/bootstrap"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/utils"
)

// env carries what the commands need from the outside world so tests can
// swap it.
type env struct {
	in       *bufio.Reader
	out      io.Writer
	build    func(ctx context.Context, cfg config.AppConfig) (*blog.App, error)
	password func(label string) (string, error)
}

func defaultEnv() *env {
	e := &env{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		build: bootstrap.Build,
	}
	e.password = e.promptPassword
	return e
}

// state is shared by every subcommand of one invocation.
type state struct {
	*env
	app     *blog.App
	sid     string
	envFile string
	driver  string
	remote  string
	output  string
	assumeY bool
}

func (s *state) ctx(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

func (s *state) confirm() blog.ConfirmFunc {
	return func(question string) bool {
		if s.assumeY {
			return true
		}
		ok, err := s.promptConfirm(question)
		return err == nil && ok
	}
}

// print writes v as indented JSON with --output json and calls text otherwise.
func (s *state) print(v any, text func(w io.Writer)) error {
	if s.output == "json" {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(s.out)
	return nil
}

// execute runs one command line. The app is closed even when the command
// fails, since cobra skips post-run hooks after an error.
func execute(e *env, args []string) error {
	s := &state{env: e}
	root := newRootCmd(s)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.Execute()
	if s.app != nil {
		err = errors.Join(err, s.app.Close())
	}
	return err
}

func newRootCmd(s *state) *cobra.Command {

	root := &cobra.Command{
		Use:   "blogctl",
		Short: "blogctl - write, read and manage blog posts from the terminal",
		Long: `blogctl works on the same snapshot store as the blog server.
Each --context keeps its own login, theme and draft.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(s.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", s.envFile, err)
			}
			cfg := config.Load()
			if s.driver != "" {
				cfg.StoreDriver = s.driver
			}
			if s.remote != "" {
				cfg.RemoteBaseURL = s.remote
			}
			config.Set(cfg)
			cfg = config.Get()
			if err := utils.InitFileLogger(cfg); err != nil {
				return err
			}
			app, err := s.build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			s.app = app
			return nil
		},
	}

	root.PersistentFlags().StringVar(&s.sid, "context", "cli", "Context id selecting the session, theme and draft")
	root.PersistentFlags().StringVar(&s.envFile, "env-file", ".env", "Dotenv file loaded before the configuration")
	root.PersistentFlags().StringVar(&s.driver, "store", "", "Override the store driver: sqlite, mysql, redis or memory")
	root.PersistentFlags().StringVar(&s.remote, "remote", "", "Use the remote post API at this base URL")
	root.PersistentFlags().StringVarP(&s.output, "output", "o", "text", "Output format: text or json")
	root.PersistentFlags().BoolVarP(&s.assumeY, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		newSignupCmd(s),
		newLoginCmd(s),
		newLogoutCmd(s),
		newWhoamiCmd(s),
		newPostCmd(s),
		newRenderCmd(s),
		newProfileCmd(s),
		newThemeCmd(s),
		newDraftCmd(s),
		newNotificationsCmd(s),
	)
	return root
}
