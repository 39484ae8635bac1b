package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"replmux/config"
	"replmux/inspect"
	"replmux/log"
	"replmux/session"
	"replmux/session/tmux"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	version  = "0.3.0"
	hostFlag string
	replFlag string
	jsonFlag bool

	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"})
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#22C55E", Dark: "#22C55E"})
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"})

	rootCmd = &cobra.Command{
		Use:   "replmux",
		Short: "replmux - route code from your editor to long-lived repl sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered contexts and their repls",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			m, _, backend := setup()
			for _, ctx := range m.Catalog().Contexts() {
				fmt.Println(titleStyle.Render(string(ctx)))
				defs, err := m.Catalog().Definitions(ctx)
				if err != nil {
					continue
				}
				for _, ld := range defs {
					marker := mutedStyle.Render("(not installed)")
					if backend.LookPath(ld.Definition.Command[0]) {
						marker = labelStyle.Render("(available)")
					}
					fmt.Printf("  %-12s %s %s\n", ld.Label,
						strings.Join(ld.Definition.Command, " "), marker)
				}
			}
			return nil
		},
	}

	openCmd = &cobra.Command{
		Use:   "open <context>",
		Short: "Open (or reuse) the repl session for a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			m, storage, _ := setup()
			s, created, err := m.EnsureExists(session.Context(args[0]))
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("started %s session %s (%s)\n", args[0], s.ID, s.Label)
			} else {
				fmt.Printf("reusing %s session %s (%s)\n", args[0], s.ID, s.Label)
			}
			return storage.SaveSessions(m)
		},
	}

	sendCmd = &cobra.Command{
		Use:   "send <context> [text...]",
		Short: "Send text (or stdin) to the context's repl session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			m, storage, _ := setup()
			ctx := session.Context(args[0])

			text := strings.Join(args[1:], " ")
			if text == "" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			if err := m.SendText(ctx, text); err != nil {
				return err
			}
			return storage.SaveSessions(m)
		},
	}

	restartCmd = &cobra.Command{
		Use:   "restart <context>",
		Short: "Replace the context's repl session with a fresh one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			m, storage, _ := setup()
			s, created, err := m.EnsureExists(session.Context(args[0]))
			if err != nil {
				return err
			}
			if !created {
				if s, err = m.Restart(s.Surface); err != nil {
					return err
				}
			}
			fmt.Printf("session %s is fresh\n", s.ID)
			return storage.SaveSessions(m)
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Forget all stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			state := config.LoadState()
			if err := state.DeleteAllSessions(); err != nil {
				return fmt.Errorf("failed to reset session state: %w", err)
			}
			fmt.Println("session state has been reset")
			return nil
		},
	}

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Print host, config and log diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize()
			defer log.Close()

			cfg := config.LoadConfig()
			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}

			kind := pickHostKind(cfg)
			backend := session.NewBackend(kind)
			m := session.NewManager(cfg, builtinCatalog(), backend)
			storage := session.NewStorage(config.LoadState())
			if err := storage.LoadSessions(m, backend); err != nil {
				log.WarningLog.Printf("failed to load stored sessions: %v", err)
			}

			snap := inspect.Capture(version, kind, m, backend, cfg)
			if jsonFlag {
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Println(titleStyle.Render("replmux doctor"))
			fmt.Print(inspect.FormatText(snap))
			fmt.Printf("tmux installed: %v\n", tmux.IsAvailable())
			fmt.Printf("config: %s\n", filepath.Join(configDir, config.ConfigFileName))
			fmt.Printf("state: %s\n", filepath.Join(configDir, config.StateFileName))
			fmt.Printf("log: %s\n", log.Path())
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of replmux",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("replmux version %s\n", version)
		},
	}
)

// builtinCatalog is the demo host's launch data. Library consumers register
// their own.
func builtinCatalog() *session.Catalog {
	c := session.NewCatalog()
	c.Register("python", "ipython", session.Definition{
		Command: []string{"ipython", "--no-autoindent"},
		Format:  session.BracketedPaste,
	})
	c.Register("python", "python", session.Definition{Command: []string{"python3", "-q"}})
	c.Register("r", "R", session.Definition{Command: []string{"R", "--no-save"}})
	c.Register("julia", "julia", session.Definition{Command: []string{"julia"}})
	c.Register("javascript", "node", session.Definition{Command: []string{"node"}})
	c.Register("sh", "sh", session.Definition{Command: []string{"sh"}})
	return c
}

func pickHostKind(cfg *config.Config) session.HostKind {
	if hostFlag != "" {
		return session.HostKind(hostFlag)
	}
	if cfg.Host != "" {
		return session.HostKind(cfg.Host)
	}
	return session.DefaultHostKind()
}

func setup() (*session.Manager, *session.Storage, session.Backend) {
	cfg := config.LoadConfig()
	if replFlag != "" {
		// "context=label" pins a repl for one invocation.
		if parts := strings.SplitN(replFlag, "=", 2); len(parts) == 2 {
			cfg.Preferred[parts[0]] = parts[1]
		}
	}

	backend := session.NewBackend(pickHostKind(cfg))
	m := session.NewManager(cfg, builtinCatalog(), backend)

	storage := session.NewStorage(config.LoadState())
	if err := storage.LoadSessions(m, backend); err != nil {
		log.WarningLog.Printf("failed to load stored sessions: %v", err)
	}

	if inspect.IsEnabled() {
		if err := inspect.Write(inspect.Capture(version, pickHostKind(cfg), m, backend, cfg)); err != nil {
			log.WarningLog.Printf("failed to write inspection snapshot: %v", err)
		}
	}
	return m, storage, backend
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "",
		"Host backend to use ('tmux' or 'local'). Defaults to tmux when installed.")
	rootCmd.PersistentFlags().StringVarP(&replFlag, "repl", "r", "",
		"Pin a repl for a context this invocation, as 'context=label' (e.g. 'python=ipython')")
	doctorCmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the diagnostics snapshot as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}
