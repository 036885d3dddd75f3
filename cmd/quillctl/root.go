package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quillpress/quillpress/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const refreshKey = "refresh"

// app carries resolved settings into the subcommands.
type app struct {
	v *viper.Viper
}

func (a *app) apiURL() string { return a.v.GetString("api_url") }

func (a *app) storage() *session.FileStorage {
	return session.NewFileStorage(a.v.GetString("home"))
}

func (a *app) timeout() time.Duration { return a.v.GetDuration("timeout") }

func defaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".quillpress")
	}
	return ".quillpress"
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUILL")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("home", defaultHome())
	v.SetDefault("timeout", 15*time.Second)
	a := &app{v: v}

	root := &cobra.Command{
		Use:           "quillctl",
		Short:         "Command-line client for quillpress",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("api-url", "", "API base URL (or set QUILL_API_URL)")
	root.PersistentFlags().String("home", "", "Session directory (or set QUILL_HOME)")
	root.PersistentFlags().Duration("timeout", 0, "Request timeout")
	_ = v.BindPFlag("api_url", root.PersistentFlags().Lookup("api-url"))
	_ = v.BindPFlag("home", root.PersistentFlags().Lookup("home"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(a.loginCmd(), a.whoamiCmd(), a.statusCmd(), a.logoutCmd(), a.articlesCmd())
	return root
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout())
}

func printSnapshot(cmd *cobra.Command, snap session.Snapshot) {
	out := cmd.OutOrStdout()
	if snap.State != session.Authenticated || snap.User == nil {
		fmt.Fprintf(out, "%s\n", snap.State)
		return
	}
	u := snap.User
	fmt.Fprintf(out, "%s as %s <%s> role=%s writer=%t\n", snap.State, u.FullName(), u.Email, u.Role, u.IsWriter)
}
