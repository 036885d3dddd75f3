package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/quillpress/quillpress/pkg/client"
	"github.com/quillpress/quillpress/pkg/session"
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("QUILL_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or QUILL_PASSWORD) are required")
			}
			ctx, cancel := a.context(cmd)
			defer cancel()
			res, err := client.New(a.apiURL(), "").Login(ctx, email, password)
			if err != nil {
				return err
			}
			m, st := a.manager()
			if err := m.Login(res.User); err != nil {
				return err
			}
			if res.RefreshToken != "" {
				if err := st.Set(refreshKey, res.RefreshToken); err != nil {
					return err
				}
			}
			printSnapshot(cmd, m.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

// whoami revalidates the stored session with the server.
func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Confirm the stored session with the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			m, _ := a.manager(session.WithRevalidator(a.revalidator()))
			if err := m.Init(ctx); err != nil {
				return err
			}
			printSnapshot(cmd, m.Snapshot())
			return nil
		},
	}
}

// status reads the stored session without contacting the server.
func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, _ := a.manager()
			if err := m.Init(cmd.Context()); err != nil {
				return err
			}
			printSnapshot(cmd, m.Snapshot())
			return nil
		},
	}
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session and revoke its token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := a.storage()
			refresh, hasRefresh, _ := st.Get(refreshKey)
			m, _ := a.manager(session.WithNotifier(client.NewRevalidator(a.apiURL())))
			if err := m.Init(cmd.Context()); err != nil {
				return err
			}
			if hasRefresh {
				ctx, cancel := a.context(cmd)
				if err := client.New(a.apiURL(), "").Logout(ctx, refresh); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
				cancel()
				if err := st.Remove(refreshKey); err != nil {
					return err
				}
			}
			if err := m.Logout(cmd.Context()); err != nil {
				return err
			}
			m.Wait()
			printSnapshot(cmd, m.Snapshot())
			return nil
		},
	}
}

func (a *app) articlesCmd() *cobra.Command {
	var q client.ArticleQuery
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List published articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			page, err := client.New(a.apiURL(), "").ListArticles(ctx, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, art := range page.Articles {
				tags := ""
				if len(art.Tags) > 0 {
					tags = " [" + strings.Join(art.Tags, ", ") + "]"
				}
				fmt.Fprintf(out, "%-40s %s%s\n", art.Slug, art.Title, tags)
			}
			fmt.Fprintf(out, "page %d, %d of %d\n", page.Page, len(page.Articles), page.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "Page size")
	cmd.Flags().StringVar(&q.Category, "category", "", "Filter by category")
	cmd.Flags().StringVar(&q.Tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&q.Text, "q", "", "Search text")
	return cmd
}
