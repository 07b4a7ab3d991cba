package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"podcaster/internal/services/youtube"
)

func newYouTubeCommand(ctx *commandContext) *cobra.Command {
	youtubeCmd := &cobra.Command{
		Use:   "youtube",
		Short: "YouTube channel utilities",
	}
	youtubeCmd.AddCommand(newYouTubeAuthCommand(ctx))
	return youtubeCmd
}

func newYouTubeAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize podcaster to upload to your channel",
		Long: "Auth opens the Google consent flow for the OAuth client in\n" +
			"youtube.client_secrets and stores the refresh token at youtube.token_path.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.YouTube.ClientSecrets) == "" {
				return errors.New("youtube.client_secrets is not configured")
			}
			oauthCfg, err := youtube.LoadOAuthConfig(cfg.YouTube.ClientSecrets)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			tok, err := youtube.Authorize(signalCtx, oauthCfg, func(authURL string) {
				fmt.Fprintln(out, "Open this URL in a browser and grant access:")
				fmt.Fprintln(out, authURL)
			})
			if err != nil {
				return fmt.Errorf("authorize: %w", err)
			}
			if err := youtube.SaveToken(cfg.YouTube.TokenPath, tok); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token saved to %s\n", cfg.YouTube.TokenPath)
			return nil
		},
	}
}
