package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/config"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a Switchboard config file",
		Long:  "Prompts for the operator platform, channel, and bot credentials, then writes a switchboard.yaml. Tokens are read without echo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "switchboard.yaml", "path to write the config file")
	return cmd
}

func runInit(cmd *cobra.Command, outPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("init requires an interactive terminal")
	}
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists, remove it first or use --output", outPath)
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(os.Stdin)

	platform, err := promptLine(out, reader, "Operator platform (discord/slack): ")
	if err != nil {
		return err
	}

	channel, err := promptLine(out, reader, "Operator channel ID (send `!sb id` to the bot to find it): ")
	if err != nil {
		return err
	}

	cfg := config.Config{}
	cfg.Operator.Platform = platform
	cfg.Operator.Channel = channel

	switch platform {
	case "discord":
		token, err := promptSecret(out, "Discord bot token: ")
		if err != nil {
			return err
		}
		cfg.Operator.Discord.BotToken = token
	case "slack":
		botToken, err := promptSecret(out, "Slack bot token (xoxb-...): ")
		if err != nil {
			return err
		}
		appToken, err := promptSecret(out, "Slack app token (xapp-...): ")
		if err != nil {
			return err
		}
		cfg.Operator.Slack.BotToken = botToken
		cfg.Operator.Slack.AppToken = appToken
	default:
		return fmt.Errorf("unsupported platform %q (use discord or slack)", platform)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(out, "Wrote %s\n", outPath)
	fmt.Fprintf(out, "Start the relay with: sb serve -c %s\n", outPath)
	return nil
}

// promptLine prints a prompt and reads one trimmed line from the reader.
func promptLine(out io.Writer, reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret prints a prompt and reads a token without echoing it.
func promptSecret(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
