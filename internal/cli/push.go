package cli

import (
	"fmt"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/push"

	"github.com/spf13/cobra"
)

func newPushCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Web Push keys and offer notifications",
	}
	cmd.AddCommand(newPushKeysCmd(), newPushSendCmd(opts))
	return cmd
}

func newPushKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a VAPID key pair for the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, publicKey, err := push.GenerateVAPIDKeys()
			if err != nil {
				return fmt.Errorf("generate VAPID keys: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", publicKey)
			fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", privateKey)
			return nil
		},
	}
}

func newPushSendCmd(opts *options) *cobra.Command {
	var n push.Notification

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an offer notification to every subscribed browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			result, err := opts.client().Broadcast(cmd.Context(), opts.token, n)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Sent %d, failed %d, expired %d", result.Sent, result.Failed, result.Expired)
			return nil
		},
	}

	cmd.Flags().StringVar(&n.Title, "title", "", "notification title (default \""+push.DefaultTitle+"\")")
	cmd.Flags().StringVar(&n.Body, "body", "", "notification text (default \""+push.DefaultBody+"\")")
	cmd.Flags().StringVar(&n.Image, "image", "", "image URL")
	cmd.Flags().StringVar(&n.URL, "url", "", "page opened on click (default \"/\")")
	return cmd
}
