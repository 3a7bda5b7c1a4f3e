package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Answer one message through the same chat path as POST /chat",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	message := strings.Join(args, " ")
	res := a.service.Handle(ctx, message)

	out := cmd.OutOrStdout()
	if globalFlags.JSON {
		payload := map[string]any{
			"reply":    res.Reply,
			"outcome":  res.Outcome.String(),
			"attempts": res.Attempts,
		}
		if res.Call != nil {
			payload["tool_call"] = res.Call
		}
		return json.NewEncoder(out).Encode(payload)
	}
	fmt.Fprintln(out, res.Reply)
	return nil
}
