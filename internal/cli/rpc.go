package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/internal/dto"
)

func newRPCCommand(opts *RootOptions) *cobra.Command {
	var (
		file  string
		actor string
	)

	cmd := &cobra.Command{
		Use:   "rpc <operation>",
		Short: "Send one request through the gateway",
		Long: `Send one RPC request, read as JSON from --file or stdin, through the
same gateway the HTTP API uses and print the response envelope.

Exits non-zero when the envelope reports a failure.`,
		Example: `  hera rpc entities -f create_customer.json
  echo '{"action":"READ","organization_id":"...","actor_user_id":"..."}' | hera rpc transactions`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var req dto.RPCRequest
			dec := json.NewDecoder(in)
			dec.UseNumber()
			if err := dec.Decode(&req); err != nil {
				return fmt.Errorf("failed to decode request: %w", err)
			}
			if actor != "" {
				req.ActorUserID = actor
			}

			e, ctx, err := opts.openEngine(cmd.Context(), os.Stderr)
			if err != nil {
				return err
			}
			defer e.Close()

			env, _ := e.dispatcher.Invoke(ctx, args[0], req)
			if err := writeJSON(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%s failed: %s", args[0], env.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file (default: stdin)")
	cmd.Flags().StringVar(&actor, "actor", "", "override actor_user_id")
	return cmd
}
