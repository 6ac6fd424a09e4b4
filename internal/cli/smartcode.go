package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SscSPs/hera_engine/internal/core/guardrails"
	"github.com/SscSPs/hera_engine/internal/core/smartcode"
)

func newSmartCodeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "smartcode",
		Aliases: []string{"sc"},
		Short:   "Work with smart codes",
	}

	validate := &cobra.Command{
		Use:   "validate <code>...",
		Short: "Check smart codes against the grammar",
		Long: `Check smart codes against HERA.<MODULE>.<SEGMENT>...V<n>.

Exits non-zero when any code is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]smartcode.Report, len(args))
			invalid := 0
			for i, code := range args {
				reports[i] = smartcode.Inspect(code)
				if !reports[i].Valid {
					invalid++
				}
			}

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				if err := writeJSON(out, reports); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(reports))
				for i, r := range reports {
					note := r.Reason
					if r.Suggestion != "" {
						note += "; did you mean " + r.Suggestion
					}
					rows[i] = []string{r.Kind, r.SmartCode, note}
				}
				if err := writeTable(out, []string{"KIND", "SMART CODE", "NOTE"}, rows); err != nil {
					return err
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d smart codes invalid", invalid, len(args))
			}
			return nil
		},
	}

	cmd.AddCommand(validate)
	return cmd
}

func newGuardrailsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardrails",
		Short: "Inspect the guardrail registry",
	}

	var policyFile string
	rules := &cobra.Command{
		Use:   "rules",
		Short: "List the rules registered for a policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := guardrails.DefaultPolicy()
			if policyFile != "" {
				var err error
				if policy, err = guardrails.LoadPolicy(policyFile); err != nil {
					return err
				}
			}

			type ruleInfo struct {
				Name     string   `json:"name"`
				Kind     string   `json:"kind"`
				Stage    string   `json:"stage"`
				Category string   `json:"category"`
				Types    []string `json:"types,omitempty"`
			}
			registered := guardrails.NewRegistry(policy).Rules()
			infos := make([]ruleInfo, len(registered))
			rows := make([][]string, len(registered))
			for i, r := range registered {
				infos[i] = ruleInfo{r.Name, string(r.Kind), string(r.Stage), string(r.Category), r.Types}
				types := strings.Join(r.Types, ",")
				if types == "" {
					types = "*"
				}
				rows[i] = []string{r.Name, string(r.Kind), string(r.Stage), string(r.Category), types}
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			return writeTable(cmd.OutOrStdout(), []string{"RULE", "KIND", "STAGE", "CATEGORY", "TYPES"}, rows)
		},
	}
	rules.Flags().StringVar(&policyFile, "policy", "", "YAML policy file (default: built-in policy)")

	cmd.AddCommand(rules)
	return cmd
}
