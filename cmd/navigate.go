package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iksnae/gallery-session/internal"
	"github.com/spf13/cobra"
)

// navigateCmd runs a path through the router and the navigation guard
var navigateCmd = &cobra.Command{
	Use:   "navigate <path>",
	Short: "Show where a navigation to path would land",
	Long: `Resolve a client route and evaluate the navigation guard against the
stored credential.

Guarded pages without a usable credential redirect to the login page with
the requested path in ?redirect=. An expired or malformed credential is
cleared as a side effect. Signed-in visits to the login page go home.

Examples:
  gallery-session navigate /
  gallery-session navigate "/images/42?tab=exif"
  gallery-session navigate /auth`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		target, action, err := env.navigate(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printStatusLine(out, "Route", target.Name)
		printStatusLine(out, "Path", target.FullPath)
		if len(target.Params) > 0 {
			printStatusLine(out, "Params", formatParams(target.Params))
		}

		switch action.Kind {
		case internal.ActionAllow:
			printStatusLine(out, "Action", successStyle.Render(action.Kind.String()))
		default:
			printStatusLine(out, "Action", warningStyle.Render(action.Kind.String()))
			printStatusLine(out, "Location", env.guard().Location(action))
		}
		return nil
	},
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(navigateCmd)
}
