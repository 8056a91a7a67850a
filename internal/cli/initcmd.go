package cli

import (
	"fmt"
	"os"

	"github.com/dshills/gavel/internal/rulefile"
	"github.com/spf13/cobra"
)

const reviewfileTemplate = `// Reviewfile for gavel. Export one function taking the evaluation context.
module.exports = function (ctx) {
  const changes = ctx.changeSet;

  if (changes.hasChanges("src/**") && !changes.hasChanges("test/**")) {
    warn("source changed without test changes");
  }

  for (const diff of changes.fileDiffs) {
    if (diff.total > 500) {
      message("large change: " + diff.path + " (" + diff.total + " lines)");
    }
  }

  if (ctx.isHostingPlatformAvailable && ctx.prContext.body === "") {
    fail("PR description is empty");
  }
};
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter reviewfile",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, exists := rulefile.Locate("", ".")
		if exists {
			fmt.Fprintf(os.Stderr, "Rule file already exists at %s\n", path)
			return nil
		}
		if err := os.WriteFile(path, []byte(reviewfileTemplate), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "Created %s\n", path)
		return nil
	},
}
