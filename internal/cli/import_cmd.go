package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"indexchat/internal/config"
	"indexchat/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Insert snapshots from a JSON array or single object into the configured store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	docs, err := parseSnapshots(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	cfg, err := loadConfig(false, nil)
	if err != nil {
		return err
	}
	if err := config.ValidateStore(cfg); err != nil {
		return withExitCode(ExitConfigInvalid, err)
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.InsertSnapshots(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	stderrLogger().Info("import finished", "file", args[0], "inserted", n, "store", cfg.Store.Driver)

	out := cmd.OutOrStdout()
	s := newStyles(out, globalFlags.JSON)
	if globalFlags.JSON {
		return json.NewEncoder(out).Encode(map[string]any{"inserted": n, "store": cfg.Store.Driver})
	}
	fmt.Fprintf(out, "%s %s\n", s.Success.Render("Inserted"), s.stat("documents", n))
	return nil
}

// parseSnapshots accepts either a JSON array of objects or a single object.
func parseSnapshots(data []byte) ([]model.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}
	if trimmed[0] == '[' {
		var docs []model.Snapshot
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, err
		}
		for i, d := range docs {
			if d == nil {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
		}
		return docs, nil
	}
	var doc model.Snapshot
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("expected a JSON object or array of objects")
	}
	return []model.Snapshot{doc}, nil
}
