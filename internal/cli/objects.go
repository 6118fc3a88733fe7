package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wgbh/bawstun/internal/object"
	"github.com/wgbh/bawstun/pkg/logger"
)

var ErrFilenameRequired = errors.New("--filename is required when ingesting from stdin")

type ingestOptions struct {
	filename     string
	characterize bool
}

func registerObjectCommands(root *cobra.Command, a *app) {
	root.AddCommand(
		newIngestCommand(a),
		newCharacterizeCommand(a),
		newUpdateCommand(a),
		newShowCommand(a),
		newListCommand(a),
		newDeleteCommand(a),
		newWatchCommand(a),
	)
}

func newIngestCommand(a *app) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest <path|->",
		Short: "Move a file (or stdin, given '-') in to storage as a new object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(func(c core) error {
				var (
					obj *object.RepositoryObject
					err error
				)
				if args[0] == "-" {
					if opts.filename == "" {
						return ErrFilenameRequired
					}
					obj, err = c.IngestStream(cmd.Context(), cmd.InOrStdin(), opts.filename)
				} else {
					obj, err = c.IngestPath(cmd.Context(), args[0], opts.filename)
				}
				if err != nil {
					return err
				}

				if opts.characterize {
					id := obj.ID
					if obj, err = c.Characterize(cmd.Context(), id); err != nil {
						return fmt.Errorf("object %s ingested but characterization failed: %w", id, err)
					}
				}

				return printObject(cmd.OutOrStdout(), obj)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.filename, "filename", "f", "", "filename to store the content under (defaults to the source filename)")
	cmd.Flags().BoolVar(&opts.characterize, "characterize", false, "characterize the object once ingested")
	return cmd
}

func newCharacterizeCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "characterize [id...]",
		Short: "Run the characterization tools against stored objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("provide at least one object identifier, or --all")
			}

			return a.withCore(func(c core) error {
				ids := args
				if all {
					var err error
					if ids, err = c.Objects(cmd.Context()); err != nil {
						return err
					}
				}

				errs := c.CharacterizeAll(cmd.Context(), ids)
				failed := 0
				for i, err := range errs {
					if err != nil {
						failed++
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tFAILED\t%v\n", ids[i], err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tOK\n", ids[i])
				}

				if failed > 0 {
					return fmt.Errorf("characterization failed for %d of %d objects", failed, len(ids))
				}

				log.Emit(logger.SUCCESS, "Characterized %d objects\n", len(ids))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "characterize every stored object")
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <payload.json|->",
		Short: "Apply an editor payload (JSON) to the descriptive metadata of an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			return a.withCore(func(c core) error {
				obj, err := c.Update(cmd.Context(), args[0], raw)
				if err != nil {
					return err
				}

				return printObject(cmd.OutOrStdout(), obj)
			})
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(func(c core) error {
				obj, err := c.Object(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				return printObject(cmd.OutOrStdout(), obj)
			})
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the identifiers of every stored object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(func(c core) error {
				ids, err := c.Objects(cmd.Context())
				if err != nil {
					return err
				}

				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an object along with its stored content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(func(c core) error {
				if err := c.Destroy(cmd.Context(), args[0]); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// readPayload decodes the JSON object in the file named, or from stdin if
// the name is '-'.
func readPayload(stdin io.Reader, name string) (map[string]any, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("payload %s is not a JSON object: %w", name, err)
	}

	return raw, nil
}

// printObject writes the object as indented JSON, preceded by its display string.
func printObject(w io.Writer, obj *object.RepositoryObject) error {
	fmt.Fprintf(w, "# %s (%s)\n", obj.DisplayString(), obj.ID)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(obj)
}
