package cli

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/adapters"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/internal/util"
	"github.com/brettbedarf/vfs/requests"
	"github.com/brettbedarf/vfs/store"
)

func notFound(p string) error {
	return fmt.Errorf("%w: %s", vfs.ErrNotFound, p)
}

func mkdirCmd(o *rootOptions) *cobra.Command {
	var parents bool

	cmd := &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withMutation(func(s *store.Store) error {
				for _, p := range args {
					if err := mkdir(s, p, parents); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&parents, "parents", "p", false, "create missing parents, no error if existing")
	return cmd
}

func mkdir(s *store.Store, p string, parents bool) error {
	if parents {
		_, err := s.MkdirAll(p)
		return err
	}
	parent, err := s.ResolveDir(path.Dir(p))
	if err != nil {
		return err
	}
	_, err = s.NewDirectory(parent, path.Base(p))
	return err
}

func touchCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "touch <path>...",
		Short: "Create empty files, creating parents as needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withMutation(func(s *store.Store) error {
				for _, p := range args {
					if _, ok := s.Resolve(p).(*filesystem.File); ok {
						continue
					}
					if _, err := s.ImportBytes(nil, p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func importCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "import <host-path> <dest>",
		Short:   "Copy a host file into the container",
		Example: `  vfs -c store.vfs import ./settings.conf /etc/settings.conf`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withMutation(func(s *store.Store) error {
				_, err := s.ImportFile(args[0], args[1])
				return err
			})
		},
	}
}

func exportCmd(o *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export <path> <host-path>",
		Short: "Copy a file out of the container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				f, err := s.ResolveFile(args[0])
				if err != nil {
					return err
				}
				return s.ExportFile(f, args[1], force)
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing host file")
	return cmd
}

func rmCmd(o *rootOptions) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Remove files and directories",
		Long: `Remove files and directories. Payloads of removed files are zeroed
in memory before they are released.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withMutation(func(s *store.Store) error {
				nodes, err := collectRemovals(s, args, recursive)
				if err != nil {
					return err
				}
				removed := s.DeleteAll(nodes...)
				logger := util.GetLogger("cli.rm")
				logger.Debug().Int("removed", removed).Msg("Removed nodes")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove non-empty directories")
	return cmd
}

// collectRemovals resolves every path before anything is removed so a bad
// path leaves the tree untouched
func collectRemovals(s *store.Store, paths []string, recursive bool) ([]filesystem.Node, error) {
	var errs error
	nodes := make([]filesystem.Node, 0, len(paths))
	for _, p := range paths {
		n := s.Resolve(p)
		switch {
		case n == nil:
			errs = multierr.Append(errs, notFound(p))
		case s.IsRoot(n):
			errs = multierr.Append(errs, fmt.Errorf("%w: cannot remove the root", vfs.ErrInvalidName))
		case filesystem.IsDir(n) && n.(*filesystem.Directory).Children().Len() > 0 && !recursive:
			errs = multierr.Append(errs, fmt.Errorf("%s: directory not empty, use -r", p))
		default:
			nodes = append(nodes, n)
		}
	}
	if errs != nil {
		return nil, errs
	}
	return nodes, nil
}

func mvCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <new-name>",
		Short: "Rename a file or directory in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withMutation(func(s *store.Store) error {
				n := s.Resolve(args[0])
				if n == nil {
					return notFound(args[0])
				}
				return filesystem.Rename(n, args[1])
			})
		},
	}
}

func metaCmd(o *rootOptions) *cobra.Command {
	var unset []string

	cmd := &cobra.Command{
		Use:   "meta <path> [key=value]...",
		Short: "List, set or unset file metadata",
		Example: `  vfs -c store.vfs meta /etc/settings.conf
  vfs -c store.vfs meta /etc/settings.conf owner=root mode=0644
  vfs -c store.vfs meta /etc/settings.conf --unset owner`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && len(unset) == 0 {
				return o.withStore(func(s *store.Store) error {
					f, err := s.ResolveFile(args[0])
					if err != nil {
						return err
					}
					for _, k := range f.MetaKeys() {
						v, _ := f.Meta(k)
						fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
					}
					return nil
				})
			}
			return o.withMutation(func(s *store.Store) error {
				f, err := s.ResolveFile(args[0])
				if err != nil {
					return err
				}
				pairs := make([][2]string, 0, len(args)-1)
				for _, kv := range args[1:] {
					k, v, ok := strings.Cut(kv, "=")
					if !ok || k == "" {
						return fmt.Errorf("expected key=value, got %q", kv)
					}
					pairs = append(pairs, [2]string{k, v})
				}
				for _, k := range unset {
					f.DeleteMeta(k)
				}
				for _, kv := range pairs {
					f.SetMeta(kv[0], kv[1])
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&unset, "unset", nil, "metadata keys to remove")
	return cmd
}

func applyCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest>",
		Short: "Create the directories and files described by a manifest",
		Long: `Create the directories and files described by a json or yaml manifest.

Each file may list sources (http or local) that are tried in priority order
until one succeeds. Requests that fail are reported; the rest are still saved.`,
		Example: `  vfs -c store.vfs apply nodes.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := afero.NewOsFs()
			m, err := requests.LoadManifestFile(host, args[0], adapters.NewDefaultRegistry(host))
			if err != nil {
				return err
			}
			return o.withMutation(func(s *store.Store) error {
				return s.Apply(cmd.Context(), m)
			})
		},
	}
}
