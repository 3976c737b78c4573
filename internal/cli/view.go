package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/store"
)

func argOrRoot(args []string) string {
	if len(args) == 0 {
		return filesystem.Separator
	}
	return args[0]
}

func treeCmd(o *rootOptions) *cobra.Command {
	var ascii, sizes bool

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the directory tree",
		Example: `  vfs -c store.vfs tree
  vfs -c store.vfs tree /etc --sizes --ascii`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				dir, err := s.ResolveDir(argOrRoot(args))
				if err != nil {
					return err
				}
				style := o.cfg.TreeStyle
				if ascii {
					style = config.TreeStyleASCII
				}
				return filesystem.Dump(cmd.OutOrStdout(), dir, filesystem.DumpOptions{Style: style, Sizes: sizes})
			})
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "draw with ascii characters only")
	cmd.Flags().BoolVarP(&sizes, "sizes", "s", false, "show human readable sizes")
	return cmd
}

func lsCmd(o *rootOptions) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory in sorted order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				n := s.Resolve(argOrRoot(args))
				if n == nil {
					return notFound(argOrRoot(args))
				}
				return list(cmd.OutOrStdout(), n, long)
			})
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show type and size")
	return cmd
}

func displayName(n filesystem.Node) string {
	if filesystem.IsDir(n) {
		return n.Name() + "/"
	}
	return n.Name()
}

func list(w io.Writer, n filesystem.Node, long bool) error {
	nodes := []filesystem.Node{n}
	if dir, ok := n.(*filesystem.Directory); ok {
		nodes = dir.Children().Nodes()
	}
	if !long {
		for _, c := range nodes {
			if _, err := fmt.Fprintln(w, displayName(c)); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range nodes {
		kind := "-"
		if filesystem.IsDir(c) {
			kind = "d"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", kind, filesystem.HumanSize(c.Size()), displayName(c))
	}
	return tw.Flush()
}

func statCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show details of a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				n := s.Resolve(args[0])
				if n == nil {
					return notFound(args[0])
				}
				return stat(cmd.OutOrStdout(), n)
			})
		},
	}
}

func stat(w io.Writer, n filesystem.Node) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", n.Path())
	fmt.Fprintf(tw, "ID:\t%s\n", n.ID())
	fmt.Fprintf(tw, "Size:\t%d (%s)\n", n.Size(), filesystem.HumanSize(n.Size()))
	switch v := n.(type) {
	case *filesystem.Directory:
		fmt.Fprintf(tw, "Type:\tdirectory\n")
		fmt.Fprintf(tw, "Children:\t%d\n", v.Children().Len())
	case *filesystem.File:
		fmt.Fprintf(tw, "Type:\tfile\n")
		fmt.Fprintf(tw, "Metadata:\t%d\n", v.MetaLen())
	}
	return tw.Flush()
}

func duCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "du [path]",
		Short: "Show the total payload size under a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				n := s.Resolve(argOrRoot(args))
				if n == nil {
					return notFound(argOrRoot(args))
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", filesystem.HumanSize(n.Size()), n.Path())
				return err
			})
		},
	}
}

func catCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>...",
		Short: "Write file payloads to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				for _, p := range args {
					f, err := s.ResolveFile(p)
					if err != nil {
						return err
					}
					if _, err := cmd.OutOrStdout().Write(f.Data()); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func findCmd(o *rootOptions) *cobra.Command {
	var mode, in string

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Find nodes by name",
		Example: `  vfs -c store.vfs find conf
  vfs -c store.vfs find '.*\.md' --mode regex --in /docs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withStore(func(s *store.Store) error {
				dir, err := s.ResolveDir(in)
				if err != nil {
					return err
				}
				found, err := filesystem.Search(dir, args[0], filesystem.SearchMode(mode))
				if err != nil {
					return err
				}
				for _, n := range found {
					fmt.Fprintln(cmd.OutOrStdout(), n.Path())
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(filesystem.SearchContains), "one of regex, contains, contains-fold")
	cmd.Flags().StringVar(&in, "in", filesystem.Separator, "directory to search under")
	return cmd
}
