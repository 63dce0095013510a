package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/scorecache/internal/bundle"
	"github.com/dshills/scorecache/internal/corpus"
	"github.com/dshills/scorecache/internal/indexer"
	"github.com/dshills/scorecache/internal/parser"
	"github.com/dshills/scorecache/pkg/types"
)

func newRebuildCmd(a *app) *cobra.Command {
	var (
		namespace  string
		root       string
		full       bool
		serial     bool
		parserHint bool
		progress   bool
	)

	cmd := &cobra.Command{
		Use:   "rebuild [paths...]",
		Short: "Derive metadata for new or changed scores",
		Long: `Derive metadata for the given score paths, or for every supported
score below the corpus root when no paths are given. Scores whose
modification time is not newer than the snapshot are skipped unless
--full is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			paths := args
			if len(paths) == 0 {
				if root == "" {
					root = a.registry.Config().CorpusRoot
				}
				if root == "" {
					return fmt.Errorf("no paths given and no corpus root configured")
				}
				found, err := corpus.Discover(root, corpus.Options{Extensions: parser.Extensions()})
				if err != nil {
					return err
				}
				paths = found
			}

			opts := bundle.AddOptions{
				Parallel:      a.cfg.Parallel && !serial,
				UseParserHint: parserHint,
			}
			a.showProgress = progress

			var (
				b      *bundle.Bundle
				failed []string
				err    error
			)
			if full {
				b, failed, err = a.registry.Rebuild(ctx, namespace, paths, opts)
			} else {
				b, err = a.registry.Get(ctx, namespace)
				if err == nil {
					failed, err = b.AddFromPaths(ctx, paths, opts)
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", b, b.LastReport())
			for _, p := range failed {
				fmt.Fprintf(out, "failed: %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", bundle.NamespaceCore, "Bundle namespace")
	cmd.Flags().StringVar(&root, "root", "", "Corpus root to scan when no paths are given")
	cmd.Flags().BoolVar(&full, "full", false, "Discard the bundle and its snapshot first")
	cmd.Flags().BoolVar(&serial, "serial", false, "Derive one score at a time")
	cmd.Flags().BoolVar(&parserHint, "parser-hint", false, "Record source paths relative to the corpus root")
	cmd.Flags().BoolVar(&progress, "progress", false, "Report progress on stderr")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		namespace  string
		field      string
		extensions []string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a bundle by field value or pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry.Get(cmd.Context(), namespace)
			if err != nil {
				return err
			}

			found, err := b.Search(args[0], field, extensions)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, e := range found.Entries() {
				if limit > 0 && i >= limit {
					break
				}
				title, composer := "", ""
				if md, ok := e.Payload().(*types.Metadata); ok && md != nil {
					title, composer = md.Title, md.Composer
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key(), title, composer)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d matches\n", found.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", bundle.NamespaceCore, "Bundle namespace")
	cmd.Flags().StringVarP(&field, "field", "f", "", "Restrict the search to one field")
	cmd.Flags().StringSliceVarP(&extensions, "ext", "e", nil, "Only sources with these extensions")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum results to print (0 for all)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print the source document behind an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry.Get(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			return b.Show(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", bundle.NamespaceCore, "Bundle namespace")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show bundle size and snapshot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry.Get(cmd.Context(), namespace)
			if err != nil {
				return err
			}

			stubs := 0
			for _, e := range b.Entries() {
				if e.IsStub() {
					stubs++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bundle:   %s\n", b)
			fmt.Fprintf(out, "Stubs:    %d\n", stubs)
			fmt.Fprintf(out, "Snapshot: %s\n", b.FilePath())
			if info, err := os.Stat(b.FilePath()); err == nil {
				fmt.Fprintf(out, "Written:  %s (%d bytes)\n", info.ModTime().Format("2006-01-02 15:04:05"), info.Size())
			} else {
				fmt.Fprintf(out, "Written:  never\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", bundle.NamespaceCore, "Bundle namespace")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Drop entries whose source file no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.registry.Get(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			removed := b.Validate()
			if err := b.Write(cmd.Context(), ""); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d removed\n", b, removed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", bundle.NamespaceCore, "Bundle namespace")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <namespace> <namespace>",
		Short: "Compare the keys of two bundles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := a.registry.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			right, err := a.registry.Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, op := range []bundle.SetOp{bundle.OpUnion, bundle.OpIntersection, bundle.OpDifference, bundle.OpSymmetricDifference} {
				res, err := left.Apply(op, right)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\n", op, res.Len())
			}

			var holds []string
			for _, p := range []struct {
				name string
				pred bundle.SetPredicate
			}{
				{"subset", bundle.PredSubset},
				{"superset", bundle.PredSuperset},
				{"disjoint", bundle.PredDisjoint},
			} {
				ok, err := left.Holds(p.pred, right)
				if err != nil {
					return err
				}
				if ok {
					holds = append(holds, p.name)
				}
			}
			if len(holds) == 0 {
				holds = []string{"overlapping"}
			}
			fmt.Fprintf(w, "relation\t%s\n", strings.Join(holds, ", "))
			return w.Flush()
		},
	}
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List searchable field names",
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range types.SearchFields() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
		},
	}
}

// printProgress writes one line per finished job to stderr
func printProgress(ev indexer.ProgressEvent) {
	status := "ok"
	if ev.Failures > 0 {
		status = fmt.Sprintf("%d failed", ev.Failures)
	}
	fmt.Fprintf(os.Stderr, "[%d/%d] %s (%s)\n", ev.Total-ev.Remaining, ev.Total, ev.Path, status)
}
