package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/fileutil"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect archived entities",
	}

	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	archiveCmd.AddCommand(newArchiveShowCommand(ctx))
	archiveCmd.AddCommand(newArchiveFullCommand(ctx))
	archiveCmd.AddCommand(newArchiveContentCommand(ctx))

	return archiveCmd
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived entity ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := model.AllEntityTypes()
			if strings.TrimSpace(typeFlag) != "" {
				t, ok := model.ParseEntityType(typeFlag)
				if !ok {
					return fmt.Errorf("unknown entity type %q", typeFlag)
				}
				types = []model.EntityType{t}
			}
			return ctx.withSession(cmd, func(s *session) error {
				listing := make(map[model.EntityType][]string, len(types))
				var rows [][]string
				for _, t := range types {
					ids := s.archive.ListEntities(cmd.Context(), t)
					listing[t] = ids
					for _, id := range ids {
						rows = append(rows, []string{string(t), id})
					}
				}
				if asJSON {
					return writeJSON(cmd, listing)
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Archive is empty")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "ID"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Only list entities of this type")
	return cmd
}

func newArchiveShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-id>",
		Short: "Print the archived record of one entity as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				pkg, err := s.archive.GetPackage(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				return writeJSON(cmd, pkg)
			})
		},
	}
}

func newArchiveFullCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "full <entity-id>",
		Short: "Retrieve an entity with everything significantly related to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				pkg, err := s.archive.GetFullPackage(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, pkg)
				}
				rows := make([][]string, 0, pkg.Len())
				for _, e := range pkg.Entities() {
					rows = append(rows, []string{string(e.EntityType()), e.EntityID(), entityLabel(e)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "ID", "Label"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newArchiveContentCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "content <file-id>",
		Short: "Write the archived bytes of a file entity",
		Long:  "Write the archived bytes of a file entity to stdout, or to --output after checking them against the recorded size and digest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(s *session) error {
				rc, err := s.archive.GetContent(cmd.Context(), id)
				if err != nil {
					return err
				}
				defer rc.Close()

				if strings.TrimSpace(outputPath) == "" {
					_, err := io.Copy(cmd.OutOrStdout(), rc)
					return err
				}

				size, digest := int64(-1), ""
				info, err := s.archive.ContentInfo(cmd.Context(), id)
				if err != nil {
					return err
				}
				if info != nil {
					size, digest = info.Size, info.Digest
				}
				if err := fileutil.WriteVerified(rc, outputPath, size, digest); err != nil {
					return fmt.Errorf("export %s: %w", id, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s bytes, %s)\n", outputPath, strconv.FormatInt(size, 10), digest)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write content to this path instead of stdout")
	return cmd
}

func entityLabel(e model.Entity) string {
	switch v := e.(type) {
	case model.Collection:
		return v.Title
	case model.DeliverableUnit:
		return v.Title
	case model.Manifestation:
		return fmt.Sprintf("%d files", len(v.Files))
	case model.File:
		if !v.Extant {
			return v.Name + " (not extant)"
		}
		return v.Name
	case model.Event:
		return v.Type
	}
	return ""
}
