package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cityscape/internal/geo"
	"cityscape/internal/scene"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <path|url>",
	Short: "Write every building mesh to a Wavefront OBJ file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buildings, err := geo.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		builder, err := newBuilder(nil)
		if err != nil {
			return err
		}
		s := builder.Build(buildings)

		var w io.Writer = cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "export: create output")
			}
			defer f.Close()
			w = f
		}
		bw := bufio.NewWriter(w)
		written, err := writeOBJ(bw, s)
		if err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return eris.Wrap(err, "export: flush")
		}
		zap.L().Info("export: done",
			zap.String("source", args[0]),
			zap.Int("meshes", written),
			zap.Int("buildings", len(buildings)),
		)
		return nil
	},
}

// writeOBJ writes each non-empty mesh as its own OBJ object. Scene Y is up,
// which is the OBJ convention.
func writeOBJ(w io.Writer, s *scene.Scene) (int, error) {
	if _, err := fmt.Fprintf(w, "# cityscape export: %d buildings\n", s.Len()); err != nil {
		return 0, eris.Wrap(err, "export: write header")
	}
	offset, written := 0, 0
	for _, e := range s.Entities {
		if e.Mesh.Empty() {
			zap.L().Debug("export: skipping empty mesh", zap.String("id", e.Building.ID))
			continue
		}
		n, err := e.Mesh.WriteOBJ(w, objectName(e.Building.ID), offset)
		if err != nil {
			return written, err
		}
		offset += n
		written++
	}
	return written, nil
}

func objectName(id string) string {
	return "building_" + strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, id)
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}
