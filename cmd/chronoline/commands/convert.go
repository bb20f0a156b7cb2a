package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronoline/chronoline/pkg/annotation"
	"github.com/chronoline/chronoline/pkg/parser"
	"github.com/chronoline/chronoline/pkg/timeline"
)

var (
	convertFrom    string
	convertTo      string
	convertInput   string
	convertOutput  string
	convertLenient bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert annotations between formats",
	Long: `Convert annotations between the mdtm, uem and json formats.

Labeled formats (mdtm, json) convert freely; converting to uem keeps
only the merged extent of each document's annotated regions. UEM input
carries no labels and converts to uem only. A json document holds a
single annotation, so mdtm input must contain exactly one document when
converting to json.

Examples:
  chronoline convert --from mdtm --to json -i ref.mdtm -o ref.json
  chronoline convert --from json --to mdtm -i hyp.json
  cat dump.json | chronoline convert --from json --to json --lenient`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "input format: mdtm, uem or json")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "output format: mdtm, uem or json")
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "-", `input file ("-" for stdin)`)
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "-", `output file ("-" for stdout)`)
	convertCmd.Flags().BoolVar(&convertLenient, "lenient", false, "repair malformed JSON input")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertFrom == "" || convertTo == "" {
		return errors.New("need --from and --to formats")
	}

	var r io.Reader = cmd.InOrStdin()
	if convertInput != "-" {
		f, err := os.Open(convertInput)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var (
		anns []*annotation.Annotation
		tls  []*timeline.Timeline
		err  error
	)
	switch convertFrom {
	case "mdtm":
		anns, err = parser.ReadMDTM(r)
	case "json":
		var a *annotation.Annotation
		if convertLenient {
			a, err = parser.ReadJSONLenient(r)
		} else {
			a, err = parser.ReadJSON(r)
		}
		anns = []*annotation.Annotation{a}
	case "uem":
		tls, err = parser.ReadUEM(r)
	default:
		return fmt.Errorf("unknown input format %q", convertFrom)
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch convertTo {
	case "mdtm":
		if convertFrom == "uem" {
			return errors.New("cannot convert unlabeled UEM regions to mdtm")
		}
		err = parser.WriteMDTM(&buf, anns...)
	case "json":
		if convertFrom == "uem" {
			return errors.New("cannot convert unlabeled UEM regions to json")
		}
		if len(anns) != 1 {
			return fmt.Errorf("json holds a single document, input has %d", len(anns))
		}
		err = parser.WriteJSON(&buf, anns[0])
	case "uem":
		for _, a := range anns {
			tls = append(tls, a.Timeline().Coverage())
		}
		err = parser.WriteUEM(&buf, tls...)
	default:
		return fmt.Errorf("unknown output format %q", convertTo)
	}
	if err != nil {
		return err
	}

	if convertOutput == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	return os.WriteFile(convertOutput, buf.Bytes(), 0o644)
}
