package encode

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/cwkey/cmd/common"
	"github.com/gigurra/cwkey/cmd/keyer"
	"github.com/gigurra/cwkey/cmd/keyer/bitbuf"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type Params struct {
	Text     []string `pos:"true" optional:"true" help:"Text to encode/decode. If none provided, reads from stdin."`
	Decode   bool     `short:"d" help:"Decode morse notation to text." default:"false"`
	Bits     bool     `short:"b" help:"Show the encoded on/off timeline instead of notation." default:"false"`
	DotMs    int      `help:"Unit duration in milliseconds, used for the duration shown with --bits." default:"60"`
	Capacity int      `help:"Buffer capacity in bytes, header included." default:"1024"`
	Width    int      `short:"w" help:"Units per timeline row with --bits." default:"64"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "encode",
		Short: "Encode/decode Morse code",
		Long: `Convert text to Morse notation or decode notation back to text.

With --bits the text is encoded exactly as the player sees it: one cell per
unit, '=' for key down and '.' for key up, followed by the three-space
message separator.

Examples:
  cwkey encode sos
  cwkey encode -d "... --- ..."
  cwkey encode -b "cq de cwkey"`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params, os.Stdin, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "encode: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func run(params *Params, stdin io.Reader, stdout io.Writer) error {
	if len(params.Text) > 0 {
		return convert(params, strings.Join(params.Text, " "), stdout)
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if err := convert(params, scanner.Text(), stdout); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func convert(params *Params, text string, stdout io.Writer) error {
	switch {
	case params.Decode:
		decoded, err := keyer.Decode(text)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, decoded)
	case params.Bits:
		return renderBits(params, text, stdout)
	default:
		notation, err := keyer.Notation(text)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, notation)
	}
	return nil
}

func renderBits(params *Params, text string, stdout io.Writer) error {
	buf, err := bitbuf.New(params.Capacity)
	if err != nil {
		return err
	}
	if err := keyer.Encode(buf, text); err != nil {
		return err
	}

	units := buf.Len()
	cells := make([]string, units)
	for i := uint32(0); i < units; i++ {
		cells[i] = "."
		if buf.Bit(i) {
			cells[i] = "="
		}
	}

	width := params.Width
	if width <= 0 {
		width = 64
	}
	dot := time.Duration(params.DotMs) * time.Millisecond

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(strings.ToUpper(text))
	t.AppendHeader(table.Row{"Unit", "Timeline"})
	for i, row := range lo.Chunk(cells, width) {
		t.AppendRow(table.Row{i * width, strings.Join(row, "")})
	}
	t.Render()

	fmt.Fprintf(stdout, "%d of %d units, %v at %v/unit\n", units, buf.BitCap(), dot*time.Duration(units), dot)
	return nil
}
