package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// LinePrompter asks for the restore selection and confirmation one line at a
// time. End of input counts as an empty answer.
type LinePrompter struct {
	in    *bufio.Reader
	out   io.Writer
	codec *discosync.VersionCodec
}

// NewLinePrompter reads answers from in and writes prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer, codec *discosync.VersionCodec) *LinePrompter {
	if codec == nil {
		codec = discosync.LocalVersionCodec()
	}
	return &LinePrompter{in: bufio.NewReader(in), out: out, codec: codec}
}

// SelectVersion prints the listing and reads an ID.
func (p *LinePrompter) SelectVersion(entries []discosync.RemoteEntry) (string, error) {
	WriteEntries(p.out, entries, p.codec)
	fmt.Fprint(p.out, "Enter ID of the backup to restore: ")
	return p.readLine()
}

// ConfirmOverwrite asks whether the local file may be replaced.
func (p *LinePrompter) ConfirmOverwrite(path string, entry discosync.RemoteEntry) (string, error) {
	fmt.Fprintf(p.out, "Overwrite %s with %s? %s ", path, color.YellowString(entry.Name), "[y/N]:")
	return p.readLine()
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "reading answer")
	}
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
	}
	return strings.TrimSpace(line), nil
}

var _ discosync.Prompter = (*LinePrompter)(nil)
