package prompt

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

// WriteEntries prints entries as a zero-indexed list, one per line, with
// the backup time decoded from each name. Names that do not decode show "?".
func WriteEntries(w io.Writer, entries []discosync.RemoteEntry, codec *discosync.VersionCodec) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No backups found.")
		return
	}

	id := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.FgHiBlack).SprintFunc()
	for i, e := range entries {
		fmt.Fprintf(w, "%s: %s %s\n", id(fmt.Sprintf("%3d", i)), e.Name, dim("("+entryTime(e, codec)+")"))
	}
}

func entryTime(e discosync.RemoteEntry, codec *discosync.VersionCodec) string {
	t, err := codec.DecodeTime(e.Name)
	if err != nil {
		return "?"
	}
	return t.Format(time.DateTime)
}
